// Package datastore provides the record store for products, suppliers and sales that the
// context engine reads from. The engine itself only uses Reader.
package datastore

import (
	"context"
	"errors"

	"github.com/hyperjump/stockwise/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Reader is the read-only view consumed by the corpus builder and analytics.
type Reader interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	ListSales(ctx context.Context) ([]models.Sale, error)
}

// Writer mutates records. Save methods assign an ID when the record has none.
type Writer interface {
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SaveSupplier(ctx context.Context, s *models.Supplier) error
	DeleteSupplier(ctx context.Context, id string) error
	RecordSale(ctx context.Context, s *models.Sale) error
}

// Store is a full read/write data store.
type Store interface {
	Reader
	Writer
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetSupplier(ctx context.Context, id string) (*models.Supplier, error)
	Close() error
}
