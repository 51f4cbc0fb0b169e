package datastore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/stockwise/internal/models"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	sugar := &models.Product{Name: "Sugar", Category: "Food", BuyingPrice: 2, SellingPrice: 3, Quantity: 4}
	require.NoError(t, s.SaveProduct(ctx, sugar))
	assert.NotEmpty(t, sugar.ID)
	require.NoError(t, s.SaveProduct(ctx, &models.Product{ID: "p-rice", Name: "Rice", Quantity: 30}))

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Rice", products[0].Name)
	assert.Equal(t, "Sugar", products[1].Name)

	sugar.Quantity = 10
	require.NoError(t, s.SaveProduct(ctx, sugar))
	got, err := s.GetProduct(ctx, sugar.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
	assert.Equal(t, "Food", got.Category)

	require.NoError(t, s.DeleteProduct(ctx, "p-rice"))
	assert.ErrorIs(t, s.DeleteProduct(ctx, "p-rice"), ErrNotFound)
	_, err = s.GetProduct(ctx, "p-rice")
	assert.ErrorIs(t, err, ErrNotFound)

	acme := &models.Supplier{Name: "Acme", Phone: "+255700000000", WhatsApp: "+255700000000"}
	require.NoError(t, s.SaveSupplier(ctx, acme))
	suppliers, err := s.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "+255700000000", suppliers[0].WhatsApp)
	gotSup, err := s.GetSupplier(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", gotSup.Name)
	require.NoError(t, s.DeleteSupplier(ctx, acme.ID))
	assert.ErrorIs(t, s.DeleteSupplier(ctx, acme.ID), ErrNotFound)

	sale := &models.Sale{ProductID: sugar.ID, ProductName: "Sugar", Quantity: 3, UnitPrice: 3}
	require.NoError(t, s.RecordSale(ctx, sale))
	assert.False(t, sale.SoldAt.IsZero())
	sales, err := s.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 9.0, sales[0].Total)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data", "store.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore_ConcurrentInit(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer s.Close()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.ListProducts(context.Background())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveProduct(context.Background(), &models.Product{ID: "1", Name: "Salt", Quantity: 2}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Salt", products[0].Name)
}
