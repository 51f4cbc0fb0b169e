// Package corpus renders products, suppliers and sales into searchable documents.
// Documents are returned without embeddings.
package corpus

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/hyperjump/stockwise/internal/datastore"
	"github.com/hyperjump/stockwise/internal/models"
)

// SalesSummaryID is the ID of the single aggregated sales document.
const SalesSummaryID = "sales_summary"

// ProductDocID returns the document ID for a product.
func ProductDocID(productID string) string {
	return "product_" + productID
}

// SupplierDocID returns the document ID for a supplier.
func SupplierDocID(supplierID string) string {
	return "supplier_" + supplierID
}

// Builder reads entities from a data store and renders documents.
type Builder struct {
	store  datastore.Reader
	logger *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder reading from store.
func NewBuilder(store datastore.Reader, opts ...BuilderOption) *Builder {
	b := &Builder{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildDocuments renders every product, every supplier and the sales summary, in that
// order. When some reads or renders fail, the documents that could be built are returned
// together with the aggregated error.
func (b *Builder) BuildDocuments(ctx context.Context) ([]models.Document, error) {
	var result *multierror.Error
	var docs []models.Document

	products, err := b.store.ListProducts(ctx)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("list products: %w", err))
	}
	for _, p := range products {
		doc, err := ProductDocument(p)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		docs = append(docs, doc)
	}

	suppliers, err := b.store.ListSuppliers(ctx)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("list suppliers: %w", err))
	}
	for _, s := range suppliers {
		doc, err := SupplierDocument(s)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		docs = append(docs, doc)
	}

	sales, err := b.store.ListSales(ctx)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("list sales: %w", err))
	} else if len(sales) > 0 {
		doc, err := SalesDocument(sales)
		if err != nil {
			result = multierror.Append(result, err)
		} else {
			docs = append(docs, doc)
		}
	}

	b.logger.Debug("Built corpus",
		zap.Int("documents", len(docs)),
		zap.Int("products", len(products)),
		zap.Int("suppliers", len(suppliers)),
		zap.Int("sales", len(sales)))

	return docs, result.ErrorOrNil()
}

// SalesDocuments renders the sales summary from the store. It returns no document when
// there are no sales.
func (b *Builder) SalesDocuments(ctx context.Context) ([]models.Document, error) {
	sales, err := b.store.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if len(sales) == 0 {
		return nil, nil
	}
	doc, err := SalesDocument(sales)
	if err != nil {
		return nil, err
	}
	return []models.Document{doc}, nil
}

type productView struct {
	models.Product
	Margin     float64
	Status     string
	TotalValue float64
}

// ProductDocument renders a single product.
func ProductDocument(p models.Product) (models.Document, error) {
	content, err := render(productTemplate, productView{
		Product:    p,
		Margin:     p.MarginPercent(),
		Status:     p.StockStatus(),
		TotalValue: p.TotalValue(),
	})
	if err != nil {
		return models.Document{}, fmt.Errorf("product %s: %w", p.ID, err)
	}
	return models.Document{
		ID:      ProductDocID(p.ID),
		Content: content,
		Metadata: models.ProductMeta{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductGroup: p.Category,
		},
	}, nil
}

// SupplierDocument renders a single supplier.
func SupplierDocument(s models.Supplier) (models.Document, error) {
	content, err := render(supplierTemplate, s)
	if err != nil {
		return models.Document{}, fmt.Errorf("supplier %s: %w", s.ID, err)
	}
	return models.Document{
		ID:      SupplierDocID(s.ID),
		Content: content,
		Metadata: models.SupplierMeta{
			SupplierID:    s.ID,
			SupplierName:  s.Name,
			SupplierGroup: s.Category,
		},
	}, nil
}

type categoryTotal struct {
	Name    string
	Revenue float64
	Items   int
}

type salesView struct {
	Revenue      float64
	Items        int
	Transactions int
	From, To     string
	Categories   []categoryTotal
}

// SalesDocument renders the aggregated summary of all sales.
func SalesDocument(sales []models.Sale) (models.Document, error) {
	view := salesView{Transactions: len(sales)}
	byCategory := make(map[string]*categoryTotal)
	for i, s := range sales {
		amount := s.Amount()
		view.Revenue += amount
		view.Items += s.Quantity

		day := s.SoldAt.Format("2006-01-02")
		if i == 0 || day < view.From {
			view.From = day
		}
		if i == 0 || day > view.To {
			view.To = day
		}

		name := s.Category
		if name == "" {
			name = "uncategorized"
		}
		ct, ok := byCategory[name]
		if !ok {
			ct = &categoryTotal{Name: name}
			byCategory[name] = ct
		}
		ct.Revenue += amount
		ct.Items += s.Quantity
	}
	for _, ct := range byCategory {
		view.Categories = append(view.Categories, *ct)
	}
	sort.Slice(view.Categories, func(i, j int) bool {
		return view.Categories[i].Name < view.Categories[j].Name
	})

	content, err := render(salesTemplate, view)
	if err != nil {
		return models.Document{}, err
	}
	return models.Document{
		ID:       SalesSummaryID,
		Content:  content,
		Metadata: models.SaleMeta{SaleCategory: "sales"},
	}, nil
}
