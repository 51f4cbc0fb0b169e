package corpus

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/stockwise/internal/datastore"
	"github.com/hyperjump/stockwise/internal/models"
)

func TestProductDocument(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		status   string
	}{
		{"out of stock", 0, "Stock status: out of stock"},
		{"low stock", 3, "Stock status: low stock"},
		{"low stock boundary", 5, "Stock status: low stock"},
		{"in stock", 20, "Stock status: in stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ProductDocument(models.Product{
				ID: "7", Name: "Sugar", Category: "Food",
				BuyingPrice: 2000, SellingPrice: 2500, Quantity: tt.quantity,
			})
			require.NoError(t, err)
			assert.Equal(t, "product_7", doc.ID)
			assert.Contains(t, doc.Content, tt.status)
			assert.Contains(t, doc.Content, "Product: Sugar")
			assert.Contains(t, doc.Content, "Buying price: 2000.00")
			assert.Contains(t, doc.Content, "Selling price: 2500.00")
			assert.Contains(t, doc.Content, "Profit margin: 20.0%")
			assert.Contains(t, doc.Content, "Expiry date: not set")
			assert.Equal(t, models.ProductMeta{ProductID: "7", ProductName: "Sugar", ProductGroup: "Food"}, doc.Metadata)
		})
	}
}

func TestProductDocument_OnlyLowItemsSayLowStock(t *testing.T) {
	doc, err := ProductDocument(models.Product{ID: "1", Name: "Rice", Quantity: 50, ExpiryDate: "2027-01-31"})
	require.NoError(t, err)
	assert.NotContains(t, doc.Content, "low stock")
	assert.Contains(t, doc.Content, "Expiry date: 2027-01-31")
	assert.Contains(t, doc.Content, "Profit margin: 0.0%")
}

func TestProductDocument_Deterministic(t *testing.T) {
	p := models.Product{ID: "1", Name: "Oil", BuyingPrice: 5, SellingPrice: 8, Quantity: 4}
	a, _ := ProductDocument(p)
	b, _ := ProductDocument(p)
	assert.Equal(t, a, b)
}

func TestSupplierDocument(t *testing.T) {
	doc, err := SupplierDocument(models.Supplier{ID: "s1", Name: "Acme", Phone: "0700111222", WhatsApp: "0700111222", Email: "sales@acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "supplier_s1", doc.ID)
	assert.Equal(t, "Acme", doc.Metadata.Name())
	assert.Equal(t, models.KindSupplier, doc.Metadata.Kind())
	assert.GreaterOrEqual(t, strings.Count(doc.Content, "0700111222"), 4)
	assert.Contains(t, doc.Content, "Email: sales@acme.test")

	noEmail, err := SupplierDocument(models.Supplier{ID: "s2", Name: "Bora"})
	require.NoError(t, err)
	assert.NotContains(t, noEmail.Content, "Email:")
	assert.Contains(t, noEmail.Content, "Phone: not provided")
}

func TestSalesDocument(t *testing.T) {
	day := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	doc, err := SalesDocument([]models.Sale{
		{ProductName: "Sugar", Category: "Food", Quantity: 2, UnitPrice: 10, SoldAt: day.AddDate(0, 0, 3)},
		{ProductName: "Soap", Category: "Home", Quantity: 1, Total: 7, SoldAt: day},
	})
	require.NoError(t, err)
	assert.Equal(t, SalesSummaryID, doc.ID)
	assert.Contains(t, doc.Content, "Total revenue: 27.00")
	assert.Contains(t, doc.Content, "Items sold: 3")
	assert.Contains(t, doc.Content, "Transactions: 2")
	assert.Contains(t, doc.Content, "Period: 2026-05-01 to 2026-05-04")
	assert.Less(t, strings.Index(doc.Content, "Revenue for Food"), strings.Index(doc.Content, "Revenue for Home"))
}

type failingSuppliers struct {
	*datastore.MemoryStore
}

func (failingSuppliers) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	return nil, errors.New("disk unavailable")
}

func TestBuilder_BuildDocuments(t *testing.T) {
	ctx := context.Background()
	store := datastore.NewMemoryStore()
	require.NoError(t, store.SaveProduct(ctx, &models.Product{ID: "1", Name: "A", Quantity: 1}))
	require.NoError(t, store.SaveProduct(ctx, &models.Product{ID: "2", Name: "B", Quantity: 9}))
	require.NoError(t, store.SaveSupplier(ctx, &models.Supplier{ID: "9", Name: "Acme"}))
	require.NoError(t, store.RecordSale(ctx, &models.Sale{ProductName: "A", Quantity: 1, UnitPrice: 2}))

	docs, err := NewBuilder(store).BuildDocuments(ctx)
	require.NoError(t, err)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		assert.Nil(t, d.Embedding)
	}
	assert.Equal(t, []string{"product_1", "product_2", "supplier_9", SalesSummaryID}, ids)
}

func TestBuilder_PartialFailure(t *testing.T) {
	ctx := context.Background()
	mem := datastore.NewMemoryStore()
	require.NoError(t, mem.SaveProduct(ctx, &models.Product{ID: "1", Name: "A"}))

	docs, err := NewBuilder(failingSuppliers{mem}).BuildDocuments(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk unavailable")
	require.Len(t, docs, 1)
	assert.Equal(t, "product_1", docs[0].ID)
}

func TestBuilder_NoSalesNoSummary(t *testing.T) {
	docs, err := NewBuilder(datastore.NewMemoryStore()).SalesDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}
