package importer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/stockwise/internal/datastore"
)

func writeWorkbook(t *testing.T, sheets map[string][][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	path := filepath.Join(t.TempDir(), "stock.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportFile(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		SheetProducts: {
			{"ID", "Name", "Category", "Buying Price", "Selling Price", "Quantity", "Expiry Date"},
			{"p1", "Sugar", "Food", "2000", "2500", "3", "2027-01-01"},
			{"p2", "Rice", "Food", "1,800", "2,200", "40", ""},
			{"", "", "", "", "", "", ""},
			{"p3", "", "Food", "1", "2", "3", ""},
			{"p4", "Oil", "Food", "x", "2", "3", ""},
		},
		SheetSuppliers: {
			{"Name", "Phone", "Email"},
			{"Acme", "0700111222", "sales@acme.test"},
		},
		SheetSales: {
			{"Product Name", "Quantity", "Unit Price", "Sold At"},
			{"Sugar", "2", "2500", "2026-05-01"},
		},
	})

	store := datastore.NewMemoryStore()
	res, err := NewImporter(store, nil).ImportFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Products row 5")
	assert.Contains(t, err.Error(), "Products row 6")
	assert.Equal(t, Result{Products: 2, Suppliers: 1, Sales: 1}, res)

	ctx := context.Background()
	rice, err := store.GetProduct(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1800.0, rice.BuyingPrice)
	assert.Equal(t, 40, rice.Quantity)

	suppliers, _ := store.ListSuppliers(ctx)
	require.Len(t, suppliers, 1)
	assert.Equal(t, "0700111222", suppliers[0].WhatsApp)

	sales, _ := store.ListSales(ctx)
	require.Len(t, sales, 1)
	assert.Equal(t, 5000.0, sales[0].Total)
	assert.Equal(t, 2026, sales[0].SoldAt.Year())
}

func TestImportFile_MissingSheets(t *testing.T) {
	path := writeWorkbook(t, map[string][][]interface{}{
		"Inventory": {{"Name"}, {"Sugar"}},
	})
	_, err := NewImporter(datastore.NewMemoryStore(), nil).ImportFile(context.Background(), path)
	assert.ErrorIs(t, err, ErrMissingSheet)
}
