// Package importer seeds the data store from an .xlsx workbook with Products, Suppliers
// and Sales sheets. The first row of each sheet names the columns.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/stockwise/internal/datastore"
	"github.com/hyperjump/stockwise/internal/models"
)

// Sheet names.
const (
	SheetProducts  = "Products"
	SheetSuppliers = "Suppliers"
	SheetSales     = "Sales"
)

// ErrMissingSheet is returned when the workbook has none of the known sheets.
var ErrMissingSheet = errors.New("workbook has no Products, Suppliers or Sales sheet")

// Result counts imported records.
type Result struct {
	Products  int `json:"products"`
	Suppliers int `json:"suppliers"`
	Sales     int `json:"sales"`
}

// Importer writes workbook rows into a data store.
type Importer struct {
	store  datastore.Writer
	logger *zap.Logger
}

// NewImporter creates an importer writing to store.
func NewImporter(store datastore.Writer, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, logger: logger}
}

// ImportFile imports the workbook at path.
func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return im.importWorkbook(ctx, f)
}

// Import imports a workbook read from r.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return im.importWorkbook(ctx, f)
}

// importWorkbook saves every valid row. Invalid rows are skipped and reported together.
func (im *Importer) importWorkbook(ctx context.Context, f *excelize.File) (Result, error) {
	var res Result
	var result *multierror.Error

	sheets := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		sheets[name] = true
	}
	if !sheets[SheetProducts] && !sheets[SheetSuppliers] && !sheets[SheetSales] {
		return res, ErrMissingSheet
	}

	if sheets[SheetSuppliers] {
		err := eachRow(f, SheetSuppliers, func(row record) error {
			s, err := parseSupplier(row)
			if err != nil {
				return err
			}
			if err := im.store.SaveSupplier(ctx, s); err != nil {
				return err
			}
			res.Suppliers++
			return nil
		})
		result = multierror.Append(result, err)
	}

	if sheets[SheetProducts] {
		err := eachRow(f, SheetProducts, func(row record) error {
			p, err := parseProduct(row)
			if err != nil {
				return err
			}
			if err := im.store.SaveProduct(ctx, p); err != nil {
				return err
			}
			res.Products++
			return nil
		})
		result = multierror.Append(result, err)
	}

	if sheets[SheetSales] {
		err := eachRow(f, SheetSales, func(row record) error {
			s, err := parseSale(row)
			if err != nil {
				return err
			}
			if err := im.store.RecordSale(ctx, s); err != nil {
				return err
			}
			res.Sales++
			return nil
		})
		result = multierror.Append(result, err)
	}

	im.logger.Info("Imported workbook",
		zap.Int("products", res.Products),
		zap.Int("suppliers", res.Suppliers),
		zap.Int("sales", res.Sales))
	return res, result.ErrorOrNil()
}

// record maps lowercase header names to cell values.
type record map[string]string

func (r record) str(key string) string {
	return strings.TrimSpace(r[key])
}

func (r record) float(key string) (float64, error) {
	v := strings.ReplaceAll(r.str(key), ",", "")
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", key, err)
	}
	return f, nil
}

func (r record) int(key string) (int, error) {
	f, err := r.float(key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// eachRow calls fn for every non-empty data row of sheet and collects row errors.
func eachRow(f *excelize.File, sheet string, fn func(record) error) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", "_"))
	}

	var result *multierror.Error
	for i, row := range rows[1:] {
		rec := make(record, len(header))
		empty := true
		for j, cell := range row {
			if j < len(header) {
				rec[header[j]] = cell
			}
			if strings.TrimSpace(cell) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		if err := fn(rec); err != nil {
			// rows are 1-based and the header is row 1
			result = multierror.Append(result, fmt.Errorf("%s row %d: %w", sheet, i+2, err))
		}
	}
	return result.ErrorOrNil()
}

func parseProduct(r record) (*models.Product, error) {
	p := &models.Product{
		ID:         r.str("id"),
		Name:       r.str("name"),
		Category:   r.str("category"),
		ExpiryDate: r.str("expiry_date"),
		SupplierID: r.str("supplier_id"),
	}
	if p.Name == "" {
		return nil, errors.New("name is required")
	}
	var err error
	if p.BuyingPrice, err = r.float("buying_price"); err != nil {
		return nil, err
	}
	if p.SellingPrice, err = r.float("selling_price"); err != nil {
		return nil, err
	}
	if p.Quantity, err = r.int("quantity"); err != nil {
		return nil, err
	}
	if p.ExpiryDate != "" {
		if _, err := time.Parse("2006-01-02", p.ExpiryDate); err != nil {
			return nil, fmt.Errorf("column expiry_date: %w", err)
		}
	}
	return p, nil
}

func parseSupplier(r record) (*models.Supplier, error) {
	s := &models.Supplier{
		ID:       r.str("id"),
		Name:     r.str("name"),
		Phone:    r.str("phone"),
		WhatsApp: r.str("whatsapp"),
		Email:    r.str("email"),
		Category: r.str("category"),
	}
	if s.Name == "" {
		return nil, errors.New("name is required")
	}
	if s.WhatsApp == "" {
		s.WhatsApp = s.Phone
	}
	return s, nil
}

var saleTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseSale(r record) (*models.Sale, error) {
	s := &models.Sale{
		ID:          r.str("id"),
		ProductID:   r.str("product_id"),
		ProductName: r.str("product_name"),
		Category:    r.str("category"),
	}
	if s.ProductName == "" {
		return nil, errors.New("product_name is required")
	}
	var err error
	if s.Quantity, err = r.int("quantity"); err != nil {
		return nil, err
	}
	if s.UnitPrice, err = r.float("unit_price"); err != nil {
		return nil, err
	}
	if s.Total, err = r.float("total"); err != nil {
		return nil, err
	}
	if v := r.str("sold_at"); v != "" {
		for _, layout := range saleTimeLayouts {
			if t, perr := time.Parse(layout, v); perr == nil {
				s.SoldAt = t.UTC()
				break
			}
		}
		if s.SoldAt.IsZero() {
			return nil, fmt.Errorf("column sold_at: unrecognized time %q", v)
		}
	}
	return s, nil
}
