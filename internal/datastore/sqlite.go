package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/stockwise/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	ready  atomic.Bool
	initSF singleflight.Group
}

// NewSQLiteStore opens or creates a SQLite database at dbPath. The schema is created
// lazily by Init (or the first query); concurrent first callers share one initialization.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Init creates the schema once. It is safe to call concurrently and repeatedly.
func (s *SQLiteStore) Init(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	_, err, _ := s.initSF.Do("init", func() (interface{}, error) {
		if s.ready.Load() {
			return nil, nil
		}
		if err := initSchema(ctx, s.db); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
		s.ready.Store(true)
		return nil, nil
	})
	return err
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		buying_price REAL NOT NULL DEFAULT 0,
		selling_price REAL NOT NULL DEFAULT 0,
		quantity INTEGER NOT NULL DEFAULT 0,
		expiry_date TEXT,
		supplier_id TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);

	CREATE TABLE IF NOT EXISTS suppliers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		whatsapp TEXT,
		email TEXT,
		category TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		product_id TEXT,
		product_name TEXT NOT NULL,
		category TEXT,
		quantity INTEGER NOT NULL DEFAULT 0,
		unit_price REAL NOT NULL DEFAULT 0,
		total REAL NOT NULL DEFAULT 0,
		sold_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_sold_at ON sales(sold_at);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// ListProducts returns all products ordered by name.
func (s *SQLiteStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, buying_price, selling_price, quantity, expiry_date, supplier_id, updated_at
		 FROM products ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var category, expiry, supplierID sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &category, &p.BuyingPrice, &p.SellingPrice, &p.Quantity, &expiry, &supplierID, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Category = category.String
	p.ExpiryDate = expiry.String
	p.SupplierID = supplierID.String
	return &p, nil
}

// GetProduct returns a product by ID.
func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT id, name, category, buying_price, selling_price, quantity, expiry_date, supplier_id, updated_at
		 FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

// SaveProduct inserts or replaces a product.
func (s *SQLiteStore) SaveProduct(ctx context.Context, p *models.Product) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, category, buying_price, selling_price, quantity, expiry_date, supplier_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, category = excluded.category,
			buying_price = excluded.buying_price, selling_price = excluded.selling_price,
			quantity = excluded.quantity, expiry_date = excluded.expiry_date,
			supplier_id = excluded.supplier_id, updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Category, p.BuyingPrice, p.SellingPrice, p.Quantity, p.ExpiryDate, p.SupplierID, p.UpdatedAt,
	)
	return err
}

// DeleteProduct removes a product by ID.
func (s *SQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "products", id)
}

func (s *SQLiteStore) deleteByID(ctx context.Context, table, id string) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return nil
}

// ListSuppliers returns all suppliers ordered by name.
func (s *SQLiteStore) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, phone, whatsapp, email, category, updated_at FROM suppliers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []models.Supplier
	for rows.Next() {
		sup, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, *sup)
	}
	return suppliers, rows.Err()
}

func scanSupplier(row rowScanner) (*models.Supplier, error) {
	var sup models.Supplier
	var phone, whatsapp, email, category sql.NullString
	if err := row.Scan(&sup.ID, &sup.Name, &phone, &whatsapp, &email, &category, &sup.UpdatedAt); err != nil {
		return nil, err
	}
	sup.Phone = phone.String
	sup.WhatsApp = whatsapp.String
	sup.Email = email.String
	sup.Category = category.String
	return &sup, nil
}

// GetSupplier returns a supplier by ID.
func (s *SQLiteStore) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	sup, err := scanSupplier(s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, whatsapp, email, category, updated_at FROM suppliers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	return sup, err
}

// SaveSupplier inserts or replaces a supplier.
func (s *SQLiteStore) SaveSupplier(ctx context.Context, sup *models.Supplier) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	if sup.ID == "" {
		sup.ID = uuid.New().String()
	}
	sup.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suppliers (id, name, phone, whatsapp, email, category, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, phone = excluded.phone, whatsapp = excluded.whatsapp,
			email = excluded.email, category = excluded.category, updated_at = excluded.updated_at`,
		sup.ID, sup.Name, sup.Phone, sup.WhatsApp, sup.Email, sup.Category, sup.UpdatedAt,
	)
	return err
}

// DeleteSupplier removes a supplier by ID.
func (s *SQLiteStore) DeleteSupplier(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "suppliers", id)
}

// ListSales returns all sales, oldest first.
func (s *SQLiteStore) ListSales(ctx context.Context) ([]models.Sale, error) {
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, product_name, category, quantity, unit_price, total, sold_at
		 FROM sales ORDER BY sold_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		var sale models.Sale
		var productID, category sql.NullString
		if err := rows.Scan(&sale.ID, &productID, &sale.ProductName, &category, &sale.Quantity, &sale.UnitPrice, &sale.Total, &sale.SoldAt); err != nil {
			return nil, err
		}
		sale.ProductID = productID.String
		sale.Category = category.String
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// RecordSale inserts a sale. SoldAt defaults to now and Total to Quantity*UnitPrice.
func (s *SQLiteStore) RecordSale(ctx context.Context, sale *models.Sale) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	if sale.SoldAt.IsZero() {
		sale.SoldAt = time.Now().UTC()
	}
	sale.Total = sale.Amount()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sales (id, product_id, product_name, category, quantity, unit_price, total, sold_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.ProductID, sale.ProductName, sale.Category, sale.Quantity, sale.UnitPrice, sale.Total, sale.SoldAt,
	)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
