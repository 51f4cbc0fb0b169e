package datastore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/stockwise/internal/models"
)

// MemoryStore is an in-memory Store used by tests and one-shot CLI runs.
type MemoryStore struct {
	mu        sync.RWMutex
	products  map[string]models.Product
	suppliers map[string]models.Supplier
	sales     []models.Sale
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:  make(map[string]models.Product),
		suppliers: make(map[string]models.Supplier),
	}
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return &p, nil
}

func (m *MemoryStore) SaveProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.UpdatedAt = time.Now().UTC()
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Supplier, 0, len(m.suppliers))
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.suppliers[id]
	if !ok {
		return nil, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	return &s, nil
}

func (m *MemoryStore) SaveSupplier(ctx context.Context, s *models.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	s.UpdatedAt = time.Now().UTC()
	m.suppliers[s.ID] = *s
	return nil
}

func (m *MemoryStore) DeleteSupplier(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.suppliers[id]; !ok {
		return fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	delete(m.suppliers, id)
	return nil
}

func (m *MemoryStore) ListSales(ctx context.Context) ([]models.Sale, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Sale, len(m.sales))
	copy(out, m.sales)
	return out, nil
}

func (m *MemoryStore) RecordSale(ctx context.Context, s *models.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.SoldAt.IsZero() {
		s.SoldAt = time.Now().UTC()
	}
	s.Total = s.Amount()
	m.sales = append(m.sales, *s)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
