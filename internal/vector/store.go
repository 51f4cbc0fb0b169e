// Package vector holds the embedded document collection and keeps it in sync with its
// persisted snapshot.
package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hyperjump/stockwise/internal/corpus"
	"github.com/hyperjump/stockwise/internal/embedding"
	"github.com/hyperjump/stockwise/internal/kv"
	"github.com/hyperjump/stockwise/internal/models"
)

// Persisted keys.
const (
	KeyDocuments     = "rag:documents"
	KeySchemaVersion = "rag:schema_version"
)

// SchemaVersion is the version of the snapshot layout.
const SchemaVersion = "2"

// DocumentSource renders documents without embeddings.
type DocumentSource interface {
	BuildDocuments(ctx context.Context) ([]models.Document, error)
	SalesDocuments(ctx context.Context) ([]models.Document, error)
}

// Store is the in-memory document collection backed by a persisted snapshot.
// Mutations hold the write lock until the snapshot is written, so a returned call means
// memory and persisted state agree.
type Store struct {
	kv       kv.Store
	source   DocumentSource
	provider *embedding.Provider
	logger   *zap.Logger

	mu    sync.RWMutex
	docs  []models.Document
	state State

	// lifecycle serializes snapshot loads and full rebuilds.
	lifecycle sync.Mutex
	flight    singleflight.Group
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates an uninitialized store.
func NewStore(kvStore kv.Store, source DocumentSource, provider *embedding.Provider, opts ...StoreOption) *Store {
	s := &Store{
		kv:       kvStore,
		source:   source,
		provider: provider,
		logger:   zap.NewNop(),
		state:    StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stamp is the schema version written next to the snapshot. It covers the snapshot layout,
// the document templates and the embedding strategy.
func (s *Store) Stamp() string {
	return SchemaVersion + "/" + corpus.TemplateVersion + "/" + s.provider.Fingerprint()
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Len returns the number of documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Documents returns a copy of the collection. Embedding slices are shared and must not be
// modified.
func (s *Store) Documents() []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Initialize loads the persisted snapshot, or regenerates everything when the snapshot is
// missing, unreadable, or stamped with a different version. It is a no-op once Ready or
// while a Regenerate serves the previous collection, and concurrent callers share one
// in-flight initialization. Only context cancellation is returned as an error.
func (s *Store) Initialize(ctx context.Context) error {
	if s.initialized() {
		return nil
	}
	_, err, _ := s.flight.Do("initialize", func() (interface{}, error) {
		s.lifecycle.Lock()
		defer s.lifecycle.Unlock()

		s.mu.Lock()
		if s.state == StateReady || s.state == StateRegenerating {
			s.mu.Unlock()
			return nil, nil
		}
		s.state = StateInitializing
		s.mu.Unlock()

		if docs, ok := s.load(ctx); ok {
			s.mu.Lock()
			s.docs = docs
			s.state = StateReady
			s.mu.Unlock()
			s.logger.Info("Loaded document snapshot", zap.Int("documents", len(docs)))
			return nil, nil
		}

		_, _ = s.regenerate(ctx)
		return nil, ctx.Err()
	})
	return err
}

func (s *Store) initialized() bool {
	st := s.State()
	return st == StateReady || st == StateRegenerating
}

// load returns the persisted snapshot when it can be trusted.
func (s *Store) load(ctx context.Context) ([]models.Document, bool) {
	stamp, ok, err := s.kv.Get(ctx, KeySchemaVersion)
	if err != nil {
		s.logger.Warn("Failed to read schema version", zap.Error(err))
		return nil, false
	}
	if !ok || stamp != s.Stamp() {
		s.logger.Info("Schema version mismatch, regenerating",
			zap.String("persisted", stamp), zap.String("current", s.Stamp()))
		return nil, false
	}

	raw, ok, err := s.kv.Get(ctx, KeyDocuments)
	if err != nil || !ok {
		s.logger.Warn("Document snapshot unavailable", zap.Bool("present", ok), zap.Error(err))
		return nil, false
	}
	var docs []models.Document
	if err := json.Unmarshal([]byte(raw), &docs); err != nil {
		s.logger.Warn("Failed to parse document snapshot", zap.Error(err))
		return nil, false
	}
	dims := s.provider.Dimensions()
	for _, d := range docs {
		if len(d.Embedding) != dims {
			s.logger.Warn("Snapshot has wrong embedding dimension",
				zap.String("id", d.ID), zap.Int("got", len(d.Embedding)), zap.Int("want", dims))
			return nil, false
		}
	}
	return docs, true
}

// Regenerate rebuilds the whole collection from the document source and persists it.
// The store ends Ready with whatever could be built; the build error, if any, is returned
// for reporting only.
func (s *Store) Regenerate(ctx context.Context) (int, error) {
	v, err, _ := s.flight.Do("regenerate", func() (interface{}, error) {
		s.lifecycle.Lock()
		defer s.lifecycle.Unlock()
		return s.regenerate(ctx)
	})
	n, _ := v.(int)
	return n, err
}

// regenerate rebuilds the collection. Caller holds s.lifecycle.
func (s *Store) regenerate(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.state == StateReady {
		s.state = StateRegenerating
	}
	s.mu.Unlock()

	docs, buildErr := s.source.BuildDocuments(ctx)
	if buildErr != nil {
		s.logger.Warn("Corpus build incomplete", zap.Int("documents", len(docs)), zap.Error(buildErr))
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors := s.provider.EmbedBatch(ctx, texts)
	for i := range docs {
		docs[i].Embedding = vectors[i]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
	s.persistLocked(ctx)
	s.state = StateReady
	s.logger.Info("Regenerated embeddings",
		zap.Int("documents", len(docs)), zap.String("strategy", s.provider.Fingerprint()))
	return len(docs), buildErr
}

// persistLocked writes the snapshot and then its stamp. Failures are logged; memory stays
// authoritative. Caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.docs)
	if err != nil {
		s.logger.Warn("Failed to encode document snapshot", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, KeyDocuments, string(data)); err != nil {
		s.logger.Warn("Failed to persist document snapshot", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, KeySchemaVersion, s.Stamp()); err != nil {
		s.logger.Warn("Failed to persist schema version", zap.Error(err))
	}
}

// Upsert embeds doc and replaces the document with the same ID, or appends it.
func (s *Store) Upsert(ctx context.Context, doc models.Document) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}
	doc.Embedding = s.provider.Embed(ctx, doc.Content)

	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := false
	for i := range s.docs {
		if s.docs[i].ID == doc.ID {
			s.docs[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		s.docs = append(s.docs, doc)
	}
	s.persistLocked(ctx)
	s.logger.Debug("Upserted document", zap.String("id", doc.ID), zap.Bool("replaced", replaced))
	return nil
}

// UpdateProduct re-renders and upserts the document for p.
func (s *Store) UpdateProduct(ctx context.Context, p models.Product) error {
	doc, err := corpus.ProductDocument(p)
	if err != nil {
		return err
	}
	return s.Upsert(ctx, doc)
}

// UpdateSupplier re-renders and upserts the document for sup.
func (s *Store) UpdateSupplier(ctx context.Context, sup models.Supplier) error {
	doc, err := corpus.SupplierDocument(sup)
	if err != nil {
		return err
	}
	return s.Upsert(ctx, doc)
}

// UpdateSales re-renders the sales summary. The summary is removed when there are no sales.
func (s *Store) UpdateSales(ctx context.Context) error {
	docs, err := s.source.SalesDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to render sales summary: %w", err)
	}
	if len(docs) == 0 {
		return s.RemoveDocument(ctx, corpus.SalesSummaryID)
	}
	for _, doc := range docs {
		if err := s.Upsert(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// RemoveDocument deletes the document with id. Unknown ids are a no-op.
func (s *Store) RemoveDocument(ctx context.Context, id string) error {
	if err := s.Initialize(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			s.docs = append(s.docs[:i], s.docs[i+1:]...)
			s.persistLocked(ctx)
			s.logger.Debug("Removed document", zap.String("id", id))
			return nil
		}
	}
	return nil
}

// RemoveProduct removes the document of a product.
func (s *Store) RemoveProduct(ctx context.Context, productID string) error {
	return s.RemoveDocument(ctx, corpus.ProductDocID(productID))
}

// RemoveSupplier removes the document of a supplier.
func (s *Store) RemoveSupplier(ctx context.Context, supplierID string) error {
	return s.RemoveDocument(ctx, corpus.SupplierDocID(supplierID))
}

// Invalidate clears memory and the persisted snapshot. The next Initialize rebuilds.
func (s *Store) Invalidate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.state = StateUninitialized
	for _, key := range []string{KeyDocuments, KeySchemaVersion} {
		if err := s.kv.Remove(ctx, key); err != nil {
			s.logger.Warn("Failed to remove persisted key", zap.String("key", key), zap.Error(err))
		}
	}
	s.logger.Info("Invalidated document store")
}
