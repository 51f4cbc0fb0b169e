package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/stockwise/internal/config"
	"github.com/hyperjump/stockwise/internal/embedding"
	"github.com/hyperjump/stockwise/internal/models"
	"github.com/hyperjump/stockwise/internal/vector"
)

// NoContextFound is returned by RelevantContext when nothing matches.
const NoContextFound = "No relevant context found."

// Corpus is the document collection searched by the Engine.
type Corpus interface {
	Initialize(ctx context.Context) error
	Documents() []models.Document
}

// Engine runs semantic, keyword and hybrid search.
type Engine struct {
	corpus         Corpus
	provider       *embedding.Provider
	config         *config.SearchConfig
	semanticWeight float64
	keywordWeight  float64
	logger         *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWeights overrides the fusion weights.
func WithWeights(semantic, keyword float64) EngineOption {
	return func(e *Engine) {
		e.semanticWeight = semantic
		e.keywordWeight = keyword
	}
}

// NewEngine creates a search engine. Weights come from cfg when set, else the defaults.
func NewEngine(corpus Corpus, provider *embedding.Provider, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		corpus:         corpus,
		provider:       provider,
		config:         cfg,
		semanticWeight: DefaultSemanticWeight,
		keywordWeight:  DefaultKeywordWeight,
		logger:         zap.NewNop(),
	}
	if cfg != nil && (cfg.SemanticWeight != 0 || cfg.KeywordWeight != 0) {
		e.semanticWeight = cfg.SemanticWeight
		e.keywordWeight = cfg.KeywordWeight
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// documents makes sure the corpus is loaded. An unavailable corpus searches as empty.
func (e *Engine) documents(ctx context.Context) []models.Document {
	if err := e.corpus.Initialize(ctx); err != nil {
		e.logger.Warn("Corpus unavailable", zap.Error(err))
		return nil
	}
	return e.corpus.Documents()
}

// SemanticSearch ranks every document by cosine similarity to the query embedding.
func (e *Engine) SemanticSearch(ctx context.Context, query string, k int) []*models.SearchResult {
	if k <= 0 {
		return nil
	}
	docs := e.documents(ctx)
	if len(docs) == 0 {
		return nil
	}
	qv := e.provider.Embed(ctx, query)
	return e.semanticRank(docs, qv, k)
}

func (e *Engine) semanticRank(docs []models.Document, qv []float32, k int) []*models.SearchResult {
	results := make([]*models.SearchResult, 0, len(docs))
	for _, d := range docs {
		score := vector.CosineSimilarity(qv, d.Embedding)
		results = append(results, &models.SearchResult{
			ID:            d.ID,
			Content:       d.Content,
			Score:         score,
			SemanticScore: score,
			Metadata:      d.Metadata,
		})
	}
	return topK(results, k)
}

// KeywordSearch ranks documents by additive keyword score and drops non-matching ones.
func (e *Engine) KeywordSearch(ctx context.Context, query string, k int) []*models.SearchResult {
	if k <= 0 {
		return nil
	}
	return e.keywordRank(e.documents(ctx), query, k)
}

func (e *Engine) keywordRank(docs []models.Document, query string, k int) []*models.SearchResult {
	m := newKeywordMatcher(query)
	var results []*models.SearchResult
	for _, d := range docs {
		score := m.score(d)
		if score <= 0 {
			continue
		}
		results = append(results, &models.SearchResult{
			ID:           d.ID,
			Content:      d.Content,
			Score:        score,
			KeywordScore: score,
			Metadata:     d.Metadata,
		})
	}
	return topK(results, k)
}

// topK sorts by score descending (ties by ID), truncates to k and assigns ranks.
func topK(results []*models.SearchResult, k int) []*models.SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	for i, r := range results {
		r.Rank = i + 1
	}
	return results
}

// HybridSearch fuses the semantic and keyword rankings. Each side contributes 2k
// candidates, rank-normalized to [0,1], so combined scores also lie in [0,1].
func (e *Engine) HybridSearch(ctx context.Context, query string, k int) []*models.SearchResult {
	if k <= 0 {
		return nil
	}
	docs := e.documents(ctx)
	if len(docs) == 0 {
		return nil
	}

	var (
		semanticResults []*models.SearchResult
		keywordResults  []*models.SearchResult
		wg              sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		semanticResults = e.semanticRank(docs, e.provider.Embed(ctx, query), 2*k)
	}()
	go func() {
		defer wg.Done()
		keywordResults = e.keywordRank(docs, query, 2*k)
	}()
	wg.Wait()

	byID := make(map[string]*models.SearchResult, len(semanticResults)+len(keywordResults))
	for _, r := range semanticResults {
		byID[r.ID] = r
	}
	for _, r := range keywordResults {
		byID[r.ID] = r
	}

	fused := Fuse(RankNormalize(semanticResults), RankNormalize(keywordResults), e.semanticWeight, e.keywordWeight)
	if len(fused) > k {
		fused = fused[:k]
	}
	results := make([]*models.SearchResult, 0, len(fused))
	for i, f := range fused {
		src := byID[f.DocumentID]
		results = append(results, &models.SearchResult{
			ID:            f.DocumentID,
			Content:       src.Content,
			Score:         f.Score,
			SemanticScore: f.SemanticScore,
			KeywordScore:  f.KeywordScore,
			Metadata:      src.Metadata,
			Rank:          i + 1,
		})
	}
	return results
}

// RelevantContext formats the top hybrid hits as numbered, score-annotated lines.
// It returns NoContextFound instead of an empty string.
func (e *Engine) RelevantContext(ctx context.Context, query string, maxResults int) string {
	results := e.HybridSearch(ctx, query, maxResults)
	if len(results) == 0 {
		return NoContextFound
	}
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "%d. [%.2f] %s", i+1, r.Score, r.Content)
	}
	return sb.String()
}

// Search runs the ranking selected by query.Mode.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	var results []*models.SearchResult
	switch query.Mode {
	case models.SearchModeSemantic:
		results = e.SemanticSearch(ctx, query.Query, query.Limit)
	case models.SearchModeKeyword:
		results = e.KeywordSearch(ctx, query.Query, query.Limit)
	default:
		results = e.HybridSearch(ctx, query.Query, query.Limit)
	}
	if results == nil {
		results = []*models.SearchResult{}
	}

	e.logger.Debug("Search completed",
		zap.String("query", query.Query),
		zap.String("mode", string(query.Mode)),
		zap.Int("results", len(results)))

	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		Mode:      query.Mode,
		QueryTime: time.Since(startTime).Milliseconds(),
		Query:     query.Query,
	}, nil
}
