package embedding

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/stockwise/internal/config"
)

// ChunkSize is the number of texts sent per remote request.
const ChunkSize = 10

// Provider is the embedding strategy used by the whole engine. It never fails: when the
// remote service is unavailable it answers with the local embedder of the same dimension.
type Provider struct {
	remote    *RemoteEmbedder
	local     *LocalEmbedder
	cache     *EmbeddingCache
	limiter   *rate.Limiter
	chunkSize int
	logger    *zap.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the logger for fallback warnings.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRemote forces the remote strategy with the given client.
func WithRemote(r *RemoteEmbedder) ProviderOption {
	return func(p *Provider) {
		p.remote = r
	}
}

// NewProvider selects the remote strategy when cfg enables it, otherwise the local one.
// Both strategies share cfg.Dimensions.
func NewProvider(cfg config.EmbeddingConfig, opts ...ProviderOption) *Provider {
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}
	p := &Provider{
		local:     NewLocalEmbedder(dims),
		cache:     NewEmbeddingCache(cfg.CacheSize),
		limiter:   rate.NewLimiter(rate.Inf, 1),
		chunkSize: ChunkSize,
		logger:    zap.NewNop(),
	}
	if cfg.BatchSize > 0 {
		p.chunkSize = cfg.BatchSize
	}
	if cfg.BatchDelay > 0 {
		p.limiter = rate.NewLimiter(rate.Every(cfg.BatchDelay), 1)
	}
	if cfg.RemoteEnabled() {
		p.remote = NewRemoteEmbedder(RemoteConfig{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			APIKey:     cfg.APIKey,
			Dimensions: dims,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewLocalProvider returns a Provider that only uses the local embedder.
func NewLocalProvider(dimensions int) *Provider {
	return NewProvider(config.EmbeddingConfig{Provider: "local", Dimensions: dimensions})
}

// Remote reports whether the remote strategy is active.
func (p *Provider) Remote() bool {
	return p.remote != nil
}

// Dimensions returns D, shared by both strategies.
func (p *Provider) Dimensions() int {
	return p.local.Dimensions()
}

// Fingerprint identifies the active strategy, its model and dimension. Stored vectors
// produced under a different fingerprint must not be compared with new ones.
func (p *Provider) Fingerprint() string {
	if p.remote != nil {
		return p.remote.Fingerprint()
	}
	return p.local.Fingerprint()
}

// Embed returns the embedding of text.
func (p *Provider) Embed(ctx context.Context, text string) []float32 {
	if p.remote == nil {
		return p.local.Vector(text)
	}
	if v, ok := p.cache.Get(text); ok {
		return v
	}
	v, err := p.remote.Embed(ctx, text)
	if err != nil {
		p.logger.Warn("Remote embedding failed, using local fallback", zap.Error(err))
		return p.local.Vector(text)
	}
	p.cache.Set(text, v)
	return v
}

// EmbedBatch returns one embedding per text, in order. Remote requests are sent in chunks
// paced by the configured batch delay; a failed chunk falls back to local vectors.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	if p.remote == nil {
		for i, text := range texts {
			out[i] = p.local.Vector(text)
		}
		return out
	}

	for start := 0; start < len(texts); start += p.chunkSize {
		end := min(start+p.chunkSize, len(texts))
		p.embedChunk(ctx, texts[start:end], out[start:end])
	}
	return out
}

func (p *Provider) embedChunk(ctx context.Context, texts []string, out [][]float32) {
	var missing []int
	for i, text := range texts {
		if v, ok := p.cache.Get(text); ok {
			out[i] = v
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}

	started := time.Now()
	vectors, err := p.fetch(ctx, batch)
	if err != nil {
		p.logger.Warn("Remote batch embedding failed, using local fallback",
			zap.Int("texts", len(batch)), zap.Error(err))
		for _, i := range missing {
			out[i] = p.local.Vector(texts[i])
		}
		return
	}
	p.logger.Debug("Embedded batch remotely",
		zap.Int("texts", len(batch)), zap.Duration("took", time.Since(started)))
	for j, i := range missing {
		out[i] = vectors[j]
		p.cache.Set(texts[i], vectors[j])
	}
}

func (p *Provider) fetch(ctx context.Context, batch []string) ([][]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.remote.EmbedBatch(ctx, batch)
}

// Close releases the remote client.
func (p *Provider) Close() error {
	if p.remote != nil {
		return p.remote.Close()
	}
	return nil
}
