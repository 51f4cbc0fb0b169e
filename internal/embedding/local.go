package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/stockwise/pkg/utils"
)

// domainKeywords bias local vectors toward stock-management vocabulary. The order is part
// of the vector layout; append only.
var domainKeywords = []string{
	"stock", "price", "supplier", "contact", "phone", "whatsapp", "email",
	"margin", "profit", "quantity", "expiry", "sales", "revenue", "inventory",
	"product", "category", "order",
}

const (
	runeWeight    = 1
	wordWeight    = 2
	keywordWeight = 3
)

// LocalEmbedder is a deterministic feature-hashing embedder. The same text always yields
// the same vector; it never touches the network or the clock.
type LocalEmbedder struct {
	dimensions int
}

// NewLocalEmbedder returns a local embedder producing vectors of the given dimension.
func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &LocalEmbedder{dimensions: dimensions}
}

// Vector computes the embedding of text.
func (e *LocalEmbedder) Vector(text string) []float32 {
	d := e.dimensions
	vec := make([]float32, d)
	lower := strings.ToLower(text)

	for _, r := range lower {
		vec[int(r)%d] += runeWeight
	}
	for _, w := range utils.Words(lower) {
		vec[utils.AbsMod(int64(utils.StableHash(w)), d)] += wordWeight
	}
	for i, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			vec[(i*7+3)%d] += keywordWeight
		}
	}

	utils.NormalizeL2(vec)
	return vec
}

// Embed returns the local embedding of text. The error is always nil.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.Vector(text), nil
}

// EmbedBatch embeds each text in order.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.Vector(text)
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *LocalEmbedder) Dimensions() int {
	return e.dimensions
}

// Fingerprint identifies the local strategy and its dimension.
func (e *LocalEmbedder) Fingerprint() string {
	return fmt.Sprintf("local:hash-v1:%d", e.dimensions)
}

// Close is a no-op.
func (e *LocalEmbedder) Close() error {
	return nil
}
