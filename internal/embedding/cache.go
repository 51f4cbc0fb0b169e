package embedding

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EmbeddingCache is an LRU cache for embeddings keyed by a hash of the text.
type EmbeddingCache struct {
	cache *lru.Cache[string, []float32]
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	if capacity <= 0 {
		capacity = 1000
	}
	cache, err := lru.New[string, []float32](capacity)
	if err != nil {
		cache, _ = lru.New[string, []float32](1000)
	}
	return &EmbeddingCache{cache: cache}
}

// Get returns a copy of the cached embedding for text if present.
func (c *EmbeddingCache) Get(text string) ([]float32, bool) {
	v, ok := c.cache.Get(hashText(text))
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Set stores the embedding for text, evicting the least recently used entry if at capacity.
func (c *EmbeddingCache) Set(text string, value []float32) {
	stored := make([]float32, len(value))
	copy(stored, value)
	c.cache.Add(hashText(text), stored)
}

// Len returns the number of cached embeddings.
func (c *EmbeddingCache) Len() int {
	return c.cache.Len()
}

// Purge removes all entries.
func (c *EmbeddingCache) Purge() {
	c.cache.Purge()
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
