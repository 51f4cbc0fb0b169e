package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RemoteConfig configures an OpenAI-compatible embeddings endpoint.
type RemoteConfig struct {
	BaseURL    string
	Model      string
	APIKey     string
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
}

// RemoteEmbedder calls POST {BaseURL}/embeddings.
type RemoteEmbedder struct {
	cfg        RemoteConfig
	httpClient *http.Client
	// initialInterval is the first retry delay.
	initialInterval time.Duration
}

// NewRemoteEmbedder creates a client for the configured endpoint.
func NewRemoteEmbedder(cfg RemoteConfig) *RemoteEmbedder {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &RemoteEmbedder{
		cfg:             cfg,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		initialInterval: 200 * time.Millisecond,
	}
}

type embeddingsRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed returns the embedding for a single text.
func (r *RemoteEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := r.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in one request, retrying transient failures with exponential backoff.
// Client errors other than 429 and dimension mismatches are not retried.
func (r *RemoteEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if r.cfg.APIKey == "" || r.cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(embeddingsRequest{Input: texts, Model: r.cfg.Model, Dimensions: r.cfg.Dimensions})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxElapsedTime = r.cfg.Timeout
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.MaxRetries)), ctx)

	return backoff.RetryWithData(func() ([][]float32, error) {
		return r.call(ctx, body, len(texts))
	}, policy)
}

func (r *RemoteEmbedder) call(ctx context.Context, body []byte, n int) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		apiErr := fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(apiErr)
		}
		return nil, apiErr
	}

	var apiResp embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if len(apiResp.Data) != n {
		return nil, backoff.Permanent(fmt.Errorf("expected %d embeddings, got %d", n, len(apiResp.Data)))
	}

	sort.Slice(apiResp.Data, func(i, j int) bool { return apiResp.Data[i].Index < apiResp.Data[j].Index })
	out := make([][]float32, n)
	for i, d := range apiResp.Data {
		if len(d.Embedding) != r.cfg.Dimensions {
			return nil, backoff.Permanent(fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(d.Embedding), r.cfg.Dimensions))
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// Dimensions returns the requested embedding dimension.
func (r *RemoteEmbedder) Dimensions() int {
	return r.cfg.Dimensions
}

// Fingerprint identifies the remote model and dimension.
func (r *RemoteEmbedder) Fingerprint() string {
	return fmt.Sprintf("remote:%s:%d", r.cfg.Model, r.cfg.Dimensions)
}

// Close releases idle connections.
func (r *RemoteEmbedder) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}
