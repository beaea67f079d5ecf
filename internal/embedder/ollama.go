package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	cerrors "github.com/Aman-CERP/catalogsearch/internal/errors"
)

// OllamaConfig configures an Ollama-backed Embedder.
type OllamaConfig struct {
	// Host is the Ollama base URL, e.g. "http://localhost:11434".
	Host string
	// Model is passed as model_name in spec's Configuration (§6).
	Model string
	// Dimensions is embedding_dim (§6); must match the model.
	Dimensions int
	// Timeout bounds a single embed request.
	Timeout time.Duration
	// PoolSize bounds idle HTTP connections kept open to Ollama.
	PoolSize int
	// SkipHealthCheck skips the startup connectivity probe, for tests.
	SkipHealthCheck bool
	// Retry configures the backoff applied to failed Embed attempts. Every
	// failure is retried, 4xx responses included. A zero value is replaced
	// by defaultEmbedRetry.
	Retry cerrors.RetryConfig
}

const (
	defaultOllamaHost = "http://localhost:11434"
	defaultTimeout    = 30 * time.Second
	defaultPoolSize   = 4
)

// defaultEmbedRetry backs off quickly relative to cerrors.DefaultRetryConfig:
// the waits between attempts add at most 150ms to a failing embed call,
// where DefaultRetryConfig's would add 7s. Each attempt is still bounded
// by its own request timeout.
func defaultEmbedRetry() cerrors.RetryConfig {
	return cerrors.RetryConfig{
		MaxRetries:   2,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     400 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Ollama generates embeddings via Ollama's HTTP embeddings API. It is
// the "real" Embedder implementation — the Static embedder stands in
// for it in tests and offline operation.
type Ollama struct {
	client *http.Client
	cfg    OllamaConfig

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*Ollama)(nil)

// NewOllama constructs an Ollama embedder. Unless SkipHealthCheck is
// set, it probes the server once at construction so Available() starts
// from a known state.
func NewOllama(ctx context.Context, cfg OllamaConfig) (*Ollama, error) {
	if cfg.Host == "" {
		cfg.Host = defaultOllamaHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = defaultPoolSize
	}
	if cfg.Dimensions <= 0 {
		return nil, cerrors.New(cerrors.ErrCodeConfigInvalid, "embedder: embedding_dim must be set", nil)
	}
	if cfg.Retry == (cerrors.RetryConfig{}) {
		cfg.Retry = defaultEmbedRetry()
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		IdleConnTimeout:     30 * time.Second,
	}
	e := &Ollama{
		client: &http.Client{Transport: transport},
		cfg:    cfg,
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		if !e.ping(checkCtx) {
			return nil, cerrors.New(cerrors.ErrCodeNetworkUnavailable, "embedder: ollama host unreachable", nil).
				WithDetail("host", cfg.Host)
		}
	}

	return e, nil
}

func (e *Ollama) ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed requests a single embedding from Ollama, retrying failed attempts
// with backoff per e.cfg.Retry. Failures are not classified: a 4xx
// response is retried just like a connection error or a 5xx response.
func (e *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, cerrors.New(cerrors.ErrCodeInternal, "embedder: closed", nil)
	}

	return cerrors.RetryWithResult(ctx, e.cfg.Retry, func() ([]float32, error) {
		return e.doEmbed(ctx, text)
	})
}

func (e *Ollama) doEmbed(ctx context.Context, text string) ([]float32, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.cfg.Model, Input: text})
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, e.cfg.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeNetworkTimeout, fmt.Sprintf("embedder: ollama request failed: %v", err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		payload, _ := io.ReadAll(resp.Body)
		return nil, cerrors.New(cerrors.ErrCodeNetworkUnavailable, fmt.Sprintf("embedder: ollama returned %d: %s", resp.StatusCode, payload), nil)
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return nil, cerrors.WithCause(cerrors.ErrInvalidInput, nil).
			WithDetail("ollama_status", fmt.Sprintf("%d", resp.StatusCode)).
			WithDetail("ollama_body", string(payload))
	}

	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeFileCorrupt, err)
	}
	if len(parsed.Embeddings) == 0 {
		return nil, cerrors.New(cerrors.ErrCodeEmbeddingFailed, "embedder: ollama returned no embeddings", nil)
	}
	return parsed.Embeddings[0], nil
}

// EmbedBatch embeds each text individually; Ollama's embed endpoint
// accepts one input per call in the configuration this embedder targets.
func (e *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the configured embedding_dim.
func (e *Ollama) Dimensions() int { return e.cfg.Dimensions }

// ModelName returns the configured model_name.
func (e *Ollama) ModelName() string { return e.cfg.Model }

// Available pings the Ollama host.
func (e *Ollama) Available(ctx context.Context) bool {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return false
	}
	return e.ping(ctx)
}

// Close marks the embedder unavailable and releases pooled connections.
func (e *Ollama) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if t, ok := e.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}
