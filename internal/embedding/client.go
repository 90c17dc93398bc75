// Package embedding talks to the external embedding service that turns paper
// titles and abstracts into dense vectors.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/citegraph/citation-graph-service/internal/config"
	"github.com/citegraph/citation-graph-service/internal/observability"
)

const maxResponseBytes = 10 << 20

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Client calls the embedding service. Embedding is best-effort: a disabled or
// failing service yields a nil vector and the paper is stored without one.
type Client struct {
	httpClient *http.Client
	baseURL    string
	enabled    bool
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an embedding client. metrics may be nil.
func NewClient(cfg config.EmbeddingConfig, logger zerolog.Logger, metrics *observability.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		enabled:    cfg.Enabled,
		logger:     logger.With().Str("component", "embedding").Logger(),
		metrics:    metrics,
	}
}

// Enabled reports whether the service is configured for use.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Embed returns the vector for the given text, or nil when the service is
// disabled or the text is empty.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.enabled || text == "" {
		return nil, nil
	}
	if c.metrics != nil {
		c.metrics.RecordEmbeddingRequest()
	}

	body, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("embedding: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("embedding: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("embedding: failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.recordFailure()
		return nil, fmt.Errorf("embedding: service returned status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("embedding: failed to unmarshal response: %w", err)
	}

	return parsed.Embedding, nil
}

// EmbedPaper builds the vector input from a title and abstract and swallows
// failures: ingestion never stalls on the embedding service.
func (c *Client) EmbedPaper(ctx context.Context, title, abstract string) []float32 {
	text := title
	if abstract != "" {
		text = title + "\n\n" + abstract
	}

	vector, err := c.Embed(ctx, text)
	if err != nil {
		c.logger.Warn().Err(err).Msg("embedding request failed, storing paper without vector")
		return nil
	}
	return vector
}

func (c *Client) recordFailure() {
	if c.metrics != nil {
		c.metrics.RecordEmbeddingRequestFailed()
	}
}
