package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/diengg/diengg/config"
	"github.com/diengg/diengg/services"
	"go.uber.org/zap"
)

// Client generates embeddings through the OpenAI embeddings API.
// It keeps no state beyond the HTTP client; callers own retry-free usage,
// the client itself retries rate limits and 5xx responses with a bounded
// linear backoff.
type Client struct {
	config     config.OpenAIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new embeddings client
func NewClient(cfg config.OpenAIConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Dimension returns the configured embedding dimension
func (c *Client) Dimension() int {
	return c.config.EmbeddingDimension
}

// Embed generates the embedding vector for a single text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, services.WrapError(services.ErrorTypeValidation, "embed input cannot be empty", services.ErrEmptyText)
	}
	vectors, err := c.embed(ctx, []interface{}{text}, 1)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for a batch of texts, preserving input order
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, services.WrapError(services.ErrorTypeValidation, "embed batch cannot be empty", services.ErrEmptyText)
	}
	input := make([]interface{}, len(texts))
	for i, t := range texts {
		if t == "" {
			return nil, services.NewDomainError(services.ErrorTypeValidation, "embed batch contains an empty text", services.ErrEmptyText).
				WithDetail("index", i)
		}
		input[i] = t
	}
	return c.embed(ctx, input, len(texts))
}

func (c *Client) embed(ctx context.Context, input []interface{}, want int) ([][]float32, error) {
	reqBody, err := json.Marshal(embeddingRequest{
		Model: c.config.EmbeddingModel,
		Input: input,
	})
	if err != nil {
		return nil, services.WrapInternal("marshal embedding request", err)
	}

	respBody, err := c.doWithRetry(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	var resp embeddingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, services.WrapEmbedding("unmarshal embedding response", err)
	}
	if len(resp.Data) != want {
		return nil, services.NewDomainError(services.ErrorTypeEmbedding, "embedding count mismatch", nil).
			WithDetail("want", want).
			WithDetail("got", len(resp.Data))
	}

	// The API does not guarantee data ordering; index is authoritative.
	vectors := make([][]float32, want)
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= want {
			return nil, services.NewDomainError(services.ErrorTypeEmbedding, "embedding index out of range", nil).
				WithDetail("index", item.Index)
		}
		if len(item.Embedding) != c.config.EmbeddingDimension {
			return nil, services.NewDomainError(services.ErrorTypeEmbedding, "embedding dimension mismatch", nil).
				WithDetail("want", c.config.EmbeddingDimension).
				WithDetail("got", len(item.Embedding))
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// doWithRetry executes the embeddings request, retrying rate limits and
// server errors up to MaxRetries with linear backoff.
func (c *Client) doWithRetry(ctx context.Context, reqBody []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, timeoutOrCancel(ctx.Err())
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			c.logger.Debug("retrying embedding request", zap.Int("attempt", attempt))
		}

		body, retryable, err := c.doOnce(ctx, reqBody)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, reqBody []byte) (body []byte, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, false, services.WrapInternal("create embedding request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, false, timeoutOrCancel(err)
		}
		return nil, true, services.WrapEmbedding("embedding request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, false, services.WrapEmbedding("read embedding response", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusOK:
		return respBody, false, nil
	case httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500:
		return nil, true, apiError(httpResp.StatusCode, respBody)
	default:
		return nil, false, apiError(httpResp.StatusCode, respBody)
	}
}

func apiError(statusCode int, body []byte) error {
	var errResp apiErrorResponse
	msg := fmt.Sprintf("embedding service returned %d", statusCode)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}
	return services.NewDomainError(services.ErrorTypeEmbedding, msg, nil).
		WithDetail("status_code", statusCode)
}

func timeoutOrCancel(err error) error {
	return services.WrapError(services.ErrorTypeTimeout, "embedding request timed out", err)
}

// Wire types

type embeddingRequest struct {
	Model string        `json:"model"`
	Input []interface{} `json:"input"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
