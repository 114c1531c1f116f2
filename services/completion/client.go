package completion

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

// Client calls the OpenAI chat completions API. Completion calls are not
// retried; only the embedding and search hot paths carry retry policy.
type Client struct {
	config     config.OpenAIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new chat completions client
func NewClient(cfg config.OpenAIConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// ChatCompletion sends the conversation to the model and returns a tagged
// result: either an assistant reply or a tool invocation request.
func (c *Client) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if len(req.Messages) == 0 {
		return nil, services.WrapError(services.ErrorTypeValidation, "chat completion", fmt.Errorf("messages cannot be empty"))
	}

	wireReq := chatRequest{
		Model:    c.config.CompletionModel,
		Messages: make([]chatMessage, len(req.Messages)),
	}
	for i, m := range req.Messages {
		wireReq.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	if req.MaxTokens > 0 {
		wireReq.MaxTokens = &req.MaxTokens
	}
	for _, tool := range req.Tools {
		wireReq.Tools = append(wireReq.Tools, wireTool{
			Type: "function",
			Function: wireFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	reqBody, err := json.Marshal(wireReq)
	if err != nil {
		return nil, services.WrapInternal("marshal chat request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, services.WrapInternal("create chat request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.WrapError(services.ErrorTypeTimeout, "chat completion timed out", err)
		}
		return nil, services.WrapExternal("chat completion request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, services.WrapExternal("read chat completion response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var errResp apiErrorResponse
		msg := fmt.Sprintf("completion service returned %d", httpResp.StatusCode)
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return nil, services.NewDomainError(services.ErrorTypeExternal, msg, nil).
			WithDetail("status_code", httpResp.StatusCode)
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, services.WrapExternal("unmarshal chat completion response", err)
	}
	if len(resp.Choices) == 0 {
		return nil, services.WrapExternal("chat completion returned no choices", nil)
	}

	result := toResult(resp.Choices[0].Message)
	c.logger.Debug("chat completion finished",
		zap.String("kind", string(result.Kind)),
		zap.Duration("latency", time.Since(start)))
	return result, nil
}

// toResult maps the wire message onto the tagged variant. A message that
// carries tool calls is a tool invocation regardless of any content text.
func toResult(msg responseMessage) *ChatResult {
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		return &ChatResult{
			Kind: KindToolCall,
			ToolCall: &ToolInvocation{
				Name:      call.Function.Name,
				Arguments: json.RawMessage(call.Function.Arguments),
			},
		}
	}
	return &ChatResult{
		Kind:  KindReply,
		Reply: msg.Content,
	}
}
