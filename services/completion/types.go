package completion

import "encoding/json"

// Message is a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a capability the model may request
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatRequest is a provider-agnostic chat completion request
type ChatRequest struct {
	Messages  []Message
	MaxTokens int
	Tools     []Tool
}

// ResultKind discriminates the variants of a ChatResult
type ResultKind string

const (
	// KindReply is a plain assistant text reply
	KindReply ResultKind = "reply"
	// KindToolCall is a request from the model to invoke a named capability
	KindToolCall ResultKind = "tool_call"
)

// ChatResult is a tagged variant: either an assistant reply or a tool
// invocation request. Exactly one of Reply/ToolCall is meaningful,
// selected by Kind.
type ChatResult struct {
	Kind     ResultKind
	Reply    string
	ToolCall *ToolInvocation
}

// ToolInvocation carries a model-requested capability call
type ToolInvocation struct {
	Name      string
	Arguments json.RawMessage
}

// Wire types (OpenAI chat completions)

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens *int          `json:"max_tokens,omitempty"`
	Tools     []wireTool    `json:"tools,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int             `json:"index"`
	Message      responseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

type responseMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
