package llm

import "errors"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrTruncated is returned when the model stopped at the token limit, which
// leaves structured output unparseable.
var ErrTruncated = errors.New("completion truncated at token limit")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System and User build messages of the matching role.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }

// Request is a single chat completion request.
type Request struct {
	Messages []Message

	// JSON asks the model to answer with a single JSON object.
	JSON bool
}

type Response struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Usage counts tokens for one request/response pair.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}
