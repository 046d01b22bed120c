package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIServiceAdapter is the port for LLM calls made by pipeline stages.
type AIServiceAdapter interface {
	// CompleteJSON runs a chat completion constrained to strict JSON output
	// and returns the raw assistant text plus provider-reported usage.
	CompleteJSON(ctx context.Context, model string, messages []Message) (string, Usage, error)

	// GenerateImage renders a prompt and returns an image URL or identifier.
	GenerateImage(ctx context.Context, prompt string) (string, error)

	// CountTokens must return prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)
}
