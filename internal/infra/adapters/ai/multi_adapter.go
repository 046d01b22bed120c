// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*MultiAdapter)(nil)

// MultiAdapter routes text calls and image calls to different providers,
// e.g. Gemini for completions with OpenAI handling the image stage.
type MultiAdapter struct {
	text  adapter.AIServiceAdapter
	image adapter.AIServiceAdapter
}

func NewMultiAdapter(text, image adapter.AIServiceAdapter) *MultiAdapter {
	return &MultiAdapter{text: text, image: image}
}

func (m *MultiAdapter) CompleteJSON(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	return m.text.CompleteJSON(ctx, model, messages)
}

func (m *MultiAdapter) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return m.image.GenerateImage(ctx, prompt)
}

func (m *MultiAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return m.text.CountTokens(ctx, model, messages)
}
