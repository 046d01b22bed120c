// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)

// GeminiAdapter implements the text side of the port using the official SDK.
// It has no image endpoint; wire it together with an image-capable adapter
// through NewMultiAdapter when a pipeline includes an image stage.
type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
	maxOut       int32
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string, maxOut int32) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, domain.ErrMissingCredential
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.0-flash"
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel, maxOut: maxOut}, nil
}

func (g *GeminiAdapter) CompleteJSON(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	contents, system := toGenAIHistory(messages)
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  g.maxOut,
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelOrDefault(model, g.defaultModel), contents, cfg)
	if err != nil {
		return "", adapter.Usage{}, err
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		text = resp.Candidates[0].Content.Parts[0].Text
	}
	u := adapter.Usage{}
	if resp != nil && resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return text, u, nil
}

func (g *GeminiAdapter) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", domain.ErrImageUnsupported
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	contents, _ := toGenAIHistory(messages)
	resp, err := g.client.Models.CountTokens(ctx, modelOrDefault(model, g.defaultModel), contents, nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

// toGenAIHistory splits out the system instruction (Gemini takes it as
// config, not a message) and converts the rest.
func toGenAIHistory(msgs []adapter.Message) ([]*genai.Content, string) {
	out := make([]*genai.Content, 0, len(msgs))
	system := ""
	for _, m := range msgs {
		role := genai.RoleUser
		switch strings.ToLower(m.Role) {
		case "assistant", "model":
			role = genai.RoleModel
		case "system":
			system = m.Content
			continue
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out, system
}

func modelOrDefault(model, def string) string {
	if model == "" {
		return def
	}
	return model
}
