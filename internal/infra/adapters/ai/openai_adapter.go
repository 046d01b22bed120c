package ai

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/pkoukk/tiktoken-go"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.AIServiceAdapter on the official SDK:
// Chat Completions with a strict JSON response format for text stages,
// Images for the image stage.
type OpenAIAdapter struct {
	client      openai.Client
	model       string
	imageModel  string
	temperature float64
	maxTokens   int64
}

func NewOpenAIAdapter(apiKey, model, imageModel string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, domain.ErrMissingCredential
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if imageModel == "" {
		imageModel = "dall-e-3"
	}
	return &OpenAIAdapter{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			// A stage call that hangs is a hard stage failure, not a silent empty result.
			option.WithRequestTimeout(30*time.Second),
		),
		model:       model,
		imageModel:  imageModel,
		temperature: 0.7,
		maxTokens:   1500,
	}, nil
}

func (o *OpenAIAdapter) CompleteJSON(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	if model == "" {
		model = o.model
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(o.temperature),
		MaxTokens:   openai.Int(o.maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", adapter.Usage{}, err
	}
	if len(resp.Choices) == 0 {
		return "", adapter.Usage{}, errors.New("openai: no choice content")
	}

	usage := adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func (o *OpenAIAdapter) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:   openai.ImageModel(o.imageModel),
		Prompt:  prompt,
		N:       openai.Int(1),
		Size:    openai.ImageGenerateParamsSize1024x1024,
		Quality: openai.ImageGenerateParamsQualityStandard,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("openai: image response has no url")
	}
	return resp.Data[0].URL, nil
}

// CountTokens estimates prompt tokens locally with tiktoken; exact counts
// come back in usage after the call.
func (o *OpenAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	if model == "" {
		model = o.model
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, err
		}
	}
	total := 0
	for _, m := range messages {
		// ~4 tokens of per-message framing in the chat format
		total += 4 + len(enc.Encode(m.Content, nil, nil))
	}
	return total, nil
}

func toOpenAIMessages(messages []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
