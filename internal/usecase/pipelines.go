// File: internal/usecase/pipelines.go
package usecase

import (
	"encoding/json"
	"fmt"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
)

// Pipeline names accepted by AgentUseCase.Run.
const (
	PipelineContent = "content"
	PipelineViral   = "viral"
)

const defaultVisualConcept = "A futuristic abstract image representing artificial intelligence."

// BuiltinPipelines returns the two shipped stage lists. Pipelines are data:
// adding a variant means adding a list here, not another call chain.
func BuiltinPipelines() map[string]model.Pipeline {
	return map[string]model.Pipeline{
		PipelineContent: contentPipeline(),
		PipelineViral:   viralPipeline(),
	}
}

// contentPipeline is the single-stage variant: one completion that turns the
// prompt (plus tone/length hints) into a title and a short thread.
func contentPipeline() model.Pipeline {
	return model.Pipeline{
		Name: PipelineContent,
		Stages: []model.Stage{
			{
				Role: "copywriter",
				Persona: "You are an expert crypto marketing copywriter. " +
					"Return strict JSON with keys: title, thread[].",
				Kind: model.StageKindText,
				BuildInput: func(input model.AgentInput, _ map[string]any) string {
					prompt := input.Prompt
					if prompt == "" {
						prompt = "Write a short crypto thread."
					}
					tone := input.Tone
					if tone == "" {
						tone = "professional"
					}
					length := input.Length
					if length == "" {
						length = "short"
					}
					return fmt.Sprintf(
						"%s\n\nTone: %s. Length: %s.\nRespond in JSON only: {\"title\": \"...\", \"thread\": [\"...\",\"...\"]}",
						prompt, tone, length)
				},
				Fallback: func(raw string) map[string]any {
					return map[string]any{"title": "Generated Content", "thread": []any{raw}}
				},
			},
		},
	}
}

// viralPipeline is the six-persona variant. Each stage consumes the merged
// output of the stages before it; the editor's rewrite replaces the
// copywriter's draft, everything else keeps its first producer.
func viralPipeline() model.Pipeline {
	return model.Pipeline{
		Name: PipelineViral,
		Stages: []model.Stage{
			{
				Role: "empath",
				Persona: "You are Aura, The Empath. An AI expert in sentiment analysis. " +
					"Analyze the user's prompt and determine the sentiment (e.g., Positive, Negative, Neutral, Excited, Urgent). " +
					`Respond in strict JSON format: {"sentiment": "..."}`,
				Kind: model.StageKindText,
				BuildInput: func(input model.AgentInput, _ map[string]any) string {
					return input.Prompt
				},
				Fallback: func(raw string) map[string]any {
					return map[string]any{"sentiment": "Neutral"}
				},
			},
			{
				Role: "strategist",
				Persona: "You are Orion, The Strategist. A world-class SEO and market trend analyst. " +
					"Using the user's prompt and the detected sentiment, generate a strategic brief. " +
					`Respond in strict JSON format: {"strategy_brief": "...", "seo_keywords": ["..."]}`,
				Kind: model.StageKindText,
				BuildInput: func(input model.AgentInput, acc map[string]any) string {
					return fmt.Sprintf("Sentiment: %s. Prompt: %s", stringAt(acc, "sentiment"), input.Prompt)
				},
				Fallback: func(raw string) map[string]any {
					return map[string]any{"strategy_brief": raw, "seo_keywords": []any{}}
				},
			},
			{
				Role: "copywriter",
				Persona: "You are Echo, The Copywriter. A master viral content creator. " +
					"Write a compelling Twitter thread based on the provided strategy, matching the detected sentiment. " +
					`Create a "visual_concept" for an image. ` +
					`Respond in strict JSON format: {"title": "...", "thread_draft": ["..."], "visual_concept": "..."}`,
				Kind: model.StageKindText,
				BuildInput: func(input model.AgentInput, acc map[string]any) string {
					strategy := map[string]any{
						"strategy_brief": acc["strategy_brief"],
						"seo_keywords":   acc["seo_keywords"],
					}
					return fmt.Sprintf("Sentiment: %s. Strategy: %s", stringAt(acc, "sentiment"), mustJSON(strategy))
				},
				Fallback: func(raw string) map[string]any {
					return map[string]any{"title": "Generated Content", "thread_draft": []any{raw}, "visual_concept": ""}
				},
			},
			{
				Role: "editor",
				Persona: "You are Helios, The Editor. A specialist in creating viral hooks. " +
					"Review the provided thread draft and rewrite the first tweet to be more engaging and impactful. " +
					"The rest of the thread remains the same. " +
					`Respond in strict JSON format: {"final_thread": ["..."]}`,
				Kind: model.StageKindText,
				BuildInput: func(_ model.AgentInput, acc map[string]any) string {
					return fmt.Sprintf("Draft: %s", mustJSON(acc["thread_draft"]))
				},
				Fallback: func(raw string) map[string]any {
					return map[string]any{"final_thread": []any{raw}}
				},
				Renames:    map[string]string{"final_thread": "thread"},
				Overwrites: []string{"thread"},
				Drops:      []string{"thread_draft"},
			},
			{
				Role: "amplifier",
				Persona: "You are Cygnus, The Amplifier. A social media expert. " +
					"Analyze the final content and generate optimized hashtags. " +
					`Respond in strict JSON format: {"hashtags": ["..."]}`,
				Kind: model.StageKindText,
				BuildInput: func(_ model.AgentInput, acc map[string]any) string {
					return fmt.Sprintf("Content: %s", mustJSON(acc["thread"]))
				},
				Fallback: func(raw string) map[string]any {
					return map[string]any{"hashtags": []any{}}
				},
			},
			{
				Role: "visionary",
				Kind: model.StageKindImage,
				BuildInput: func(_ model.AgentInput, acc map[string]any) string {
					concept := stringAt(acc, "visual_concept")
					if concept == "" {
						concept = defaultVisualConcept
					}
					return fmt.Sprintf(
						"Create a visually stunning image based on this concept: %q Style: futuristic, digital art, high quality.",
						concept)
				},
				ImageKey: "image_url",
			},
		},
	}
}

func stringAt(acc map[string]any, key string) string {
	if v, ok := acc[key].(string); ok {
		return v
	}
	return ""
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
