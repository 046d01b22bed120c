// File: internal/usecase/executor.go
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/adapter"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/metrics"
)

// Per-stage bound on one provider call.
const stageTimeout = 30 * time.Second

// runStages interprets the pipeline's stage list in order. Every stage's
// input is a deterministic function of the request input and the merged
// output so far, so execution is strictly sequential.
//
// A parse failure on a stage with a fallback substitutes the fallback and
// keeps going; any provider error aborts the run.
func (u *agentUC) runStages(ctx context.Context, input model.AgentInput, pl model.Pipeline) (map[string]any, int, error) {
	acc := make(map[string]any)
	tokens := 0

	for _, st := range pl.Stages {
		stageCtx, cancel := context.WithTimeout(ctx, stageTimeout)
		start := time.Now()

		var err error
		switch st.Kind {
		case model.StageKindImage:
			err = u.runImageStage(stageCtx, st, input, acc)
		default:
			var used int
			used, err = u.runTextStage(stageCtx, st, input, acc)
			tokens += used
		}
		cancel()

		latencyMs := int(time.Since(start) / time.Millisecond)
		metrics.ObserveStageLatency(pl.Name, st.Role, latencyMs, err == nil)
		if err != nil {
			return nil, 0, fmt.Errorf("stage %s: %w", st.Role, err)
		}
	}
	return acc, tokens, nil
}

func (u *agentUC) runTextStage(ctx context.Context, st model.Stage, input model.AgentInput, acc map[string]any) (int, error) {
	msgs := []adapter.Message{
		{Role: "system", Content: st.Persona},
		{Role: "user", Content: st.BuildInput(input, acc)},
	}

	raw, usage, err := u.ai.CompleteJSON(ctx, u.modelName, msgs)
	if err != nil {
		return 0, err
	}
	metrics.ObserveStageUsage(u.provider, u.modelName,
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens,
		int64(float64(usage.TotalTokens)*pricePerTokenUSD*1e6))

	out := parseStageOutput(raw)
	if out == nil {
		if st.Fallback == nil {
			return usage.TotalTokens, fmt.Errorf("unparseable response with no fallback")
		}
		out = st.Fallback(raw)
	}
	mergeStageOutput(acc, out, st)
	return usage.TotalTokens, nil
}

func (u *agentUC) runImageStage(ctx context.Context, st model.Stage, input model.AgentInput, acc map[string]any) error {
	url, err := u.ai.GenerateImage(ctx, st.BuildInput(input, acc))
	if err != nil {
		return err
	}
	key := st.ImageKey
	if key == "" {
		key = "image_url"
	}
	mergeStageOutput(acc, map[string]any{key: url}, st)
	return nil
}

// parseStageOutput returns nil when the raw text is not a JSON object.
func parseStageOutput(raw string) map[string]any {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// mergeStageOutput folds one stage's output into the accumulator:
// renames first, then "first producer wins" except for keys the stage
// explicitly overwrites, then superseded keys are dropped.
func mergeStageOutput(acc map[string]any, out map[string]any, st model.Stage) {
	for k, v := range out {
		if renamed, ok := st.Renames[k]; ok {
			k = renamed
		}
		if _, exists := acc[k]; exists && !contains(st.Overwrites, k) {
			continue
		}
		acc[k] = v
	}
	for _, k := range st.Drops {
		delete(acc, k)
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
