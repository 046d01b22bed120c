// File: internal/usecase/executor_test.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
)

func TestMergeStageOutputFirstProducerWins(t *testing.T) {
	acc := map[string]any{"title": "original"}
	mergeStageOutput(acc, map[string]any{"title": "rewrite", "extra": 1}, model.Stage{})

	if acc["title"] != "original" {
		t.Fatalf("existing key must keep its first producer, got %v", acc["title"])
	}
	if acc["extra"] != 1 {
		t.Fatalf("new keys must be added")
	}
}

func TestMergeStageOutputRenameOverwriteDrop(t *testing.T) {
	st := model.Stage{
		Renames:    map[string]string{"final_thread": "thread"},
		Overwrites: []string{"thread"},
		Drops:      []string{"thread_draft"},
	}
	acc := map[string]any{"thread": []any{"old"}, "thread_draft": []any{"d"}}
	mergeStageOutput(acc, map[string]any{"final_thread": []any{"new"}}, st)

	thread, ok := acc["thread"].([]any)
	if !ok || len(thread) != 1 || thread[0] != "new" {
		t.Fatalf("renamed key must overwrite: %+v", acc)
	}
	if _, ok := acc["thread_draft"]; ok {
		t.Fatalf("dropped key must be removed: %+v", acc)
	}
}

func TestViralPipelineMergesAllPersonas(t *testing.T) {
	ai := &scriptedAI{replies: []aiReply{
		{raw: `{"sentiment":"Excited"}`, usage: usage(10)},
		{raw: `{"strategy_brief":"ride the wave","seo_keywords":["defi"]}`, usage: usage(20)},
		{raw: `{"title":"GM","thread_draft":["draft hook","body"],"visual_concept":"neon city"}`, usage: usage(30)},
		{raw: `{"final_thread":["viral hook","body"]}`, usage: usage(15)},
		{raw: `{"hashtags":["#defi"]}`, usage: usage(5)},
	}}
	uc, _, _ := newTestUC(ai)

	out, err := uc.Run(context.Background(), "0xabc", PipelineViral, model.AgentInput{Prompt: "defi is back"}, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	output := out.Result.Output

	thread, ok := output["thread"].([]any)
	if !ok || len(thread) != 2 || thread[0] != "viral hook" {
		t.Fatalf("editor rewrite must win: %+v", output["thread"])
	}
	if _, ok := output["thread_draft"]; ok {
		t.Fatalf("draft must not survive the editor: %+v", output)
	}
	for _, key := range []string{"sentiment", "strategy_brief", "seo_keywords", "title", "hashtags", "visual_concept"} {
		if _, ok := output[key]; !ok {
			t.Fatalf("missing %q in merged output: %+v", key, output)
		}
	}
	if output["image_url"] != "https://img.example/out.png" {
		t.Fatalf("image stage output missing: %+v", output)
	}

	job, _ := uc.GetJob(context.Background(), "0xabc", out.JobID)
	if job.Tokens != 10+20+30+15+5 {
		t.Fatalf("tokens must sum text stages only, got %d", job.Tokens)
	}
	if len(ai.imageCalls) != 1 {
		t.Fatalf("image stage must run once, got %d", len(ai.imageCalls))
	}
}

func TestViralPipelineFallbackKeepsGoing(t *testing.T) {
	ai := &scriptedAI{replies: []aiReply{
		{raw: "I feel great about this", usage: usage(10)}, // unparseable -> sentiment fallback
		{raw: `{"strategy_brief":"b","seo_keywords":[]}`, usage: usage(10)},
		{raw: `{"title":"t","thread_draft":["d"],"visual_concept":"c"}`, usage: usage(10)},
		{raw: `{"final_thread":["d"]}`, usage: usage(10)},
		{raw: `{"hashtags":[]}`, usage: usage(10)},
	}}
	uc, _, _ := newTestUC(ai)

	out, err := uc.Run(context.Background(), "0xabc", PipelineViral, model.AgentInput{Prompt: "gm"}, false)
	if err != nil {
		t.Fatalf("a fallback stage must not abort the run: %v", err)
	}
	if out.Result.Output["sentiment"] != "Neutral" {
		t.Fatalf("want Neutral fallback, got %v", out.Result.Output["sentiment"])
	}
	if len(ai.textCalls) != 5 {
		t.Fatalf("all text stages must still run, got %d", len(ai.textCalls))
	}
}

func TestViralPipelineDefaultVisualConcept(t *testing.T) {
	ai := &scriptedAI{replies: []aiReply{
		{raw: `{"sentiment":"Neutral"}`, usage: usage(1)},
		{raw: `{"strategy_brief":"b","seo_keywords":[]}`, usage: usage(1)},
		{raw: `{"title":"t","thread_draft":["d"],"visual_concept":""}`, usage: usage(1)},
		{raw: `{"final_thread":["d"]}`, usage: usage(1)},
		{raw: `{"hashtags":[]}`, usage: usage(1)},
	}}
	uc, _, _ := newTestUC(ai)

	if _, err := uc.Run(context.Background(), "0xabc", PipelineViral, model.AgentInput{Prompt: "gm"}, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ai.imageCalls) != 1 {
		t.Fatalf("image stage must run")
	}
	if got := ai.imageCalls[0]; !strings.Contains(got, defaultVisualConcept) {
		t.Fatalf("empty concept must fall back to the default, got %q", got)
	}
}

func TestImageStageFailureFailsJob(t *testing.T) {
	ai := &scriptedAI{
		replies: []aiReply{
			{raw: `{"sentiment":"Neutral"}`, usage: usage(1)},
			{raw: `{"strategy_brief":"b","seo_keywords":[]}`, usage: usage(1)},
			{raw: `{"title":"t","thread_draft":["d"],"visual_concept":"c"}`, usage: usage(1)},
			{raw: `{"final_thread":["d"]}`, usage: usage(1)},
			{raw: `{"hashtags":[]}`, usage: usage(1)},
		},
		imageErr: domain.ErrImageUnsupported,
	}
	uc, jobs, results := newTestUC(ai)

	_, err := uc.Run(context.Background(), "0xabc", PipelineViral, model.AgentInput{Prompt: "gm"}, false)
	if !errors.Is(err, domain.ErrStageFailed) {
		t.Fatalf("want ErrStageFailed, got %v", err)
	}
	for _, j := range jobs.store {
		if j.Status != model.AgentJobStatusFailed {
			t.Fatalf("job must be failed, got %s", j.Status)
		}
	}
	if len(results.store) != 0 {
		t.Fatalf("no result may be written for a failed run")
	}
}
