package model

// StageKind distinguishes text-completion stages from image-generation stages.
type StageKind string

const (
	StageKindText  StageKind = "text"
	StageKindImage StageKind = "image"
)

// Stage is one step of an orchestration pipeline. Pipelines are data: an
// ordered stage list interpreted by the orchestrator, so new variants are
// expressed as new lists rather than new call chains.
type Stage struct {
	// Role labels the stage in logs and metrics ("strategist", "copywriter", ...).
	Role string

	// Persona is the fixed system instruction for text stages.
	Persona string

	Kind StageKind

	// BuildInput derives the stage's user message (or image prompt) from the
	// original request input and the accumulated output of prior stages.
	BuildInput func(input AgentInput, acc map[string]any) string

	// Fallback converts an unparseable raw response into the stage's expected
	// shape. Stages without a fallback abort the run on parse failure.
	Fallback func(raw string) map[string]any

	// ImageKey is the merged-output key for an image stage's URL.
	ImageKey string

	// Renames maps a stage output key to the key it lands under in the merged
	// result (e.g. the editor's "final_thread" becomes "thread").
	Renames map[string]string

	// Overwrites lists merged keys this stage intentionally replaces
	// ("last stage wins"); every other key keeps its first producer.
	Overwrites []string

	// Drops removes superseded keys from the merged result after this stage
	// (e.g. the copywriter's "thread_draft" once the editor has rewritten it).
	Drops []string
}

// Pipeline is a named, ordered stage list.
type Pipeline struct {
	Name   string
	Stages []Stage
}
