package model

import "time"

// AgentResult is the merged output of one completed run. Immutable after
// creation; at most one per job.
type AgentResult struct {
	ID        string
	JobID     string
	Wallet    string
	Output    map[string]any
	Model     string
	CreatedAt time.Time
}

func NewAgentResult(id, jobID, wallet, modelName string, output map[string]any) *AgentResult {
	return &AgentResult{
		ID:        id,
		JobID:     jobID,
		Wallet:    wallet,
		Output:    output,
		Model:     modelName,
		CreatedAt: time.Now(),
	}
}
