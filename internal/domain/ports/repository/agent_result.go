package repository

import (
	"context"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
)

type AgentResultRepository interface {
	// Save writes a result exactly once; results are immutable afterwards.
	Save(ctx context.Context, tx Tx, result *model.AgentResult) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.AgentResult, error)
	FindByJobID(ctx context.Context, tx Tx, jobID string) (*model.AgentResult, error)
}
