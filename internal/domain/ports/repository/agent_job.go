package repository

import (
	"context"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
)

type AgentJobRepository interface {
	Save(ctx context.Context, tx Tx, job *model.AgentJob) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.AgentJob, error)
	// FetchAndMarkRunning atomically claims the oldest queued job and moves it
	// to 'running' so no other worker picks it up.
	FetchAndMarkRunning(ctx context.Context) (*model.AgentJob, error)
}
