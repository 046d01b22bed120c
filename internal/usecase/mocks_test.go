// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/adapter"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/repository"
)

func newNopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memJobRepo is a small in-memory implementation used by unit tests.
type memJobRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.AgentJob
	saveErr error // used by tests to simulate save failures
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.AgentJob)}
}

func (m *memJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.AgentJob) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AgentJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) FetchAndMarkRunning(ctx context.Context) (*model.AgentJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *model.AgentJob
	for _, j := range m.store {
		if j.Status != model.AgentJobStatusQueued {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	if err := oldest.TransitionTo(model.AgentJobStatusRunning); err != nil {
		return nil, err
	}
	cp := *oldest
	return &cp, nil
}

type memResultRepo struct {
	mu    sync.RWMutex
	store map[string]*model.AgentResult
}

func newMemResultRepo() *memResultRepo {
	return &memResultRepo{store: make(map[string]*model.AgentResult)}
}

func (m *memResultRepo) Save(ctx context.Context, tx repository.Tx, res *model.AgentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[res.ID]; ok {
		return domain.ErrOperationFailed
	}
	cp := *res
	m.store[res.ID] = &cp
	return nil
}

func (m *memResultRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AgentResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memResultRepo) FindByJobID(ctx context.Context, tx repository.Tx, jobID string) (*model.AgentResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.store {
		if r.JobID == jobID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// noopTM runs the callback without a real transaction.
type noopTM struct{}

func (noopTM) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

type aiReply struct {
	raw   string
	usage adapter.Usage
}

// scriptedAI returns canned replies in order and records what it was asked.
type scriptedAI struct {
	mu         sync.Mutex
	replies    []aiReply
	textErr    error
	imageURL   string
	imageErr   error
	tokenCount int // forced CountTokens result; 0 means the len/4 heuristic
	countErr   error

	textCalls  []string // user content per CompleteJSON call
	imageCalls []string
	countCalls int
}

func (s *scriptedAI) CompleteJSON(ctx context.Context, modelName string, msgs []adapter.Message) (string, adapter.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var user string
	for _, m := range msgs {
		if m.Role == "user" {
			user = m.Content
		}
	}
	s.textCalls = append(s.textCalls, user)
	if s.textErr != nil {
		return "", adapter.Usage{}, s.textErr
	}
	if len(s.replies) == 0 {
		return "{}", adapter.Usage{}, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.raw, r.usage, nil
}

func (s *scriptedAI) GenerateImage(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageCalls = append(s.imageCalls, prompt)
	if s.imageErr != nil {
		return "", s.imageErr
	}
	if s.imageURL == "" {
		return "https://img.example/out.png", nil
	}
	return s.imageURL, nil
}

func (s *scriptedAI) CountTokens(ctx context.Context, modelName string, msgs []adapter.Message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countCalls++
	if s.countErr != nil {
		return 0, s.countErr
	}
	if s.tokenCount > 0 {
		return s.tokenCount, nil
	}
	n := 0
	for _, m := range msgs {
		n += len(m.Content) / 4
	}
	return n, nil
}

func usage(total int) adapter.Usage {
	return adapter.Usage{PromptTokens: total / 2, CompletionTokens: total - total/2, TotalTokens: total}
}
