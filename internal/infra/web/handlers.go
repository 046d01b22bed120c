package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/logging"
)

type runRequest struct {
	AgentType string `json:"agent_type"`
	Prompt    string `json:"prompt"`
	Tone      string `json:"tone"`
	Length    string `json:"length"`
	Async     bool   `json:"async"`
}

type resultResponse struct {
	ID        string         `json:"id"`
	JobID     string         `json:"job_id"`
	Output    map[string]any `json:"output"`
	Model     string         `json:"model"`
	CreatedAt time.Time      `json:"created_at"`
}

type jobResponse struct {
	ID        string    `json:"id"`
	AgentType string    `json:"agent_type"`
	Status    string    `json:"status"`
	Async     bool      `json:"async"`
	ResultID  string    `json:"result_id,omitempty"`
	Tokens    int       `json:"tokens"`
	USDCost   float64   `json:"usd_cost"`
	LastError string    `json:"last_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) handleAgentRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet := walletFrom(ctx)

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", "malformed request body")
		return
	}

	input := model.AgentInput{Prompt: req.Prompt, Tone: req.Tone, Length: req.Length}
	out, decision, err := s.facade.RunAgent(ctx, wallet, req.AgentType, input, req.Async)
	setQuotaHeaders(w, decision)
	if err != nil {
		s.writeRunError(w, r, err, decision)
		return
	}

	resp := struct {
		JobID  string          `json:"job_id"`
		Status string          `json:"status"`
		Result *resultResponse `json:"result,omitempty"`
	}{JobID: out.JobID, Status: string(out.Status)}
	if out.Result != nil {
		resp.Result = toResultResponse(out.Result)
	}

	status := http.StatusOK
	if out.Status == model.AgentJobStatusQueued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.facade.GetJob(r.Context(), walletFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{
		ID:        job.ID,
		AgentType: job.AgentType,
		Status:    string(job.Status),
		Async:     job.Async,
		ResultID:  job.ResultID,
		Tokens:    job.Tokens,
		USDCost:   job.USDCost,
		LastError: job.LastError,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.facade.GetResult(r.Context(), walletFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(res))
}

func toResultResponse(res *model.AgentResult) *resultResponse {
	return &resultResponse{
		ID:        res.ID,
		JobID:     res.JobID,
		Output:    res.Output,
		Model:     res.Model,
		CreatedAt: res.CreatedAt,
	}
}

// writeRunError maps run failures onto the HTTP surface. Provider error
// details never reach the client; they are logged and the caller gets a
// stable code instead.
func (s *Server) writeRunError(w http.ResponseWriter, r *http.Request, err error, decision model.QuotaDecision) {
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		retry := time.Until(time.UnixMilli(decision.ResetAt))
		if retry < 0 {
			retry = 0
		}
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retry.Seconds())+1))
		writeError(w, http.StatusTooManyRequests, "quota_exceeded", "request quota exhausted for this window")
	case errors.Is(err, domain.ErrQuotaUnavailable):
		writeError(w, http.StatusServiceUnavailable, "quota_unavailable", "quota backend unavailable, request denied")
	case errors.Is(err, domain.ErrMissingCredential):
		writeError(w, http.StatusServiceUnavailable, "ai_not_configured", "no AI provider is configured")
	case errors.Is(err, domain.ErrStageFailed):
		writeError(w, http.StatusBadGateway, "agent_failed", "agent pipeline failed; see the job record for details")
	default:
		s.writeDomainError(w, r, err)
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrAlphaDenied):
		writeError(w, http.StatusForbidden, "alpha_denied", "wallet is not on the alpha allowlist")
	case errors.Is(err, domain.ErrPromptTooLong):
		writeError(w, http.StatusBadRequest, "prompt_too_long", "prompt exceeds the maximum length")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid_argument", "invalid request")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no such resource")
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("unhandled handler error")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func setQuotaHeaders(w http.ResponseWriter, d model.QuotaDecision) {
	if d.Limit == 0 {
		return // no decision was made (e.g. auth failed first)
	}
	w.Header().Set("X-Quota-Limit", fmt.Sprintf("%d", d.Limit))
	w.Header().Set("X-Quota-Remaining", fmt.Sprintf("%d", d.Remaining))
	w.Header().Set("X-Quota-Reset", fmt.Sprintf("%d", d.ResetAt))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
