package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/application"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/usecase"
)

const testWallet = "0xabc123"

func newTestServer(t *testing.T, agents *fakeAgents, enf *fakeEnforcer, gate *AlphaGate) (http.Handler, string) {
	t.Helper()
	if gate == nil {
		gate = NewAlphaGate(false, nil)
	}
	facade := application.NewAgentFacade(enf, agents, model.QuotaPolicy{Window: time.Hour, MaxRequests: 5})
	auth := NewAuthManager("test-secret", "siwe_jwt")
	srv := NewServer(0, facade, auth, gate, true, newNopLogger())

	token, err := auth.Mint(testWallet, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return srv.routes(), token
}

func doJSON(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRunRequiresAuth(t *testing.T) {
	h, _ := newTestServer(t, &fakeAgents{}, &fakeEnforcer{}, nil)

	rec := doJSON(h, http.MethodPost, "/api/v1/agent/run", "", `{"prompt":"gm"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestRunCookieAuth(t *testing.T) {
	agents := &fakeAgents{out: &usecase.RunOutput{JobID: "j1", Status: model.AgentJobStatusCompleted}}
	h, token := newTestServer(t, agents, &fakeEnforcer{decision: model.QuotaDecision{Allowed: true, Limit: 5, Remaining: 4}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/run", strings.NewReader(`{"prompt":"gm"}`))
	req.AddCookie(&http.Cookie{Name: "siwe_jwt", Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 via cookie auth, got %d: %s", rec.Code, rec.Body.String())
	}
	if agents.lastWallet != testWallet {
		t.Fatalf("wallet must come from the token, got %q", agents.lastWallet)
	}
}

func TestRunSyncOK(t *testing.T) {
	agents := &fakeAgents{out: &usecase.RunOutput{
		JobID:  "j1",
		Status: model.AgentJobStatusCompleted,
		Result: model.NewAgentResult("r1", "j1", testWallet, "test-model", map[string]any{"title": "GM"}),
	}}
	enf := &fakeEnforcer{decision: model.QuotaDecision{Allowed: true, Limit: 5, Remaining: 4, ResetAt: 7_200_000}}
	h, token := newTestServer(t, agents, enf, nil)

	rec := doJSON(h, http.MethodPost, "/api/v1/agent/run", token, `{"agent_type":"viral","prompt":"gm"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if agents.lastPipeline != "viral" {
		t.Fatalf("pipeline not forwarded, got %q", agents.lastPipeline)
	}
	if got := rec.Header().Get("X-Quota-Remaining"); got != "4" {
		t.Fatalf("quota headers must be set, got remaining %q", got)
	}

	var body struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
		Result *struct {
			Output map[string]any `json:"output"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.JobID != "j1" || body.Status != "completed" || body.Result == nil || body.Result.Output["title"] != "GM" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRunAsyncAccepted(t *testing.T) {
	agents := &fakeAgents{out: &usecase.RunOutput{JobID: "j1", Status: model.AgentJobStatusQueued}}
	enf := &fakeEnforcer{decision: model.QuotaDecision{Allowed: true, Limit: 5, Remaining: 1}}
	h, token := newTestServer(t, agents, enf, nil)

	rec := doJSON(h, http.MethodPost, "/api/v1/agent/run", token, `{"prompt":"gm","async":true}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("queued submission must return 202, got %d", rec.Code)
	}
	if !agents.lastAsync {
		t.Fatalf("async flag not forwarded")
	}
}

func TestRunQuotaExceeded(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Minute).UnixMilli()
	enf := &fakeEnforcer{decision: model.QuotaDecision{Allowed: false, Limit: 5, Remaining: 0, ResetAt: resetAt}}
	h, token := newTestServer(t, &fakeAgents{}, enf, nil)

	rec := doJSON(h, http.MethodPost, "/api/v1/agent/run", token, `{"prompt":"gm"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("429 must carry Retry-After")
	}
	if rec.Header().Get("X-Quota-Remaining") != "0" {
		t.Fatalf("denied response must show zero remaining")
	}
}

func TestRunQuotaBackendDown(t *testing.T) {
	enf := &fakeEnforcer{err: domain.ErrQuotaUnavailable}
	h, token := newTestServer(t, &fakeAgents{}, enf, nil)

	rec := doJSON(h, http.MethodPost, "/api/v1/agent/run", token, `{"prompt":"gm"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("fail-closed outage must return 503, got %d", rec.Code)
	}
}

func TestRunValidationErrors(t *testing.T) {
	enf := &fakeEnforcer{decision: model.QuotaDecision{Allowed: true, Limit: 5, Remaining: 4}}

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", domain.ErrInvalidArgument, http.StatusBadRequest},
		{"too long", domain.ErrPromptTooLong, http.StatusBadRequest},
		{"stage failed", domain.ErrStageFailed, http.StatusBadGateway},
		{"no provider", domain.ErrMissingCredential, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, token := newTestServer(t, &fakeAgents{runErr: tc.err}, enf, nil)
			rec := doJSON(h, http.MethodPost, "/api/v1/agent/run", token, `{"prompt":"gm"}`)
			if rec.Code != tc.want {
				t.Fatalf("want %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAlphaGateBlocks(t *testing.T) {
	gate := NewAlphaGate(true, []string{"0xsomeoneelse"})
	h, token := newTestServer(t, &fakeAgents{}, &fakeEnforcer{}, gate)

	rec := doJSON(h, http.MethodPost, "/api/v1/agent/run", token, `{"prompt":"gm"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d", rec.Code)
	}
}

func TestAlphaGateWildcard(t *testing.T) {
	gate := NewAlphaGate(true, []string{"*"})
	agents := &fakeAgents{out: &usecase.RunOutput{JobID: "j1", Status: model.AgentJobStatusCompleted}}
	h, token := newTestServer(t, agents, &fakeEnforcer{decision: model.QuotaDecision{Allowed: true, Limit: 5, Remaining: 4}}, gate)

	rec := doJSON(h, http.MethodPost, "/api/v1/agent/run", token, `{"prompt":"gm"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("wildcard must admit anyone, got %d", rec.Code)
	}
}

func TestGetJob(t *testing.T) {
	job := model.NewAgentJob("j1", testWallet, "content", model.AgentInput{Prompt: "gm"}, false)
	h, token := newTestServer(t, &fakeAgents{job: job}, &fakeEnforcer{}, nil)

	rec := doJSON(h, http.MethodGet, "/api/v1/jobs/j1", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var body jobResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != "j1" || body.Status != "running" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestGetJobNotFound(t *testing.T) {
	h, token := newTestServer(t, &fakeAgents{jobErr: domain.ErrNotFound}, &fakeEnforcer{}, nil)

	rec := doJSON(h, http.MethodGet, "/api/v1/jobs/unknown", token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestGetResult(t *testing.T) {
	res := model.NewAgentResult("r1", "j1", testWallet, "test-model", map[string]any{"title": "GM"})
	h, token := newTestServer(t, &fakeAgents{result: res}, &fakeEnforcer{}, nil)

	rec := doJSON(h, http.MethodGet, "/api/v1/jobs/j1/result", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	var body resultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != "r1" || body.Output["title"] != "GM" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHealthIsPublic(t *testing.T) {
	h, _ := newTestServer(t, &fakeAgents{}, &fakeEnforcer{}, nil)

	rec := doJSON(h, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health must not require auth, got %d", rec.Code)
	}
}
