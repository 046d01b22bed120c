package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/application"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/logging"
)

const requestTimeout = 60 * time.Second

// Server is the public HTTP surface: agent runs and job/result reads behind
// wallet auth, plus unauthenticated health and metrics.
type Server struct {
	facade *application.AgentFacade
	auth   *AuthManager
	gate   *AlphaGate
	dev    bool
	log    *zerolog.Logger

	httpSrv *http.Server
}

func NewServer(port int, facade *application.AgentFacade, auth *AuthManager, gate *AlphaGate, dev bool, logger *zerolog.Logger) *Server {
	s := &Server{facade: facade, auth: auth, gate: gate, dev: dev, log: logger}
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(s.log), RequestLog(s.log), Recover(s.log), Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireWallet, s.alphaGuard)
		r.Post("/agent/run", s.handleAgentRun)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Get("/jobs/{id}/result", s.handleGetResult)
	})

	return r
}

// requireWallet authenticates the session token and puts the verified wallet
// address into the request context and log fields. The log field is redacted
// outside dev mode; handlers keep the full address.
func (s *Server) requireWallet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "valid session token required")
			return
		}
		ctx := withWallet(r.Context(), claims.Wallet)
		ctx = logging.WithWallet(ctx, logging.Redact(claims.Wallet, s.dev))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) alphaGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.gate.Allowed(walletFrom(r.Context())) {
			writeError(w, http.StatusForbidden, "alpha_denied", "wallet is not on the alpha allowlist")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
