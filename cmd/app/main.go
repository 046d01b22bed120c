package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/application"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/config"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/model"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/adapter"
	portquota "github.com/Moeabdelaziz007/amrikyy-content-agent/internal/domain/ports/quota"
	aiAdapters "github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/adapters/ai"
	pg "github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/db/postgres"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/logging"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/metrics"
	memquota "github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/quota"
	red "github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/redis"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/scheduler"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/web"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/infra/worker"
	"github.com/Moeabdelaziz007/amrikyy-content-agent/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Repositories ----
	jobRepo := pg.NewAgentJobRepo(pool, tm)
	resultRepo := pg.NewAgentResultRepo(pool)

	// ---- Quota backend ----
	var enforcer portquota.Enforcer
	var purge memquota.PurgeFunc
	switch cfg.Quota.Backend {
	case "redis":
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		enforcer = red.NewQuotaEnforcer(redisClient)
		// Redis counters expire on their own; no sweep needed.
	case "postgres":
		pgq := pg.NewQuotaEnforcer(pool, tm)
		enforcer = pgq
		purge = func(ctx context.Context, cutoff time.Time) (int, error) {
			n, err := pgq.DeleteWindowsBefore(ctx, cutoff)
			return int(n), err
		}
	default: // memory
		mem := memquota.NewMemoryEnforcer()
		enforcer = mem
		purge = memquota.MemoryPurge(mem)
	}
	logger.Info().Str("backend", cfg.Quota.Backend).
		Dur("window", cfg.Quota.Window).
		Int("max_requests", cfg.Quota.MaxRequests).
		Msg("quota enforcer ready")

	// ---- AI adapters ----
	// OpenAI handles both text and images; Gemini is text-only here. With
	// both keys present, text goes to Gemini and image generation to OpenAI.
	var ai adapter.AIServiceAdapter
	provider := ""
	switch {
	case cfg.AI.OpenAIKey != "" && cfg.AI.GeminiKey != "":
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.ImageModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		ga, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, 2048)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		ai = aiAdapters.NewMultiAdapter(ga, oa)
		provider = "multi"
	case cfg.AI.OpenAIKey != "":
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.ImageModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		ai = oa
		provider = "openai"
	case cfg.AI.GeminiKey != "":
		ga, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, 2048)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		ai = ga
		provider = "gemini"
	default:
		// The use case rejects runs with ErrMissingCredential; the server can
		// still serve job/result reads.
		logger.Warn().Msg("no AI provider configured: set ai.openai_key or ai.gemini_key")
	}
	if ai != nil {
		ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)
		logger.Info().Str("provider", provider).Str("model", cfg.AI.DefaultModel).Msg("AI adapter ready")
	}

	// ---- Use case + facade ----
	agentUC := usecase.NewAgentUseCase(
		jobRepo, resultRepo, tm, ai,
		usecase.BuiltinPipelines(),
		provider, cfg.AI.DefaultModel, logger,
	)
	policy := model.QuotaPolicy{Window: cfg.Quota.Window, MaxRequests: cfg.Quota.MaxRequests}
	facade := application.NewAgentFacade(enforcer, agentUC, policy)

	// ---- Quota GC ----
	var gcSched *scheduler.Scheduler
	if purge != nil {
		gcSched = scheduler.NewScheduler(cfg.Quota.GCInterval, memquota.NewGC(policy.Normalize().Window, purge), logger)
		gcSched.Start(ctx)
	}

	// ---- Async worker ----
	workerPool := worker.NewPool(cfg.Worker.Workers, logger)
	workerPool.Start(ctx)
	processor := worker.NewAgentJobProcessor(jobRepo, agentUC, cfg.Worker.PollInterval, logger)
	go processor.Start(ctx, workerPool)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.CookieName)
	gate := web.NewAlphaGate(cfg.Alpha.Enabled, cfg.Alpha.Whitelist)
	server := web.NewServer(cfg.Server.Port, facade, auth, gate, cfg.Runtime.Dev, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	cancel()
	if gcSched != nil {
		gcSched.Stop()
	}
	workerPool.Stop()
}
