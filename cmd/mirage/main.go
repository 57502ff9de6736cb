// Command mirage runs the retrieval-augmented medical QA service.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/mirage-project/mirage/pkg/agent"
	"github.com/mirage-project/mirage/pkg/agent/prompt"
	"github.com/mirage-project/mirage/pkg/api"
	"github.com/mirage-project/mirage/pkg/audit"
	"github.com/mirage-project/mirage/pkg/cache"
	"github.com/mirage-project/mirage/pkg/config"
	"github.com/mirage-project/mirage/pkg/humanloop"
	"github.com/mirage-project/mirage/pkg/orchestrator"
	"github.com/mirage-project/mirage/pkg/retrieval"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llm := agent.NewHTTPLLMClient(cfg.LLMURL, cfg.LLMModel)
	defer llm.Close()

	retriever := retrieval.NewHTTPClient(cfg.RetrievalURL)
	defer retriever.Close()

	auditSink := audit.Sink(audit.NewSlogSink(logger))
	if cfg.AuditDatabaseURL != "" {
		pg, err := audit.NewPostgresSink(ctx, cfg.AuditDatabaseURL, logger)
		if err != nil {
			return err
		}
		auditSink = audit.MultiSink{auditSink, pg}
	}
	defer auditSink.Close()

	responseCache := cache.New(cfg.CacheTTL)
	responseCache.StartSweeper(cfg.CacheSweepInterval)
	defer responseCache.Close()

	prompts := prompt.NewBuilder()
	policy := agent.RetryPolicy{
		MaxAttempts: cfg.AgentMaxAttempts,
		BaseDelay:   cfg.AgentBaseDelay,
		CallTimeout: cfg.AgentCallTimeout,
		MaxTokens:   cfg.AgentMaxTokens,
	}

	orch := orchestrator.New(orchestrator.Config{
		MaxIterations:    cfg.MaxIterations,
		ApproveThreshold: cfg.ApproveThreshold,
		RejectThreshold:  cfg.RejectThreshold,
		WorkflowTimeout:  cfg.WorkflowTimeout,
		RetrievalTopK:    cfg.RetrievalTopK,
	}, orchestrator.Deps{
		Generator:  agent.NewGenerator(llm, prompts, policy),
		Verifier:   agent.NewVerifier(llm, prompts, policy),
		Reformer:   agent.NewReformer(llm, prompts, policy),
		Translator: agent.NewTranslator(llm, prompts, policy),
		Retriever:  retriever,
		Cache:      responseCache,
		HumanLoop:  humanloop.NewManager(cfg.ValidationTimeout, logger),
		Audit:      auditSink,
		Logger:     logger,
	})

	server := api.NewServer(orch, cfg.HTTPPort, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
