// Package app wires the service-mode components together: configuration,
// LLM model, review pipeline, dispatcher, and HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/pr-reviewer/internal/config"
	"github.com/sevigo/pr-reviewer/internal/core"
	"github.com/sevigo/pr-reviewer/internal/github"
	"github.com/sevigo/pr-reviewer/internal/gitutil"
	"github.com/sevigo/pr-reviewer/internal/jobs"
	"github.com/sevigo/pr-reviewer/internal/llm"
	"github.com/sevigo/pr-reviewer/internal/review"
	"github.com/sevigo/pr-reviewer/internal/server"
)

// App holds the main service components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	dispatcher core.JobDispatcher
	logger     *slog.Logger
}

// NewApp sets up the service with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing review service",
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"diff_source", cfg.Review.DiffSource,
		"max_workers", cfg.Review.MaxWorkers)

	model, err := llm.NewModel(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM model: %w", err)
	}
	reviewer := llm.NewReviewer(model, cfg.LLM, logger)

	prompts, err := llm.NewPromptManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	reviewJob := review.NewReviewJob(
		cfg,
		github.NewAppClientFactory(cfg, logger),
		NewDiffSource(cfg, logger),
		prompts,
		reviewer,
		review.NewFormatter(cfg.Review),
		logger,
	)
	dispatcher := jobs.NewDispatcher(reviewJob, cfg.Review.MaxWorkers, logger)
	httpServer := server.NewServer(cfg, dispatcher, logger)

	logger.Info("review service initialized")
	return &App{
		cfg:        cfg,
		server:     httpServer,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

// NewDiffSource selects the configured diff acquisition strategy.
func NewDiffSource(cfg *config.Config, logger *slog.Logger) review.DiffSource {
	if cfg.Review.DiffSource == "local" {
		return review.NewLocalSource(gitutil.NewClient(logger), cfg.Review.OutputDir, logger)
	}
	return review.NewAPISource()
}

// Start runs the HTTP server and blocks until shutdown.
func (a *App) Start() error {
	a.logger.Info("starting review service", "server_port", a.cfg.Server.Port)
	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts the service down cleanly: the server first so no new events
// arrive, then the dispatcher so in-flight reviews can finish.
func (a *App) Stop() error {
	a.logger.Info("shutting down review service")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	if serverErr != nil {
		return serverErr
	}
	a.logger.Info("review service stopped")
	return nil
}
