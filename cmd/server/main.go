// Package main provides the main entry point for the study assistant backend
// server. It wires configuration, observability, the object store, the AI
// pipeline services, and the HTTP API routes.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyapp/internal/config"
	"studyapp/internal/extractor"
	"studyapp/internal/handlers"
	"studyapp/internal/observability"
	"studyapp/internal/services"
	"studyapp/internal/store"
	contextutils "studyapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// Application encapsulates the wired server so it can be tested
type Application struct {
	cfg    *config.Config
	db     *store.Store
	router *gin.Engine
	server *http.Server
}

// NewApplication builds the full service graph and the HTTP router.
func NewApplication(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Application, error) {
	db, err := store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open object store")
	}
	library := store.NewLibrary(db)

	prompts, err := services.NewPromptManager()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load prompt templates")
	}

	client := services.NewHTTPAIClient(cfg.Provider, logger)
	idGen := services.NewUUIDGenerator()

	analyzer := services.NewStructureAnalyzer(client, prompts, idGen, logger)
	generator := services.NewContentGenerator(client, prompts, idGen, logger)
	grading := services.NewGradingEngine(client, prompts, logger)
	correction := services.NewCorrectionEngine(client, prompts, logger)
	workflow := services.NewRetryWorkflow()
	summaries := services.NewSummaryService(client, prompts, logger)

	guard := handlers.NewOperationGuard()

	study := handlers.NewStudyHandler(analyzer, generator, extractor.NewPlainTextExtractor(), library, idGen, guard, cfg, logger)
	grade := handlers.NewGradingHandler(grading, correction, workflow, generator, guard, logger)
	lib := handlers.NewLibraryHandler(summaries, library, idGen, guard, logger)

	router := handlers.NewRouter(cfg, study, grade, lib, logger)

	return &Application{
		cfg:    cfg,
		db:     db,
		router: router,
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (a *Application) Run() error {
	a.server = &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return contextutils.WrapError(err, "server failed")
	}
	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (a *Application) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return contextutils.WrapError(err, "server shutdown failed")
		}
	}
	return a.db.Close()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, cfg.OpenTelemetry.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if shutdowner, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
			if err := shutdowner.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error()})
			}
		}
	}()

	logger.Info(ctx, "Starting study assistant backend", map[string]interface{}{
		"port":     cfg.Server.Port,
		"logLevel": cfg.Server.LogLevel,
	})

	app, err := NewApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err, nil)
		os.Exit(1)
	}

	appErr := make(chan error, 1)
	go func() {
		if err := app.Run(); err != nil {
			appErr <- err
		}
	}()

	select {
	case <-shutdownCh:
		logger.Info(ctx, "Received shutdown signal, shutting down gracefully", nil)
	case err := <-appErr:
		logger.Error(ctx, "Application failed", err, nil)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during application shutdown", err, nil)
		os.Exit(1)
	}

	logger.Info(ctx, "Shutdown completed successfully", nil)
}
