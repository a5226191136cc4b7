package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	bmiserver "github.com/Apurer/go-gin-bmi-server/go"

	bmiworkflows "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/workflows"
	bmiapp "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application"
	bmiports "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
	"github.com/Apurer/go-gin-bmi-server/internal/platform/middleware"
	platformobservability "github.com/Apurer/go-gin-bmi-server/internal/platform/observability"
)

const shutdownTimeout = 10 * time.Second

// Run boots the BMI HTTP API with observability, history storage, events and workflows wired.
// It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	const serviceName = "bmi-api"
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	history, cleanupHistory := BuildHistory(ctx, cfg, logger)
	defer cleanupHistory()
	events, cleanupEvents := BuildEventPublisher(cfg, logger)
	defer cleanupEvents()
	bmiService := NewObservedService(history, instruments, bmiapp.WithEventPublisher(events))

	var bmiWorkflows bmiports.WorkflowOrchestrator = bmiworkflows.NewInlineCalculationWorkflows(bmiService)
	if temporalClient, err := ConnectTemporalClient(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, recording calculations inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		bmiWorkflows = bmiworkflows.NewTemporalCalculationWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	metrics := middleware.NewMetrics("bmi")
	handlers := bmiserver.ApiHandleFunctions{
		BMIAPI:  bmiserver.NewBMIAPI(bmiService, bmiWorkflows),
		Metrics: metrics.Handler(),
	}
	router := bmiserver.NewRouter(handlers,
		middleware.Recovery(logger, metrics),
		middleware.RequestID(),
		otelgin.Middleware(serviceName),
		metrics.Middleware(),
		middleware.RateLimit(cfg.Limiter(), metrics),
		middleware.Logging(logger),
	)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("BMI API listening", slog.String("addr", server.Addr), slog.Bool("durableHistory", history.Durable))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("BMI API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down BMI API")
	return server.Shutdown(shutdownCtx)
}
