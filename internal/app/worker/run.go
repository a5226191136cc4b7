// Package worker hosts the Temporal worker that records BMI calculations durably.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/activity"
	temporalworker "go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	appapi "github.com/Apurer/go-gin-bmi-server/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-bmi-server/internal/platform/observability"
	bmiactivities "github.com/Apurer/go-gin-bmi-server/internal/platform/temporal/activities/bmi"
	bmiworkflows "github.com/Apurer/go-gin-bmi-server/internal/platform/temporal/workflows/bmi"
)

// Registrar is the subset of a Temporal worker used to register BMI workflows and activities.
type Registrar interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register binds the recording workflow and its activities under their public names.
func Register(r Registrar, activities *bmiactivities.Activities) {
	r.RegisterWorkflowWithOptions(bmiworkflows.CalculationRecordingWorkflow, workflow.RegisterOptions{Name: bmiworkflows.CalculationRecordingWorkflowName})
	r.RegisterActivityWithOptions(activities.RecordCalculation, activity.RegisterOptions{Name: bmiactivities.RecordCalculationActivityName})
	r.RegisterActivityWithOptions(activities.PublishCalculationRecorded, activity.RegisterOptions{Name: bmiactivities.PublishCalculationRecordedActivityName})
}

// Run connects to Temporal and processes the BMI task queue until ctx is cancelled.
func Run(ctx context.Context) error {
	const serviceName = "bmi-worker"
	cfg, err := appapi.LoadConfig()
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

	history, cleanupHistory := appapi.BuildHistory(ctx, cfg, logger)
	defer cleanupHistory()
	if !history.Durable {
		logger.Warn("worker history is in-memory; recorded calculations are not visible to the API")
	}
	events, cleanupEvents := appapi.BuildEventPublisher(cfg, logger)
	defer cleanupEvents()
	// The workflow publishes through its own activity, so the recording service gets no publisher.
	recordService := appapi.NewObservedService(history, instruments)
	activities := bmiactivities.NewActivities(recordService, events)

	// Unlike the API, the worker has nothing to fall back to without Temporal.
	cfg.TemporalDisabled = false
	temporalClient, err := appapi.ConnectTemporalClient(cfg, instruments, "temporal-worker")
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer temporalClient.Close()

	w := temporalworker.New(temporalClient, bmiworkflows.CalculationRecordingTaskQueue, temporalworker.Options{})
	Register(w, activities)

	interrupt := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(interrupt)
	}()
	logger.Info("worker listening", slog.String("taskQueue", bmiworkflows.CalculationRecordingTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(interrupt); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Temporal worker stopped")
	return nil
}
