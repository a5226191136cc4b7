package bmi

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	bmiapp "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application"
	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	bmiports "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

const (
	// RecordCalculationActivityName persists a calculation without publishing events.
	RecordCalculationActivityName = "bmi.activities.RecordCalculation"
	// PublishCalculationRecordedActivityName announces a stored calculation to downstream consumers.
	PublishCalculationRecordedActivityName = "bmi.activities.PublishCalculationRecorded"
)

// Activities groups activities that operate on the BMI bounded context.
type Activities struct {
	recordService bmiports.Service
	events        bmiports.EventPublisher
}

// NewActivities wires the BMI collaborators into the Temporal activities bundle.
// recordService should be constructed without an event publisher to avoid duplicate events.
func NewActivities(recordService bmiports.Service, events bmiports.EventPublisher) *Activities {
	return &Activities{recordService: recordService, events: events}
}

// RecordCalculation stores a calculation and returns its projection.
func (a *Activities) RecordCalculation(ctx context.Context, input bmitypes.CalculateInput) (*bmitypes.CalculationProjection, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.recordService == nil {
		logger.Error("record calculation activity not initialized", "subjectId", input.SubjectID)
		return nil, errors.New("record calculation activity not initialized")
	}
	logger.Info("RecordCalculation activity started", "subjectId", input.SubjectID)
	projection, err := a.recordService.RecordCalculation(ctx, input)
	if err != nil {
		logger.Error("RecordCalculation activity failed", "subjectId", input.SubjectID, "error", err)
		if errors.Is(err, bmiapp.ErrInvalidInput) || errors.Is(err, bmiports.ErrIdempotencyConflict) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), nonRetryableType(err), err)
		}
		return nil, err
	}
	if projection != nil && projection.Calculation != nil {
		logger.Info("RecordCalculation activity completed", "calculationId", projection.Calculation.ID)
	}
	return projection, nil
}

// PublishCalculationRecorded emits the recorded event once per workflow.
func (a *Activities) PublishCalculationRecorded(ctx context.Context, event bmiports.CalculationRecorded) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.events == nil {
		logger.Info("event publisher not configured; skipping", "calculationId", event.CalculationID)
		return nil
	}

	var hb publishHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Completed {
		logger.Info("PublishCalculationRecorded already completed in prior attempt; skipping", "calculationId", event.CalculationID)
		return nil
	}

	if err := a.events.PublishCalculationRecorded(ctx, event); err != nil {
		logger.Error("PublishCalculationRecorded failed", "calculationId", event.CalculationID, "error", err)
		return err
	}
	activity.RecordHeartbeat(ctx, publishHeartbeat{Completed: true})
	logger.Info("PublishCalculationRecorded activity completed", "calculationId", event.CalculationID)
	return nil
}

func nonRetryableType(err error) string {
	if errors.Is(err, bmiports.ErrIdempotencyConflict) {
		return "IdempotencyConflict"
	}
	return "InvalidInput"
}

type publishHeartbeat struct {
	Completed bool
}
