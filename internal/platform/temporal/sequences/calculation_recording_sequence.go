package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	bmiports "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
	bmiactivities "github.com/Apurer/go-gin-bmi-server/internal/platform/temporal/activities/bmi"
)

// RunCalculationRecordingSequence stores a calculation, then publishes the recorded event.
func RunCalculationRecordingSequence(ctx workflow.Context, input bmitypes.CalculateInput) (*bmitypes.CalculationProjection, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("calculation recording sequence started", "subjectId", input.SubjectID)
	recordOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	publishOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}

	var projection bmitypes.CalculationProjection
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, recordOptions), bmiactivities.RecordCalculationActivityName, input).Get(ctx, &projection)
	if err != nil {
		logger.Error("calculation recording sequence failed", "subjectId", input.SubjectID, "error", err)
		return nil, err
	}
	if projection.Calculation == nil {
		return &projection, nil
	}
	calc := projection.Calculation
	logger.Info("calculation recording sequence persisted", "calculationId", calc.ID)

	event := bmiports.CalculationRecorded{
		CalculationID:       calc.ID,
		SubjectID:           calc.SubjectID,
		BMI:                 calc.Result.BMI,
		Category:            string(calc.Result.Category.Key),
		HeightAutoCorrected: calc.Result.HeightAutoCorrected,
		RecordedAt:          calc.CalculatedAt,
	}
	// Publishing is best effort; the calculation is already stored.
	if err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, publishOptions), bmiactivities.PublishCalculationRecordedActivityName, event).Get(ctx, nil); err != nil {
		logger.Warn("calculation recording sequence publish failed", "calculationId", calc.ID, "error", err)
	}
	return &projection, nil
}
