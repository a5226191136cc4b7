package bmi

import (
	"go.temporal.io/sdk/workflow"

	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/platform/temporal/sequences"
)

const (
	// CalculationRecordingWorkflowName is the public identifier for registering the workflow.
	CalculationRecordingWorkflowName = "bmi.workflows.RecordCalculation"
	// CalculationRecordingTaskQueue is the queue consumed by the worker processing BMI workflows.
	CalculationRecordingTaskQueue = "BMI_CALCULATION_RECORDING"
)

// CalculationRecordingWorkflowInput captures the payload required to record a calculation.
type CalculationRecordingWorkflowInput struct {
	Command bmitypes.CalculateInput
	TraceID string
}

// CalculationRecordingWorkflow orchestrates the activities needed to store a calculation.
func CalculationRecordingWorkflow(ctx workflow.Context, input CalculationRecordingWorkflowInput) (*bmitypes.CalculationProjection, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("CalculationRecordingWorkflow started", withTraceID(input.TraceID, "subjectId", input.Command.SubjectID)...)
	projection, err := sequences.RunCalculationRecordingSequence(ctx, input.Command)
	if err != nil {
		logger.Error("CalculationRecordingWorkflow failed", withTraceID(input.TraceID, "subjectId", input.Command.SubjectID, "error", err)...)
		return nil, err
	}
	if projection != nil && projection.Calculation != nil {
		logger.Info("CalculationRecordingWorkflow completed", withTraceID(input.TraceID, "calculationId", projection.Calculation.ID)...)
	} else {
		logger.Info("CalculationRecordingWorkflow completed", withTraceID(input.TraceID)...)
	}
	return projection, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
