package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	bmiapp "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application"
	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
	bmiworkflows "github.com/Apurer/go-gin-bmi-server/internal/platform/temporal/workflows/bmi"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalCalculationWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineCalculationWorkflows)(nil)
)

// TemporalCalculationWorkflows starts BMI workflows on a Temporal cluster.
type TemporalCalculationWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalCalculationWorkflows wires a Temporal client into the orchestrator.
func NewTemporalCalculationWorkflows(c client.Client) *TemporalCalculationWorkflows {
	return &TemporalCalculationWorkflows{client: c, taskQueue: bmiworkflows.CalculationRecordingTaskQueue}
}

// RecordCalculation starts the Temporal workflow that stores a calculation.
func (o *TemporalCalculationWorkflows) RecordCalculation(ctx context.Context, input bmitypes.CalculateInput) (*bmitypes.CalculationProjection, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal calculation workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildRecordingWorkflowID(input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		bmiworkflows.CalculationRecordingWorkflowName,
		bmiworkflows.CalculationRecordingWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(input.IdempotencyKey) != "" {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var projection bmitypes.CalculationProjection
			if err := existingRun.Get(ctx, &projection); err != nil {
				return nil, translateWorkflowError(err)
			}
			return &projection, nil
		}
		return nil, err
	}
	var projection bmitypes.CalculationProjection
	if err := run.Get(ctx, &projection); err != nil {
		return nil, translateWorkflowError(err)
	}
	return &projection, nil
}

// InlineCalculationWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineCalculationWorkflows struct {
	service ports.Service
}

// NewInlineCalculationWorkflows wraps the BMI service for synchronous execution.
func NewInlineCalculationWorkflows(service ports.Service) *InlineCalculationWorkflows {
	return &InlineCalculationWorkflows{service: service}
}

// RecordCalculation delegates to the application service without durable orchestration.
func (o *InlineCalculationWorkflows) RecordCalculation(ctx context.Context, input bmitypes.CalculateInput) (*bmitypes.CalculationProjection, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline calculation workflows not configured")
	}
	return o.service.RecordCalculation(ctx, input)
}

// translateWorkflowError restores application sentinels lost in Temporal serialization.
func translateWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case "InvalidInput":
		return fmt.Errorf("%w: %s", bmiapp.ErrInvalidInput, appErr.Message())
	case "IdempotencyConflict":
		return fmt.Errorf("%w: %s", ports.ErrIdempotencyConflict, appErr.Message())
	}
	return err
}

func buildRecordingWorkflowID(input bmitypes.CalculateInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("bmi-record-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("bmi-record-%d-%s", time.Now().UnixNano(), traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	// First 16 hex chars keep workflow IDs readable and deterministic.
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	traceComponent := workflowTraceID(ctx)
	if traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
