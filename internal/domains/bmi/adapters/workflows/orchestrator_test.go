package workflows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	bmimemory "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/memory"
	bmiapp "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application"
	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

func TestBuildRecordingWorkflowID_StableForIdempotencyKey(t *testing.T) {
	input := bmitypes.CalculateInput{IdempotencyKey: " key-1 "}
	first := buildRecordingWorkflowID(input, "trace-a")
	second := buildRecordingWorkflowID(input, "trace-b")

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "bmi-record-idem-"))
	assert.Len(t, strings.TrimPrefix(first, "bmi-record-idem-"), 16)
}

func TestBuildRecordingWorkflowID_UsesTraceWithoutKey(t *testing.T) {
	id := buildRecordingWorkflowID(bmitypes.CalculateInput{}, "trace-a")
	assert.True(t, strings.HasPrefix(id, "bmi-record-"))
	assert.True(t, strings.HasSuffix(id, "-trace-a"))
}

func TestWorkflowTraceComponent_FallsBackWithoutSpan(t *testing.T) {
	assert.True(t, strings.HasPrefix(workflowTraceComponent(context.Background()), "fallback-"))
}

func TestTranslateWorkflowError(t *testing.T) {
	invalid := temporal.NewNonRetryableApplicationError("please enter a valid weight", "InvalidInput", nil)
	require.ErrorIs(t, translateWorkflowError(invalid), bmiapp.ErrInvalidInput)

	conflict := temporal.NewNonRetryableApplicationError("idempotency conflict", "IdempotencyConflict", nil)
	require.ErrorIs(t, translateWorkflowError(conflict), ports.ErrIdempotencyConflict)

	other := errors.New("boom")
	require.Equal(t, other, translateWorkflowError(other))
}

func TestInlineCalculationWorkflows_RecordCalculation(t *testing.T) {
	svc := bmiapp.NewService(bmimemory.NewRepository())
	orchestrator := NewInlineCalculationWorkflows(svc)

	proj, err := orchestrator.RecordCalculation(context.Background(), bmitypes.CalculateInput{
		Weight: bmitypes.RawMeasurement{Value: "70", Unit: "kg"},
		Height: bmitypes.RawMeasurement{Value: "1.75", Unit: "m"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, proj.Calculation.ID)
	require.Equal(t, 22.9, proj.Calculation.Result.BMI)

	var unset *InlineCalculationWorkflows
	_, err = unset.RecordCalculation(context.Background(), bmitypes.CalculateInput{})
	require.Error(t, err)
}
