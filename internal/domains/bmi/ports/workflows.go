package ports

import (
	"context"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
)

// WorkflowOrchestrator exposes durable workflow operations required by the BMI bounded context.
type WorkflowOrchestrator interface {
	RecordCalculation(ctx context.Context, input types.CalculateInput) (*types.CalculationProjection, error)
}
