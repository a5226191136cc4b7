package ports

import (
	"context"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
)

// Service defines the BMI use cases exposed to adapters (inbound/driving port).
type Service interface {
	Calculate(ctx context.Context, input types.CalculateInput) (*types.CalculationProjection, error)
	RecordCalculation(ctx context.Context, input types.CalculateInput) (*types.CalculationProjection, error)
	GetCalculation(ctx context.Context, input types.CalculationIdentifier) (*types.CalculationProjection, error)
	ListCalculations(ctx context.Context, input types.ListCalculationsInput) ([]*types.CalculationProjection, error)
	DeleteCalculation(ctx context.Context, input types.CalculationIdentifier) error
	PurgeCalculations(ctx context.Context, input types.PurgeCalculationsInput) (int64, error)
	Categories(ctx context.Context) []domain.Category
	DefaultForm(ctx context.Context) types.FormState
}
