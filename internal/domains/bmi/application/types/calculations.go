package types

import (
	"time"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
)

// RawMeasurement is a value exactly as typed into the form, plus the selected unit.
type RawMeasurement struct {
	Value string
	Unit  string
}

// CalculateInput carries one form submission.
type CalculateInput struct {
	Weight         RawMeasurement
	Height         RawMeasurement
	SubjectID      string
	IdempotencyKey string
}

// CalculationIdentifier addresses a recorded calculation.
type CalculationIdentifier struct {
	ID string
}

// ListCalculationsInput filters the history listing. Zero Limit means no limit.
type ListCalculationsInput struct {
	SubjectID string
	Limit     int
}

// PurgeCalculationsInput removes history recorded before the cutoff.
type PurgeCalculationsInput struct {
	Before time.Time
}

// CalculationMetadata captures infrastructure timestamps of a persisted calculation.
type CalculationMetadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalculationProjection transports a calculation together with its persistence metadata.
// Stateless calculations carry a zero Metadata and an empty ID.
type CalculationProjection struct {
	Calculation *domain.Calculation
	Metadata    CalculationMetadata
}

// NewCalculationProjection wraps a calculation with persistence metadata.
func NewCalculationProjection(calc *domain.Calculation, createdAt, updatedAt time.Time) *CalculationProjection {
	if calc == nil {
		return nil
	}
	return &CalculationProjection{
		Calculation: calc,
		Metadata: CalculationMetadata{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
	}
}

// CloneProjectionList duplicates a slice of projections.
func CloneProjectionList(sources []*CalculationProjection) []*CalculationProjection {
	if len(sources) == 0 {
		return nil
	}
	result := make([]*CalculationProjection, 0, len(sources))
	for _, src := range sources {
		if src == nil {
			continue
		}
		clone := *src
		if src.Calculation != nil {
			calc := *src.Calculation
			clone.Calculation = &calc
		}
		result = append(result, &clone)
	}
	return result
}

// FormState is what the form shows after a reset.
type FormState struct {
	WeightValue string
	WeightUnit  domain.WeightUnit
	HeightValue string
	HeightUnit  domain.HeightUnit
	FocusField  string
}
