package mapper

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/presentation"
	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
)

var errInvalidAmount = errors.New("value must be a JSON number or string")

// Amount keeps the raw text of a numeric form value. It accepts JSON numbers and strings.
type Amount string

// UnmarshalJSON preserves the literal so the application can trim and validate it.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errInvalidAmount
	}
	*a = Amount(n.String())
	return nil
}

// MeasurementInput is one form field with its unit selector.
type MeasurementInput struct {
	Value Amount `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// CalculateRequest is the body accepted by the calculation endpoints.
type CalculateRequest struct {
	Weight    MeasurementInput `json:"weight"`
	Height    MeasurementInput `json:"height"`
	SubjectID string           `json:"subjectId,omitempty"`
}

// Measurement echoes an accepted input.
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Category is the HTTP representation of a BMI band.
type Category struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Info  string `json:"info"`
}

// HealthyRange is the weight band for the submitted height.
type HealthyRange struct {
	MinKg float64 `json:"minKg"`
	MaxKg float64 `json:"maxKg"`
}

// Recommendation describes how far the weight is from the healthy band.
type Recommendation struct {
	Kind    string  `json:"kind"`
	DeltaKg float64 `json:"deltaKg"`
	Message string  `json:"message"`
}

// Normalized carries the canonical inputs used by the formula.
type Normalized struct {
	MassKg  float64 `json:"massKg"`
	HeightM float64 `json:"heightM"`
}

// Result is the full calculation outcome plus its rendered view.
type Result struct {
	BMI                 float64           `json:"bmi"`
	Category            Category          `json:"category"`
	HealthyRange        HealthyRange      `json:"healthyRange"`
	Recommendation      Recommendation    `json:"recommendation"`
	HeightAutoCorrected bool              `json:"heightAutoCorrected"`
	Normalized          Normalized        `json:"normalized"`
	Notes               []string          `json:"notes,omitempty"`
	View                presentation.View `json:"view"`
}

// Calculation is a recorded history entry.
type Calculation struct {
	ID           string      `json:"id,omitempty"`
	SubjectID    string      `json:"subjectId,omitempty"`
	Weight       Measurement `json:"weight"`
	Height       Measurement `json:"height"`
	Result       Result      `json:"result"`
	CalculatedAt time.Time   `json:"calculatedAt"`
	CreatedAt    *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    *time.Time  `json:"updatedAt,omitempty"`
}

// ToCalculateInput maps a request body into the application input.
func ToCalculateInput(req CalculateRequest, idempotencyKey string) bmitypes.CalculateInput {
	return bmitypes.CalculateInput{
		Weight:         bmitypes.RawMeasurement{Value: string(req.Weight.Value), Unit: req.Weight.Unit},
		Height:         bmitypes.RawMeasurement{Value: string(req.Height.Value), Unit: req.Height.Unit},
		SubjectID:      req.SubjectID,
		IdempotencyKey: idempotencyKey,
	}
}

// FromResult maps a domain result into its HTTP representation.
func FromResult(result domain.Result) Result {
	return Result{
		BMI:          result.BMI,
		Category:     FromCategory(result.Category),
		HealthyRange: HealthyRange{MinKg: result.HealthyRange.MinKg, MaxKg: result.HealthyRange.MaxKg},
		Recommendation: Recommendation{
			Kind:    string(result.Recommendation.Kind),
			DeltaKg: result.Recommendation.DeltaKg,
			Message: result.Recommendation.Message,
		},
		HeightAutoCorrected: result.HeightAutoCorrected,
		Normalized:          Normalized{MassKg: result.Inputs.MassKg, HeightM: result.Inputs.HeightM},
		Notes:               result.Notes(),
		View:                presentation.Render(result),
	}
}

// FromCategory maps a BMI band.
func FromCategory(category domain.Category) Category {
	return Category{
		Key:   string(category.Key),
		Name:  category.Name,
		Color: category.Color,
		Info:  category.Info,
	}
}

// FromCategories maps the classification ladder.
func FromCategories(categories []domain.Category) []Category {
	result := make([]Category, 0, len(categories))
	for _, category := range categories {
		result = append(result, FromCategory(category))
	}
	return result
}

// FromProjection maps a recorded calculation.
func FromProjection(projection *bmitypes.CalculationProjection) Calculation {
	if projection == nil || projection.Calculation == nil {
		return Calculation{}
	}
	calc := projection.Calculation
	out := Calculation{
		ID:           calc.ID,
		SubjectID:    calc.SubjectID,
		Weight:       Measurement{Value: calc.Weight.Value, Unit: string(calc.Weight.Unit)},
		Height:       Measurement{Value: calc.Height.Value, Unit: string(calc.Height.Unit)},
		Result:       FromResult(calc.Result),
		CalculatedAt: calc.CalculatedAt,
	}
	if !projection.Metadata.CreatedAt.IsZero() {
		created := projection.Metadata.CreatedAt
		out.CreatedAt = &created
	}
	if !projection.Metadata.UpdatedAt.IsZero() {
		updated := projection.Metadata.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

// FromProjectionList maps a history page.
func FromProjectionList(list []*bmitypes.CalculationProjection) []Calculation {
	result := make([]Calculation, 0, len(list))
	for _, projection := range list {
		if projection == nil || projection.Calculation == nil {
			continue
		}
		result = append(result, FromProjection(projection))
	}
	return result
}
