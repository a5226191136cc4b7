package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// MaxPlausibleHeightMeters is the tallest value accepted as meters. Anything
// above it was almost certainly typed in centimeters with meters selected.
const MaxPlausibleHeightMeters = 3.0

// WeightMeasurement is a raw weight value with its unit.
type WeightMeasurement struct {
	Value float64
	Unit  WeightUnit
}

// HeightMeasurement is a raw height value with its unit.
type HeightMeasurement struct {
	Value float64
	Unit  HeightUnit
}

// NormalizedInputs holds canonical SI inputs. Both values are strictly positive.
type NormalizedInputs struct {
	MassKg              float64
	HeightM             float64
	HeightAutoCorrected bool
}

// LooksLikeCentimeters is the centimeter heuristic applied to meter input.
func LooksLikeCentimeters(meters float64) bool {
	return meters > MaxPlausibleHeightMeters
}

// Kilograms converts the weight. Unknown units pass through unchanged.
func (w WeightMeasurement) Kilograms() float64 {
	if w.Unit == Pound {
		return w.Value * KilogramsPerPound
	}
	return w.Value
}

// Meters converts the height and reports whether the centimeter heuristic fired.
func (h HeightMeasurement) Meters() (float64, bool) {
	switch h.Unit {
	case Meter:
		if LooksLikeCentimeters(h.Value) {
			return h.Value / CentimetersPerMeter, true
		}
		return h.Value, false
	case Centimeter:
		return h.Value / CentimetersPerMeter, false
	case Inch:
		return h.Value * MetersPerInch, false
	default:
		return h.Value, false
	}
}

// Normalize validates both measurements and converts them to kilograms and meters.
// Weight is checked first so the caller focuses the first offending field.
func Normalize(w WeightMeasurement, h HeightMeasurement) (NormalizedInputs, error) {
	if !isPositiveFinite(w.Value) {
		return NormalizedInputs{}, invalidWeight("must be a positive number", nil)
	}
	if !isPositiveFinite(h.Value) {
		return NormalizedInputs{}, invalidHeight("must be a positive number", nil)
	}
	mass := w.Kilograms()
	if !isPositiveFinite(mass) {
		return NormalizedInputs{}, invalidWeight("converted weight is invalid", nil)
	}
	meters, corrected := h.Meters()
	if !isPositiveFinite(meters) {
		return NormalizedInputs{}, invalidHeight("computed height is invalid, check the value and unit", nil)
	}
	// The healthy range and the BMI are derived from h², so both must stay finite.
	squared := meters * meters
	if !isPositiveFinite(HealthyBMIMax * squared) {
		return NormalizedInputs{}, invalidHeight("height is out of range", nil)
	}
	if bmi := mass / squared; math.IsNaN(bmi) || math.IsInf(bmi, 0) {
		return NormalizedInputs{}, invalidHeight("computed BMI is out of range", nil)
	}
	return NormalizedInputs{MassKg: mass, HeightM: meters, HeightAutoCorrected: corrected}, nil
}

// ParseAmount turns raw form text into a number. It does not check the sign.
func ParseAmount(field, raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, &ParseError{Field: field, Err: ErrEmptyInput}
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, &ParseError{Field: field, Input: trimmed, Err: ErrNotFinite}
	}
	if err != nil {
		return 0, &ParseError{Field: field, Input: trimmed, Err: ErrNotANumber}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &ParseError{Field: field, Input: trimmed, Err: ErrNotFinite}
	}
	return value, nil
}

func isPositiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
