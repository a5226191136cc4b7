package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Healthy weight band expressed as BMI values.
const (
	HealthyBMIMin = 18.5
	HealthyBMIMax = 24.9
)

// RecommendationKind tells which way the weight would need to move.
type RecommendationKind string

const (
	RecommendGain     RecommendationKind = "gain"
	RecommendLose     RecommendationKind = "lose"
	RecommendMaintain RecommendationKind = "maintain"
)

// HealthyRange is the weight interval for a height, rounded to tenths of a kilogram.
type HealthyRange struct {
	MinKg float64
	MaxKg float64
}

// Recommendation is the guidance attached to a result. DeltaKg is zero for maintain.
type Recommendation struct {
	Kind    RecommendationKind
	DeltaKg float64
	Message string
}

// Result is the immutable outcome of one calculation.
type Result struct {
	BMI                 float64
	Category            Category
	HealthyRange        HealthyRange
	Recommendation      Recommendation
	HeightAutoCorrected bool
	Inputs              NormalizedInputs
}

// maxFractional is 2^53. Larger floats are whole numbers, and scaling them by 10 can overflow.
const maxFractional = 1 << 53

// RoundTenth rounds half away from zero to one decimal place.
func RoundTenth(v float64) float64 {
	if math.Abs(v) >= maxFractional {
		return v
	}
	return math.Round(v*10) / 10
}

// Calculate validates, normalizes and evaluates one pair of measurements.
func Calculate(w WeightMeasurement, h HeightMeasurement) (Result, error) {
	inputs, err := Normalize(w, h)
	if err != nil {
		return Result{}, err
	}
	return CalculateNormalized(inputs), nil
}

// CalculateNormalized evaluates already normalized inputs. Classification and the
// recommendation both use the rounded BMI.
func CalculateNormalized(in NormalizedInputs) Result {
	bmi := RoundTenth(in.MassKg / (in.HeightM * in.HeightM))
	return Result{
		BMI:                 bmi,
		Category:            Classify(bmi),
		HealthyRange:        HealthyRangeFor(in.HeightM),
		Recommendation:      Recommend(bmi, in.MassKg, in.HeightM),
		HeightAutoCorrected: in.HeightAutoCorrected,
		Inputs:              in,
	}
}

// HealthyRangeFor returns [18.5*h², 24.9*h²] rounded to tenths.
func HealthyRangeFor(heightM float64) HealthyRange {
	minKg, maxKg := healthyBounds(heightM)
	return HealthyRange{MinKg: RoundTenth(minKg), MaxKg: RoundTenth(maxKg)}
}

// Recommend builds the guidance message. The branches test < 18.5 and > 24.9,
// which differ from the classification ladder's < 25 upper edge.
func Recommend(roundedBMI, massKg, heightM float64) Recommendation {
	minKg, maxKg := healthyBounds(heightM)
	prefix := fmt.Sprintf("For your height, a healthy weight range is %s kg – %s kg. ",
		FormatKg(minKg), FormatKg(maxKg))
	switch {
	case roundedBMI < HealthyBMIMin:
		delta := RoundTenth(minKg - massKg)
		return Recommendation{
			Kind:    RecommendGain,
			DeltaKg: delta,
			Message: prefix + fmt.Sprintf("You may need about %s kg more to reach the healthy range.", FormatKg(delta)),
		}
	case roundedBMI > HealthyBMIMax:
		delta := RoundTenth(massKg - maxKg)
		return Recommendation{
			Kind:    RecommendLose,
			DeltaKg: delta,
			Message: prefix + fmt.Sprintf("You may need to lose about %s kg to reach the healthy range.", FormatKg(delta)),
		}
	default:
		return Recommendation{
			Kind:    RecommendMaintain,
			Message: prefix + "You are already within the healthy range — great job!",
		}
	}
}

// FormatKg rounds to tenths and prints the shortest form, so 28.0 prints as "28".
func FormatKg(v float64) string {
	return FormatNumber(RoundTenth(v))
}

// FormatNumber prints v in its shortest decimal form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func healthyBounds(heightM float64) (float64, float64) {
	return HealthyBMIMin * heightM * heightM, HealthyBMIMax * heightM * heightM
}
