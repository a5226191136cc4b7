package domain

import "strings"

// CategoryKey identifies a BMI band.
type CategoryKey string

const (
	KeyUnderweight CategoryKey = "underweight"
	KeyNormal      CategoryKey = "normal"
	KeyOverweight  CategoryKey = "overweight"
	KeyObese       CategoryKey = "obese"
)

// Display color tokens, as consumed by the web front end.
const (
	ColorDanger  = "var(--danger)"
	ColorSuccess = "var(--success)"
	ColorWarning = "#f59e0b"
)

// Band thresholds, evaluated on the rounded BMI.
const (
	NormalLowerBound     = 18.5
	OverweightLowerBound = 25.0
	ObeseLowerBound      = 30.0
)

// Category is one of the four fixed BMI bands.
type Category struct {
	Key   CategoryKey
	Name  string
	Color string
	Info  string
}

var (
	Underweight = Category{
		Key:   KeyUnderweight,
		Name:  "Underweight",
		Color: ColorDanger,
		Info:  "Your BMI is below the healthy range.",
	}
	Normal = Category{
		Key:   KeyNormal,
		Name:  "Normal (Healthy weight)",
		Color: ColorSuccess,
		Info:  "You are within a healthy BMI range. Keep maintaining healthy habits!",
	}
	Overweight = Category{
		Key:   KeyOverweight,
		Name:  "Overweight",
		Color: ColorWarning,
		Info:  "Your BMI is above the healthy range.",
	}
	Obese = Category{
		Key:   KeyObese,
		Name:  "Obese",
		Color: ColorDanger,
		Info:  "Your BMI is in the obese range.",
	}
)

// Classify walks the threshold ladder; the first match wins.
func Classify(bmi float64) Category {
	switch {
	case bmi < NormalLowerBound:
		return Underweight
	case bmi < OverweightLowerBound:
		return Normal
	case bmi < ObeseLowerBound:
		return Overweight
	default:
		return Obese
	}
}

// Categories returns the bands in ladder order.
func Categories() []Category {
	return []Category{Underweight, Normal, Overweight, Obese}
}

// CategoryByKey looks a band up by key, case-insensitively.
func CategoryByKey(key string) (Category, bool) {
	want := CategoryKey(strings.ToLower(strings.TrimSpace(key)))
	for _, c := range Categories() {
		if c.Key == want {
			return c, true
		}
	}
	return Category{}, false
}
