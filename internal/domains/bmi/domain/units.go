package domain

import "strings"

// WeightUnit tags the unit a weight value was entered in.
type WeightUnit string

// HeightUnit tags the unit a height value was entered in.
type HeightUnit string

const (
	Kilogram WeightUnit = "kg"
	Pound    WeightUnit = "lb"
)

const (
	Meter      HeightUnit = "m"
	Centimeter HeightUnit = "cm"
	Inch       HeightUnit = "in"
)

// Defaults restored when the form is reset.
const (
	DefaultWeightUnit = Kilogram
	DefaultHeightUnit = Meter
)

const (
	KilogramsPerPound   = 0.45359237
	MetersPerInch       = 0.0254
	CentimetersPerMeter = 100.0
)

var weightUnitAliases = map[string]WeightUnit{
	"kg":        Kilogram,
	"kgs":       Kilogram,
	"kilogram":  Kilogram,
	"kilograms": Kilogram,
	"lb":        Pound,
	"lbs":       Pound,
	"pound":     Pound,
	"pounds":    Pound,
}

var heightUnitAliases = map[string]HeightUnit{
	"m":           Meter,
	"meter":       Meter,
	"meters":      Meter,
	"metre":       Meter,
	"metres":      Meter,
	"cm":          Centimeter,
	"centimeter":  Centimeter,
	"centimeters": Centimeter,
	"centimetre":  Centimeter,
	"centimetres": Centimeter,
	"in":          Inch,
	"inch":        Inch,
	"inches":      Inch,
}

// ParseWeightUnit resolves aliases. Unknown values are kept verbatim and later
// converted as if they were kilograms; an empty value yields the default unit.
func ParseWeightUnit(raw string) WeightUnit {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return DefaultWeightUnit
	}
	if unit, ok := weightUnitAliases[key]; ok {
		return unit
	}
	return WeightUnit(key)
}

// ParseHeightUnit resolves aliases. Unknown values are kept verbatim and later
// converted as if they were meters, without the centimeter heuristic.
func ParseHeightUnit(raw string) HeightUnit {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return DefaultHeightUnit
	}
	if unit, ok := heightUnitAliases[key]; ok {
		return unit
	}
	return HeightUnit(key)
}

// Known reports whether the unit has a dedicated conversion.
func (u WeightUnit) Known() bool {
	return u == Kilogram || u == Pound
}

// Known reports whether the unit has a dedicated conversion.
func (u HeightUnit) Known() bool {
	switch u {
	case Meter, Centimeter, Inch:
		return true
	default:
		return false
	}
}

// WeightUnits lists the recognised weight units.
func WeightUnits() []WeightUnit {
	return []WeightUnit{Kilogram, Pound}
}

// HeightUnits lists the recognised height units.
func HeightUnits() []HeightUnit {
	return []HeightUnit{Meter, Centimeter, Inch}
}
