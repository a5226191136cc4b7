package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/adapters/presentation"
	bmitypes "github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
)

// Format selects how command results are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// IsUnknown reports whether f is not a supported format.
func (f Format) IsUnknown() bool {
	switch f {
	case FormatText, FormatJSON, FormatYAML:
		return false
	default:
		return true
	}
}

// SupportedFormats lists the accepted --format values.
func SupportedFormats() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatYAML)}
}

// report is the machine-readable form of one calculation.
type report struct {
	ID                  string            `json:"id,omitempty" yaml:"id,omitempty"`
	SubjectID           string            `json:"subjectId,omitempty" yaml:"subjectId,omitempty"`
	Weight              string            `json:"weight" yaml:"weight"`
	Height              string            `json:"height" yaml:"height"`
	BMI                 float64           `json:"bmi" yaml:"bmi"`
	Category            string            `json:"category" yaml:"category"`
	HealthyMinKg        float64           `json:"healthyMinKg" yaml:"healthyMinKg"`
	HealthyMaxKg        float64           `json:"healthyMaxKg" yaml:"healthyMaxKg"`
	Recommendation      string            `json:"recommendation" yaml:"recommendation"`
	DeltaKg             float64           `json:"deltaKg" yaml:"deltaKg"`
	HeightAutoCorrected bool              `json:"heightAutoCorrected" yaml:"heightAutoCorrected"`
	CalculatedAt        time.Time         `json:"calculatedAt" yaml:"calculatedAt"`
	View                presentation.View `json:"view" yaml:"view"`
}

type categoryRow struct {
	Key   string `json:"key" yaml:"key"`
	Name  string `json:"name" yaml:"name"`
	Range string `json:"range" yaml:"range"`
	Color string `json:"color" yaml:"color"`
}

func toReport(projection *bmitypes.CalculationProjection) report {
	calc := projection.Calculation
	result := calc.Result
	return report{
		ID:                  calc.ID,
		SubjectID:           calc.SubjectID,
		Weight:              domain.FormatNumber(calc.Weight.Value) + " " + string(calc.Weight.Unit),
		Height:              domain.FormatNumber(calc.Height.Value) + " " + string(calc.Height.Unit),
		BMI:                 result.BMI,
		Category:            string(result.Category.Key),
		HealthyMinKg:        result.HealthyRange.MinKg,
		HealthyMaxKg:        result.HealthyRange.MaxKg,
		Recommendation:      string(result.Recommendation.Kind),
		DeltaKg:             result.Recommendation.DeltaKg,
		HeightAutoCorrected: result.HeightAutoCorrected,
		CalculatedAt:        calc.CalculatedAt,
		View:                presentation.Render(result),
	}
}

func categoryRows(categories []domain.Category) []categoryRow {
	rows := make([]categoryRow, 0, len(categories))
	for _, category := range categories {
		rows = append(rows, categoryRow{
			Key:   string(category.Key),
			Name:  category.Name,
			Range: bandRange(category.Key),
			Color: category.Color,
		})
	}
	return rows
}

func bandRange(key domain.CategoryKey) string {
	switch key {
	case domain.KeyUnderweight:
		return fmt.Sprintf("< %.1f", domain.NormalLowerBound)
	case domain.KeyNormal:
		return fmt.Sprintf("%.1f - %.1f", domain.NormalLowerBound, domain.OverweightLowerBound-0.1)
	case domain.KeyOverweight:
		return fmt.Sprintf("%.1f - %.1f", domain.OverweightLowerBound, domain.ObeseLowerBound-0.1)
	default:
		return fmt.Sprintf(">= %.1f", domain.ObeseLowerBound)
	}
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func writeReport(w io.Writer, format Format, r report) error {
	if format != FormatText {
		return encode(w, format, r)
	}
	text := presentation.Text(r.View)
	if r.ID != "" {
		text = fmt.Sprintf("ID: %s\n%s", r.ID, text)
	}
	_, err := io.WriteString(w, text)
	return err
}

func writeCategories(w io.Writer, format Format, rows []categoryRow) error {
	if format != FormatText {
		return encode(w, format, rows)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tBMI")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Key, row.Name, row.Range)
	}
	return tw.Flush()
}

func writeHistory(w io.Writer, format Format, reports []report) error {
	if format != FormatText {
		return encode(w, format, reports)
	}
	if len(reports) == 0 {
		_, err := io.WriteString(w, "no calculations recorded\n")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBJECT\tWHEN\tWEIGHT\tHEIGHT\tBMI\tCATEGORY")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
			r.ID, dash(r.SubjectID), r.CalculatedAt.Format(time.RFC3339), r.Weight, r.Height, r.BMI, r.Category)
	}
	return tw.Flush()
}

func writeForm(w io.Writer, format Format, form presentation.Form) error {
	if format != FormatText {
		return encode(w, format, form)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Weight: %s [%s]\n", dash(form.WeightValue), form.WeightUnit)
	fmt.Fprintf(&b, "Height: %s [%s]\n", dash(form.HeightValue), form.HeightUnit)
	fmt.Fprintf(&b, "Focus: %s\n", form.Focus)
	b.WriteString(presentation.Text(form.View))
	_, err := io.WriteString(w, b.String())
	return err
}

func dash(s string) string {
	if s == "" {
		return presentation.Placeholder
	}
	return s
}
