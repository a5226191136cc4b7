// Package presentation turns calculation results into display-ready records.
package presentation

import (
	"fmt"
	"strings"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
)

// Placeholder is shown in every slot when no result is available.
const Placeholder = "—"

// View is what a front end paints after a calculation or a reset.
type View struct {
	BMI           string `json:"bmi" yaml:"bmi"`
	CategoryName  string `json:"categoryName" yaml:"categoryName"`
	CategoryColor string `json:"categoryColor" yaml:"categoryColor"`
	Message       string `json:"message" yaml:"message"`
	Note          string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Form mirrors the input form state after a reset.
type Form struct {
	WeightValue string `json:"weightValue" yaml:"weightValue"`
	WeightUnit  string `json:"weightUnit" yaml:"weightUnit"`
	HeightValue string `json:"heightValue" yaml:"heightValue"`
	HeightUnit  string `json:"heightUnit" yaml:"heightUnit"`
	Focus       string `json:"focus" yaml:"focus"`
	View        View   `json:"view" yaml:"view"`
}

// Render builds the view for a successful calculation.
func Render(result domain.Result) View {
	view := View{
		BMI:           fmt.Sprintf("%.1f", result.BMI),
		CategoryName:  result.Category.Name,
		CategoryColor: result.Category.Color,
		Message:       result.Category.Info + " " + result.Recommendation.Message,
	}
	if notes := result.Notes(); len(notes) > 0 {
		view.Note = strings.Join(notes, "\n")
	}
	return view
}

// PlaceholderView is the cleared state. The message is emptied, not dashed.
func PlaceholderView() View {
	return View{
		BMI:          Placeholder,
		CategoryName: Placeholder,
	}
}

// DefaultForm combines the reset form state with the placeholder view.
func DefaultForm(state types.FormState) Form {
	return Form{
		WeightValue: state.WeightValue,
		WeightUnit:  string(state.WeightUnit),
		HeightValue: state.HeightValue,
		HeightUnit:  string(state.HeightUnit),
		Focus:       state.FocusField,
		View:        PlaceholderView(),
	}
}

// Text lays a view out for a terminal.
func Text(view View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BMI: %s\n", view.BMI)
	fmt.Fprintf(&b, "Category: %s\n", view.CategoryName)
	if view.Message != "" {
		b.WriteString(view.Message)
		b.WriteString("\n")
	}
	if view.Note != "" {
		b.WriteString(view.Note)
		b.WriteString("\n")
	}
	return b.String()
}
