package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/application/types"
	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/domain"
)

func calculate(t *testing.T, kg float64, h domain.HeightMeasurement) domain.Result {
	t.Helper()
	result, err := domain.Calculate(domain.WeightMeasurement{Value: kg, Unit: domain.Kilogram}, h)
	require.NoError(t, err)
	return result
}

func TestRender_Normal(t *testing.T) {
	view := Render(calculate(t, 70, domain.HeightMeasurement{Value: 1.75, Unit: domain.Meter}))

	assert.Equal(t, "22.9", view.BMI)
	assert.Equal(t, "Normal (Healthy weight)", view.CategoryName)
	assert.Equal(t, domain.ColorSuccess, view.CategoryColor)
	assert.Equal(t,
		"You are within a healthy BMI range. Keep maintaining healthy habits! "+
			"For your height, a healthy weight range is 56.7 kg – 76.3 kg. You are already within the healthy range — great job!",
		view.Message)
	assert.Empty(t, view.Note)
}

func TestRender_WholeNumberKeepsOneDecimal(t *testing.T) {
	view := Render(calculate(t, 100, domain.HeightMeasurement{Value: 2, Unit: domain.Meter}))
	assert.Equal(t, "25.0", view.BMI)
	assert.Equal(t, "Overweight", view.CategoryName)
}

func TestRender_AutoCorrectedHeightAddsNote(t *testing.T) {
	view := Render(calculate(t, 70, domain.HeightMeasurement{Value: 175, Unit: domain.Meter}))
	assert.Equal(t, "22.9", view.BMI)
	assert.Equal(t, domain.HeightAutoCorrectedNote, view.Note)

	text := Text(view)
	assert.Contains(t, text, "BMI: 22.9\n")
	assert.Contains(t, text, domain.HeightAutoCorrectedNote)
}

func TestDefaultForm_ResetsToPlaceholders(t *testing.T) {
	form := DefaultForm(types.FormState{
		WeightUnit: domain.DefaultWeightUnit,
		HeightUnit: domain.DefaultHeightUnit,
		FocusField: domain.FieldWeight,
	})

	assert.Equal(t, "kg", form.WeightUnit)
	assert.Equal(t, "m", form.HeightUnit)
	assert.Equal(t, "weight", form.Focus)
	assert.Equal(t, Placeholder, form.View.BMI)
	assert.Equal(t, Placeholder, form.View.CategoryName)
	assert.Empty(t, form.View.Message)
	assert.Equal(t, "BMI: —\nCategory: —\n", Text(form.View))
	assert.Empty(t, form.View.CategoryColor)
}
