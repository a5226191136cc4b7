package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := New(&out).Run(context.Background(), append([]string{"bmi"}, args...))
	return out.String(), err
}

func TestCalc_TextOutput(t *testing.T) {
	out, err := run(t, "calc", "--weight", "70", "--height", "1.75")
	require.NoError(t, err)
	assert.Contains(t, out, "BMI: 22.9")
	assert.Contains(t, out, "Category: Normal (Healthy weight)")
	assert.Contains(t, out, "For your height, a healthy weight range is 56.7 kg – 76.3 kg.")
}

func TestCalc_PositionalArgumentsAndUnits(t *testing.T) {
	out, err := run(t, "--format", "json", "calc", "--weight-unit", "lb", "--height-unit", "in", "154", "69")
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 22.7, r.BMI)
	assert.Equal(t, "normal", r.Category)
	assert.Equal(t, "154 lb", r.Weight)
	assert.Empty(t, r.ID)
}

func TestCalc_AutoCorrectedHeightPrintsNote(t *testing.T) {
	out, err := run(t, "calc", "--weight", "70", "--height", "175")
	require.NoError(t, err)
	assert.Contains(t, out, "BMI: 22.9")
	assert.Contains(t, out, "I converted it automatically.")
}

func TestCalc_YAMLOutput(t *testing.T) {
	out, err := run(t, "--format", "yaml", "calc", "--weight", "45", "--height", "170", "--height-unit", "cm")
	require.NoError(t, err)

	var r map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, 15.6, r["bmi"])
	assert.Equal(t, "underweight", r["category"])
	assert.Equal(t, "gain", r["recommendation"])
}

func TestCalc_ValidationMessages(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing weight", []string{"calc", "--height", "1.75"}, "Please enter a valid weight."},
		{"bad height", []string{"calc", "--weight", "70", "--height", "tall"}, "Please enter a valid height."},
		{"zero height", []string{"calc", "--weight", "70", "--height", "0"}, "Please enter a valid height."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := run(t, "--format", "xml", "categories")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestCategories_Table(t *testing.T) {
	out, err := run(t, "categories")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "underweight")
	assert.Contains(t, lines[1], "< 18.5")
	assert.Contains(t, lines[3], "25.0 - 29.9")
	assert.Contains(t, lines[4], ">= 30.0")
}

func TestReset_ShowsPlaceholders(t *testing.T) {
	out, err := run(t, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Weight: — [kg]")
	assert.Contains(t, out, "Height: — [m]")
	assert.Contains(t, out, "BMI: —")
}

func TestHistory_RecordListDeletePurge(t *testing.T) {
	history := filepath.Join(t.TempDir(), "history.db")

	out, err := run(t, "--history", history, "--format", "json", "calc", "--weight", "100", "--height", "2", "--subject", "alice")
	require.NoError(t, err)
	var recorded report
	require.NoError(t, json.Unmarshal([]byte(out), &recorded))
	require.NotEmpty(t, recorded.ID)
	assert.Equal(t, 25.0, recorded.BMI)
	assert.Equal(t, "overweight", recorded.Category)

	_, err = run(t, "--history", history, "calc", "--weight", "60", "--height", "1.6", "--subject", "bob")
	require.NoError(t, err)

	out, err = run(t, "--history", history, "--format", "json", "history", "list", "--subject", "alice")
	require.NoError(t, err)
	var listed []report
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, recorded.ID, listed[0].ID)

	out, err = run(t, "--history", history, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SUBJECT")
	assert.Contains(t, out, "bob")

	out, err = run(t, "--history", history, "history", "delete", recorded.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+recorded.ID)

	_, err = run(t, "--history", history, "history", "delete", recorded.ID)
	require.Error(t, err)
	assert.Equal(t, "calculation not found", err.Error())

	out, err = run(t, "--history", history, "history", "purge", "--older-than", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 calculation(s)")
}

func TestHistory_RequiresPath(t *testing.T) {
	t.Setenv("BMI_HISTORY", "")
	_, err := run(t, "history", "list")
	require.ErrorIs(t, err, errHistoryRequired)
}
