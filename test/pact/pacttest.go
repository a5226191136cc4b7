//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "bmi-api"
	ConsumerName = "bmi-web"

	StateHistoryEmpty      = "calculation history is empty"
	StateCalculationExists = "calculation calc-101 exists"
)

const (
	ExistingCalculationID = "calc-101"
	MissingCalculationID  = "calc-404"
	ExistingSubjectID     = "pact-subject"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the web consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCalculateRequest is a normal-weight adult entered in metric units.
func ExampleCalculateRequest() map[string]any {
	return map[string]any{
		"weight": map[string]any{"value": "70", "unit": "kg"},
		"height": map[string]any{"value": "1.75", "unit": "m"},
	}
}

// ExampleInvalidHeightRequest leaves the height blank.
func ExampleInvalidHeightRequest() map[string]any {
	return map[string]any{
		"weight": map[string]any{"value": "70", "unit": "kg"},
		"height": map[string]any{"value": "", "unit": "m"},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
