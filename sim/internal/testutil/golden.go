// Package testutil provides shared test infrastructure for the simulator.
// It consolidates golden scenario types, fake traders and assertion helpers
// used across the sim/ test packages.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gopkg.in/yaml.v3"
)

// GoldenDataset represents the structure of testdata/golden_exchange.yaml.
type GoldenDataset struct {
	Cases []GoldenCase `yaml:"cases"`
}

// GoldenCase is one scenario run with one solver configuration.
type GoldenCase struct {
	Name            string        `yaml:"name"`
	Scenario        string        `yaml:"scenario"` // file under testdata/scenarios
	Solver          string        `yaml:"solver"`
	ExclusiveOrders *bool         `yaml:"exclusive_orders"`
	Expected        GoldenMetrics `yaml:"expected"`
}

// GoldenMetrics represents the expected outcome of a golden case.
type GoldenMetrics struct {
	// Exact match metrics
	Rounds       int `yaml:"rounds"`
	Transactions int `yaml:"transactions"`

	// Delivered quantity per commodity and per receiving agent name
	Transacted map[string]float64 `yaml:"transacted"`
	Received   map[string]float64 `yaml:"received"`
}

// testdataDir resolves the repo-root testdata directory relative to this
// source file: sim/internal/testutil/ → testdata/.
func testdataDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata")
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	path := filepath.Join(testdataDir(t), "golden_exchange.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := yaml.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// ScenarioPath returns the path of a scenario file under testdata/scenarios.
func ScenarioPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(testdataDir(t), "scenarios", name)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
