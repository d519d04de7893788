package kernel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/internal/testutil"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func validScenario() *Scenario {
	return &Scenario{
		Duration: 2,
		Regions: []RegionSpec{{
			Name: "east",
			Institutions: []InstitutionSpec{{
				Name: "utility",
				Facilities: []FacilitySpec{
					{Name: "mine", Kind: KindSource, Commodity: "u", Throughput: 1},
					{Name: "reactor", Kind: KindSink, Commodity: "u", Throughput: 1},
				},
			}},
		}},
	}
}

func TestLoadScenario_TestdataScenariosAreValid(t *testing.T) {
	for _, name := range []string{"single_source_sink.yaml", "two_markets.yaml", "exclusive_batches.yaml"} {
		t.Run(name, func(t *testing.T) {
			sc, err := LoadScenario(testutil.ScenarioPath(t, name))
			require.NoError(t, err)
			assert.Positive(t, sc.Duration)
			assert.NotEmpty(t, sc.Regions)
		})
	}
}

func TestLoadScenario_ParsesDurationsAndDefaults(t *testing.T) {
	// GIVEN the two-market scenario, which sets a prog timeout and leaves resource unset on the mine
	sc, err := LoadScenario(testutil.ScenarioPath(t, "two_markets.yaml"))
	require.NoError(t, err)

	// THEN the timeout is parsed and the mine trades materials
	assert.Equal(t, "5s", sc.Exchange.Prog.EffectiveTimeout().String())
	mine := sc.Regions[0].Institutions[0].Facilities[0]
	assert.Equal(t, "mine", mine.Name)
	assert.Equal(t, ResourceMaterial, mine.ResourceType())
	assert.Equal(t, 2.0, sc.Regions[0].CommodityPrefs["natl_u"])
}

func TestLoadScenario_UnknownKeyRejected(t *testing.T) {
	// GIVEN a scenario with a typo in a facility key
	path := writeScenario(t, `
duration: 1
regions:
  - name: east
    institutions:
      - name: utility
        facilities:
          - name: mine
            kind: source
            commodity: u
            througput: 4
`)

	// WHEN loading it
	_, err := LoadScenario(path)

	// THEN strict parsing fails with a ConfigurationError
	require.Error(t, err)
	assert.True(t, sim.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "througput")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
		field  string
	}{
		{"zero duration", func(s *Scenario) { s.Duration = 0 }, "duration"},
		{"unknown solver", func(s *Scenario) { s.Exchange.Solver = "simplex" }, "exchange.solver"},
		{"no regions", func(s *Scenario) { s.Regions = nil }, "regions"},
		{"empty region name", func(s *Scenario) { s.Regions[0].Name = "" }, "regions[0].name"},
		{"negative region multiplier", func(s *Scenario) { s.Regions[0].CommodityPrefs = map[string]float64{"u": -1} }, "regions[0].commodity_prefs.u"},
		{"duplicate name", func(s *Scenario) { s.Regions[0].Institutions[0].Facilities[1].Name = "mine" }, "regions[0].institutions[0].facilities[1].name"},
		{"unknown kind", func(s *Scenario) { s.Regions[0].Institutions[0].Facilities[0].Kind = "reactor" }, "regions[0].institutions[0].facilities[0].kind"},
		{"unknown resource", func(s *Scenario) { s.Regions[0].Institutions[0].Facilities[0].Resource = "energy" }, "regions[0].institutions[0].facilities[0].resource"},
		{"missing commodity", func(s *Scenario) { s.Regions[0].Institutions[0].Facilities[1].Commodity = "" }, "regions[0].institutions[0].facilities[1].commodity"},
		{"zero throughput", func(s *Scenario) { s.Regions[0].Institutions[0].Facilities[0].Throughput = 0 }, "regions[0].institutions[0].facilities[0].throughput"},
		{"negative batch", func(s *Scenario) { s.Regions[0].Institutions[0].Facilities[1].BatchSize = -2 }, "regions[0].institutions[0].facilities[1].batch_size"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN a valid scenario with one field broken
			sc := validScenario()
			tc.mutate(sc)

			// WHEN validating
			err := sc.Validate()

			// THEN a ConfigurationError names the field
			var ce *sim.ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.field, ce.Field)
		})
	}
}

func TestScenario_Validate_AcceptsValid(t *testing.T) {
	assert.NoError(t, validScenario().Validate())
}
