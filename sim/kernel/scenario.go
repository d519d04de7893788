// Package kernel runs a scenario: it builds the agent tree described in a
// scenario file, then for each timestep lets sources produce and runs one
// exchange round per resource type, materials before products.
package kernel

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
)

// Facility kinds accepted in FacilitySpec.Kind.
const (
	KindSource = "source"
	KindSink   = "sink"
)

// Resource types accepted in FacilitySpec.Resource.
const (
	ResourceMaterial = "material"
	ResourceProduct  = "product"
)

var (
	validKinds     = map[string]bool{KindSource: true, KindSink: true}
	validResources = map[string]bool{"": true, ResourceMaterial: true, ResourceProduct: true}
)

// Scenario is a complete simulation input.
type Scenario struct {
	Duration int                `yaml:"duration"` // number of timesteps
	Exchange sim.ExchangeConfig `yaml:"exchange"`
	Regions  []RegionSpec       `yaml:"regions"`
}

// RegionSpec describes a region and everything under it.
type RegionSpec struct {
	Name           string             `yaml:"name"`
	CommodityPrefs map[string]float64 `yaml:"commodity_prefs"` // commodity → preference multiplier
	Institutions   []InstitutionSpec  `yaml:"institutions"`
}

// InstitutionSpec describes an institution and its facilities.
type InstitutionSpec struct {
	Name         string         `yaml:"name"`
	InHouseBonus float64        `yaml:"in_house_bonus"`
	Facilities   []FacilitySpec `yaml:"facilities"`
}

// FacilitySpec describes one trading facility. Sources use Throughput and
// Inventory; sinks use Throughput, Capacity, BatchSize and Preference.
type FacilitySpec struct {
	Name       string  `yaml:"name"`
	Kind       string  `yaml:"kind"`
	Resource   string  `yaml:"resource"` // default material
	Commodity  string  `yaml:"commodity"`
	Recipe     string  `yaml:"recipe"` // material recipe or product quality
	Throughput float64 `yaml:"throughput"`
	Inventory  float64 `yaml:"inventory"`
	Capacity   float64 `yaml:"capacity"`
	BatchSize  float64 `yaml:"batch_size"`
	Preference float64 `yaml:"preference"`
}

// ResourceType returns the facility's resource type, defaulting to material.
func (f FacilitySpec) ResourceType() string {
	if f.Resource == "" {
		return ResourceMaterial
	}
	return f.Resource
}

// LoadScenario reads, strictly parses and validates a scenario file.
// Unrecognized keys are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, sim.NewConfigurationError("", "parsing scenario %s: %v", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario. Every failure is a ConfigurationError naming
// the offending field.
func (s *Scenario) Validate() error {
	if s.Duration <= 0 {
		return sim.NewConfigurationError("duration", "must be positive, got %d", s.Duration)
	}
	if err := s.Exchange.Validate(); err != nil {
		var ce *sim.ConfigurationError
		if errors.As(err, &ce) && ce.Field != "" {
			return sim.NewConfigurationError("exchange."+ce.Field, "%s", ce.Msg)
		}
		return err
	}
	if len(s.Regions) == 0 {
		return sim.NewConfigurationError("regions", "at least one region required")
	}
	names := make(map[string]string)
	unique := func(field, name string) error {
		if name == "" {
			return sim.NewConfigurationError(field+".name", "must not be empty")
		}
		if prev, ok := names[name]; ok {
			return sim.NewConfigurationError(field+".name", "%q already used by %s", name, prev)
		}
		names[name] = field
		return nil
	}
	for i, r := range s.Regions {
		rf := fmt.Sprintf("regions[%d]", i)
		if err := unique(rf, r.Name); err != nil {
			return err
		}
		for commod, m := range r.CommodityPrefs {
			if err := validateFiniteNonNegative(fmt.Sprintf("%s.commodity_prefs.%s", rf, commod), m); err != nil {
				return err
			}
		}
		for j, inst := range r.Institutions {
			inf := fmt.Sprintf("%s.institutions[%d]", rf, j)
			if err := unique(inf, inst.Name); err != nil {
				return err
			}
			if err := validateFinite(inf+".in_house_bonus", inst.InHouseBonus); err != nil {
				return err
			}
			for k := range inst.Facilities {
				ff := fmt.Sprintf("%s.facilities[%d]", inf, k)
				if err := unique(ff, inst.Facilities[k].Name); err != nil {
					return err
				}
				if err := validateFacility(ff, &inst.Facilities[k]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateFacility(prefix string, f *FacilitySpec) error {
	if !validKinds[f.Kind] {
		return sim.NewConfigurationError(prefix+".kind", "unknown kind %q; valid: source, sink", f.Kind)
	}
	if !validResources[f.Resource] {
		return sim.NewConfigurationError(prefix+".resource", "unknown resource %q; valid: material, product", f.Resource)
	}
	if f.Commodity == "" {
		return sim.NewConfigurationError(prefix+".commodity", "must not be empty")
	}
	if f.Throughput <= 0 || math.IsInf(f.Throughput, 0) || math.IsNaN(f.Throughput) {
		return sim.NewConfigurationError(prefix+".throughput", "must be a finite positive number, got %f", f.Throughput)
	}
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"inventory", f.Inventory},
		{"capacity", f.Capacity},
		{"batch_size", f.BatchSize},
		{"preference", f.Preference},
	} {
		if err := validateFiniteNonNegative(prefix+"."+v.name, v.val); err != nil {
			return err
		}
	}
	return nil
}

func validateFinite(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return sim.NewConfigurationError(name, "must be a finite number, got %f", val)
	}
	return nil
}

func validateFiniteNonNegative(name string, val float64) error {
	if err := validateFinite(name, val); err != nil {
		return err
	}
	if val < 0 {
		return sim.NewConfigurationError(name, "must be non-negative, got %f", val)
	}
	return nil
}
