package sim

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Solver names accepted in ExchangeConfig.Solver.
const (
	SolverGreedy = "greedy"
	SolverLPMIP  = "lp-mip"
)

// Preconditioner names accepted in PreconditionerConfig.Name.
const (
	PreconditionerGreedy = "greedy"
	PreconditionerNone   = "none"
)

// Weight orders accepted in PreconditionerConfig.Order.
const (
	WeightOrderNormal  = "normal"
	WeightOrderReverse = "reverse"
)

// DefaultProgTimeout bounds a single LP/MIP solve when the configuration does not.
const DefaultProgTimeout = 5 * time.Second

// ValidSolvers is the set of recognized solver names. Empty selects the greedy solver.
var ValidSolvers = map[string]bool{"": true, SolverGreedy: true, SolverLPMIP: true}

// ValidPreconditioners is the set of recognized preconditioner names.
// Empty selects the greedy preconditioner.
var ValidPreconditioners = map[string]bool{"": true, PreconditionerGreedy: true, PreconditionerNone: true}

// ValidWeightOrders is the set of recognized commodity weight orders.
var ValidWeightOrders = map[string]bool{"": true, WeightOrderNormal: true, WeightOrderReverse: true}

// ExchangeConfig is the fixed, run-wide configuration of the exchange. It is
// read once at setup and never changes while the simulation runs.
// Nil pointer fields mean "not set in YAML" and fall back to defaults.
type ExchangeConfig struct {
	Solver          string               `yaml:"solver"`
	ExclusiveOrders *bool                `yaml:"exclusive_orders"`
	Preconditioner  PreconditionerConfig `yaml:"preconditioner"`
	Prog            ProgConfig           `yaml:"prog"`
}

// PreconditionerConfig configures the greedy preconditioner.
type PreconditionerConfig struct {
	Name             string             `yaml:"name"`
	Order            string             `yaml:"order"`
	CommodityWeights map[string]float64 `yaml:"commodity_weights"`
}

// ProgConfig configures the LP/MIP solver.
type ProgConfig struct {
	Timeout time.Duration `yaml:"timeout"` // wall-clock bound per solve; 0 = DefaultProgTimeout
	Verbose bool          `yaml:"verbose"`
}

// SolverName returns the configured solver, defaulting to greedy.
func (c ExchangeConfig) SolverName() string {
	if c.Solver == "" {
		return SolverGreedy
	}
	return c.Solver
}

// Exclusive reports whether exclusive orders are honored. Defaults to true.
func (c ExchangeConfig) Exclusive() bool {
	if c.ExclusiveOrders == nil {
		return true
	}
	return *c.ExclusiveOrders
}

// PreconditionerName returns the configured preconditioner, defaulting to greedy.
func (c PreconditionerConfig) PreconditionerName() string {
	if c.Name == "" {
		return PreconditionerGreedy
	}
	return c.Name
}

// WeightOrder returns the configured weight order, defaulting to normal.
func (c PreconditionerConfig) WeightOrder() string {
	if c.Order == "" {
		return WeightOrderNormal
	}
	return c.Order
}

// EffectiveTimeout returns the solve bound, defaulting to DefaultProgTimeout.
func (c ProgConfig) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultProgTimeout
	}
	return c.Timeout
}

// Validate checks names and parameter ranges. Every failure is a ConfigurationError.
func (c ExchangeConfig) Validate() error {
	if !ValidSolvers[c.Solver] {
		return NewConfigurationError("solver", "unknown solver %q; valid solvers: [%s]", c.Solver, validNames(ValidSolvers))
	}
	if !ValidPreconditioners[c.Preconditioner.Name] {
		return NewConfigurationError("preconditioner.name", "unknown preconditioner %q; valid preconditioners: [%s]",
			c.Preconditioner.Name, validNames(ValidPreconditioners))
	}
	if !ValidWeightOrders[c.Preconditioner.Order] {
		return NewConfigurationError("preconditioner.order", "unknown weight order %q; valid orders: [%s]",
			c.Preconditioner.Order, validNames(ValidWeightOrders))
	}
	for commod, w := range c.Preconditioner.CommodityWeights {
		if w < 0 {
			return NewConfigurationError("preconditioner.commodity_weights", "weight for %q must be non-negative, got %f", commod, w)
		}
	}
	if c.Prog.Timeout < 0 {
		return NewConfigurationError("prog.timeout", "must be non-negative, got %s", c.Prog.Timeout)
	}
	return nil
}

// LoadExchangeConfig reads and strictly parses a YAML exchange configuration.
// Unknown keys are rejected so that typos fail loudly.
func LoadExchangeConfig(path string) (*ExchangeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading exchange config: %w", err)
	}
	var cfg ExchangeConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, NewConfigurationError("", "parsing exchange config %s: %v", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validNames(valid map[string]bool) string {
	names := make([]string, 0, len(valid))
	for name := range valid {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
