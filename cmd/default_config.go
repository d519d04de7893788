package cmd

import (
	"github.com/sirupsen/logrus"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/kernel"
)

// loadScenario reads a scenario and, when exchangePath is set, replaces its
// exchange section with the standalone exchange config found there. Both
// files are parsed strictly.
func loadScenario(path, exchangePath string) (*kernel.Scenario, error) {
	if path == "" {
		return nil, sim.NewConfigurationError("scenario", "no scenario file given")
	}
	sc, err := kernel.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	if exchangePath == "" {
		return sc, nil
	}
	cfg, err := sim.LoadExchangeConfig(exchangePath)
	if err != nil {
		return nil, err
	}
	logrus.Infof("Using exchange config from %s", exchangePath)
	sc.Exchange = *cfg
	return sc, nil
}

// applyOverrides applies CLI choices on top of the scenario's exchange
// config. An empty solver and a nil exclusive flag leave the scenario as is.
func applyOverrides(sc *kernel.Scenario, solver string, exclusive *bool) error {
	if solver != "" {
		sc.Exchange.Solver = solver
	}
	if exclusive != nil {
		v := *exclusive
		sc.Exchange.ExclusiveOrders = &v
	}
	return sc.Validate()
}
