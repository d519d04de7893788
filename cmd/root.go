package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fuelcycle-sim/fuelcycle-sim/sim/kernel"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/metrics"
	"github.com/fuelcycle-sim/fuelcycle-sim/sim/trace"
)

var (
	scenarioPath       string // Scenario YAML file
	logLevel           string // Log verbosity level
	solverName         string // Overrides exchange.solver
	exclusiveOrders    bool   // Overrides exchange.exclusive_orders
	exchangeConfigPath string // Optional exchange config YAML replacing the scenario's
	traceFile          string // Where to write the exchange trace
	metricsFile        string // Where to write prometheus textfile metrics
	simIDFlag          string // Fixed simulation id
)

// runOptions is everything `run` needs, resolved from flags.
type runOptions struct {
	ScenarioPath       string
	ExchangeConfigPath string
	Solver             string
	ExclusiveOrders    *bool
	TraceFile          string
	MetricsFile        string
	SimID              string
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "fcsim",
	Short: "Agent-based fuel cycle simulator with a dynamic resource exchange",
}

// runCmd executes a scenario using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		opts := runOptions{
			ScenarioPath:       scenarioPath,
			ExchangeConfigPath: exchangeConfigPath,
			Solver:             solverName,
			TraceFile:          traceFile,
			MetricsFile:        metricsFile,
			SimID:              simIDFlag,
		}
		// Only override the scenario when the user set the flag explicitly.
		if cmd.Flags().Changed("exclusive-orders") {
			opts.ExclusiveOrders = &exclusiveOrders
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		startTime := time.Now()
		if err := runScenario(ctx, opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime).Round(time.Millisecond))
	},
}

// validateCmd checks a scenario without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a scenario file",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if err := validateScenario(scenarioPath, exchangeConfigPath, os.Stdout); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runScenario loads, runs and reports one scenario.
func runScenario(ctx context.Context, opts runOptions, stdout io.Writer) error {
	sc, err := loadScenario(opts.ScenarioPath, opts.ExchangeConfigPath)
	if err != nil {
		return err
	}
	if err := applyOverrides(sc, opts.Solver, opts.ExclusiveOrders); err != nil {
		return err
	}

	simID := uuid.New()
	if opts.SimID != "" {
		if simID, err = uuid.Parse(opts.SimID); err != nil {
			return fmt.Errorf("invalid --sim-id %q: %w", opts.SimID, err)
		}
	}

	et := trace.NewExchangeTrace(simID)
	reg := prometheus.NewRegistry()
	m, err := metrics.NewExchange(reg)
	if err != nil {
		return err
	}

	logrus.Infof("Starting scenario %s with solver=%s, exclusive_orders=%v",
		opts.ScenarioPath, sc.Exchange.SolverName(), sc.Exchange.Exclusive())
	s, err := kernel.NewSimulator(sc, kernel.WithTrace(et), kernel.WithMetrics(m), kernel.WithSimID(simID))
	if err != nil {
		return err
	}
	res, err := s.Run(ctx)
	if err != nil {
		return err
	}

	if err := printSummary(stdout, res, trace.Summarize(et)); err != nil {
		return err
	}
	if opts.TraceFile != "" {
		if err := writeTrace(opts.TraceFile, et); err != nil {
			return err
		}
		logrus.Infof("Exchange trace written to %s", opts.TraceFile)
	}
	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(reg, opts.MetricsFile); err != nil {
			return err
		}
		logrus.Infof("Metrics written to %s", opts.MetricsFile)
	}
	return nil
}

// validateScenario loads a scenario and reports its shape.
func validateScenario(path, exchangePath string, stdout io.Writer) error {
	sc, err := loadScenario(path, exchangePath)
	if err != nil {
		return err
	}
	facilities := 0
	for _, r := range sc.Regions {
		for _, inst := range r.Institutions {
			facilities += len(inst.Facilities)
		}
	}
	_, err = fmt.Fprintf(stdout, "Scenario %s is valid: %d steps, %d regions, %d facilities, solver=%s\n",
		path, sc.Duration, len(sc.Regions), facilities, sc.Exchange.SolverName())
	return err
}

// runReport is the document printed to stdout after a run.
type runReport struct {
	SimID          string              `yaml:"sim_id"`
	Steps          int                 `yaml:"steps"`
	Rounds         int                 `yaml:"rounds"`
	TimedOutRounds int                 `yaml:"timed_out_rounds"`
	Transactions   int                 `yaml:"transactions"`
	Transacted     map[string]float64  `yaml:"transacted"`
	Received       map[string]float64  `yaml:"received"`
	Sent           map[string]float64  `yaml:"sent"`
	Exchange       *trace.TraceSummary `yaml:"exchange"`
}

func printSummary(w io.Writer, res *kernel.Result, sum *trace.TraceSummary) error {
	report := runReport{
		SimID:          res.SimID.String(),
		Steps:          res.Steps,
		Rounds:         res.Rounds,
		TimedOutRounds: res.TimedOutRounds,
		Transactions:   len(res.Transactions),
		Transacted:     res.Transacted,
		Received:       res.Received,
		Sent:           res.Sent,
		Exchange:       sum,
	}
	if _, err := fmt.Fprintln(w, "=== Simulation Summary ==="); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return enc.Close()
}

func writeTrace(path string, et *trace.ExchangeTrace) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	if err := et.WriteYAML(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, validateCmd} {
		c.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
		c.Flags().StringVar(&exchangeConfigPath, "exchange-config", "", "Exchange config YAML replacing the scenario's exchange section")
		_ = c.MarkFlagRequired("scenario")
	}

	runCmd.Flags().StringVar(&solverName, "solver", "", "Exchange solver (greedy, lp-mip); overrides the scenario")
	runCmd.Flags().BoolVar(&exclusiveOrders, "exclusive-orders", true, "Honor exclusive requests and bids; overrides the scenario")
	runCmd.Flags().StringVar(&traceFile, "trace-file", "", "Write the exchange trace as YAML to this file")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write prometheus metrics in textfile format to this file")
	runCmd.Flags().StringVar(&simIDFlag, "sim-id", "", "Fixed simulation id (UUID); random when empty")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
