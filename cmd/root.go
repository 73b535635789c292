package cmd

import (
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/kshprenger/matrix/sim"
	"github.com/kshprenger/matrix/sim/systems"
)

var (
	// CLI flags for the engine
	seed      uint64 // Master seed of the run
	budget    uint64 // Virtual time budget (in jiffies)
	logLevel  string // Log verbosity level
	bandwidth uint64 // Per-process outbound bandwidth in bytes per jiffy (0 = unbounded)

	// CLI flags for scenario selection
	system   string // Name of a built-in system
	scenario string // Path to a YAML or TOML scenario file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Deterministic discrete-event simulator for distributed systems",
}

// systemNames returns the built-in system names in stable order.
func systemNames() []string {
	names := make([]string, 0, len(systems.Scenarios))
	for name := range systems.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runCmd executes one simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		var builder *sim.Builder
		switch {
		case scenario != "":
			cfg, err := sim.LoadScenarioConfig(scenario)
			if err != nil {
				logrus.Fatalf("Unable to load scenario: %v", err)
			}
			builder, err = cfg.Builder(systems.Behaviors)
			if err != nil {
				logrus.Fatalf("Invalid scenario: %v", err)
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Seed
			}
			if !cmd.Flags().Changed("budget") && cfg.TimeBudget > 0 {
				budget = cfg.TimeBudget
			}
		case system != "":
			preset, ok := systems.Scenarios[system]
			if !ok {
				logrus.Fatalf("Unknown system %q, have %v", system, systemNames())
			}
			builder = preset()
		default:
			logrus.Fatalf("No system or scenario given, have systems %v", systemNames())
		}

		// Explicit flags beat the scenario file; presets take the seed and
		// budget flag values, defaults included. Bandwidth is overridden only
		// when the flag is given.
		if scenario == "" || cmd.Flags().Changed("seed") {
			builder.Seed(sim.Seed(seed))
		}
		if scenario == "" || cmd.Flags().Changed("budget") {
			builder.TimeBudget(sim.Jiffies(budget))
		}
		if cmd.Flags().Changed("bandwidth") {
			if bandwidth == 0 {
				builder.NICBandwidth(sim.Unbounded())
			} else {
				builder.NICBandwidth(sim.Bounded(bandwidth))
			}
		}

		logrus.Infof("Starting simulation with seed=%d, budget=%d jiffies", seed, budget)
		startTime := time.Now()

		s, err := builder.Build()
		if err != nil {
			logrus.Fatalf("Unable to build simulation: %v", err)
		}
		s.Run()
		s.Metrics().Print()

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Uint64Var(&seed, "seed", 42, "Master seed for deterministic replay")
	runCmd.Flags().Uint64Var(&budget, "budget", uint64(sim.DefaultTimeBudget), "Virtual time budget (in jiffies)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().Uint64Var(&bandwidth, "bandwidth", 0, "Outbound bandwidth per process in bytes per jiffy (0 = unbounded)")

	runCmd.Flags().StringVar(&system, "system", "", "Built-in system to run")
	runCmd.Flags().StringVar(&scenario, "scenario", "", "Path to a YAML or TOML scenario file")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
