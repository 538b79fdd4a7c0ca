package cmd

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/inference-sim/relay-sim/sim"
	"github.com/inference-sim/relay-sim/sim/driver"
	"github.com/inference-sim/relay-sim/sim/topology"
)

var (
	configPath string // Optional YAML config; flags override it
	seed       int64  // Master seed for all random streams
	logLevel   string // Log verbosity level
	metricsOut string // Prometheus textfile to write after the run

	// CLI flags for the relay hierarchy
	levels         int // Network depth
	width          int // Relays per level
	origins        int // Number of origin domains
	pagesPerOrigin int // Pages served by each origin
	parents        int // Extra parent draws per relay
	cacheSize      int // Per-relay cache bound

	// CLI flags for learning and load
	alpha             float64 // Learning rate
	beta              float64 // Discount
	policyName        string  // Routing policy name
	overloadThreshold int     // Load at which relays shed requests; 0 disables

	// CLI flags for the episode loop
	episodes   int    // Maximum number of episodes
	batchSize  int    // Requests per episode
	traceLevel string // Hop trace verbosity
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "relay-sim",
	Short: "Q-learning routing simulator for a layered relay network",
}

// runCmd builds a network and drives request episodes against it
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the relay routing simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := sim.DefaultConfig()
		if configPath != "" {
			cfg, err = sim.LoadConfigFile(configPath)
			if err != nil {
				logrus.Fatalf("unable to read config; %v", err)
			}
		}
		applyFlagOverrides(cmd.Flags(), &cfg)
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("invalid configuration: %v", err)
		}

		logrus.Infof("Starting simulation with %d levels of %d relays, %d origins, seed %d",
			cfg.Topology.Levels, cfg.Topology.Width, cfg.Topology.Origins, cfg.Seed)

		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
		net, err := topology.Build(cfg, rng)
		if err != nil {
			logrus.Fatalf("building topology: %v", err)
		}

		reg := prometheus.NewRegistry()
		report := driver.New(net, rng, driver.NewMetrics(reg)).Run()
		report.Print(os.Stdout)

		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			for _, o := range net.Origins() {
				logrus.Debugf("greedy routes for %s: %v", o.Domain(), net.GreedyRoutes(o.Domain()))
			}
		}

		if metricsOut != "" {
			if err := prometheus.WriteToTextfile(metricsOut, reg); err != nil {
				logrus.Fatalf("writing metrics: %v", err)
			}
			logrus.Infof("Metrics written to: %s", metricsOut)
		}
		logrus.Info("Simulation complete.")
	},
}

// applyFlagOverrides copies every explicitly set flag into cfg, so the
// precedence is flag > config file > default.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *sim.Config) {
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("levels") {
		cfg.Topology.Levels = levels
	}
	if flags.Changed("width") {
		cfg.Topology.Width = width
	}
	if flags.Changed("origins") {
		cfg.Topology.Origins = origins
	}
	if flags.Changed("pages") {
		cfg.Topology.PagesPerOrigin = pagesPerOrigin
	}
	if flags.Changed("parents") {
		cfg.Topology.Parents = parents
	}
	if flags.Changed("cache-size") {
		cfg.Topology.CacheSize = cacheSize
	}
	if flags.Changed("alpha") {
		cfg.Learning.Alpha = alpha
	}
	if flags.Changed("beta") {
		cfg.Learning.Beta = beta
	}
	if flags.Changed("policy") {
		cfg.Learning.Policy = policyName
	}
	if flags.Changed("overload-threshold") {
		cfg.Load.OverloadThreshold = overloadThreshold
	}
	if flags.Changed("episodes") {
		cfg.Driver.Episodes = episodes
	}
	if flags.Changed("batch-size") {
		cfg.Driver.BatchSize = batchSize
	}
	if flags.Changed("trace-level") {
		cfg.Driver.TraceLevel = traceLevel
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	defaults := sim.DefaultConfig()

	runCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config (flags override its values)")
	runCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for topology, exploration and request generation")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics in text format to this file")

	// Topology
	runCmd.Flags().IntVar(&levels, "levels", defaults.Topology.Levels, "Number of relay levels")
	runCmd.Flags().IntVar(&width, "width", defaults.Topology.Width, "Relays per level")
	runCmd.Flags().IntVar(&origins, "origins", defaults.Topology.Origins, "Number of origin domains")
	runCmd.Flags().IntVar(&pagesPerOrigin, "pages", defaults.Topology.PagesPerOrigin, "Pages per origin")
	runCmd.Flags().IntVar(&parents, "parents", defaults.Topology.Parents, "Extra parent draws per relay")
	runCmd.Flags().IntVar(&cacheSize, "cache-size", defaults.Topology.CacheSize, "Per-relay response cache size")

	// Learning and load
	runCmd.Flags().Float64Var(&alpha, "alpha", defaults.Learning.Alpha, "Q-learning rate")
	runCmd.Flags().Float64Var(&beta, "beta", defaults.Learning.Beta, "Q-learning discount")
	runCmd.Flags().StringVar(&policyName, "policy", defaults.Learning.Policy, "Routing policy (q-learning, greedy)")
	runCmd.Flags().IntVar(&overloadThreshold, "overload-threshold", defaults.Load.OverloadThreshold, "Shed requests at or above this load (0 disables)")

	// Episodes
	runCmd.Flags().IntVar(&episodes, "episodes", defaults.Driver.Episodes, "Maximum number of episodes")
	runCmd.Flags().IntVar(&batchSize, "batch-size", defaults.Driver.BatchSize, "Requests per episode")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", defaults.Driver.TraceLevel, "Hop trace level (none, hops)")

	rootCmd.AddCommand(runCmd)
}
