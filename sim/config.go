package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/relay-sim/sim/trace"
)

// TopologyConfig groups the relay hierarchy generation parameters.
type TopologyConfig struct {
	LevelWidth     int `yaml:"level_width"`      // id stride between levels; must exceed Width
	Levels         int `yaml:"levels"`           // network depth; level 1 is the edge
	Width          int `yaml:"width"`            // relays per level
	Parents        int `yaml:"parents"`          // extra parent draws per relay (fan-out)
	Origins        int `yaml:"origins"`          // origin domains "1".."Origins"
	PagesPerOrigin int `yaml:"pages_per_origin"` // pages served by each origin
	CacheSize      int `yaml:"cache_size"`       // per-relay cache bound
}

// LearningConfig groups routing policy parameters.
type LearningConfig struct {
	Policy string  `yaml:"policy"` // "q-learning" (default) or "greedy"
	Alpha  float64 `yaml:"alpha"`  // learning rate, (0, 1]
	Beta   float64 `yaml:"beta"`   // discount, >= 0
}

// LoadConfig groups the simulated relay load parameters.
type LoadConfig struct {
	InitialMax        int `yaml:"initial_max"`        // initial load drawn from [1, InitialMax]
	OverloadThreshold int `yaml:"overload_threshold"` // shed requests at or above this load; 0 disables
}

// DriverConfig groups the episode loop parameters.
type DriverConfig struct {
	Episodes   int    `yaml:"episodes"`    // maximum number of episodes
	BatchSize  int    `yaml:"batch_size"`  // requests per episode
	TraceLevel string `yaml:"trace_level"` // "none" (default) or "hops"
}

// Config is the full run configuration, loadable from a YAML file.
type Config struct {
	Seed     int64          `yaml:"seed"`
	Topology TopologyConfig `yaml:"topology"`
	Learning LearningConfig `yaml:"learning"`
	Load     LoadConfig     `yaml:"load"`
	Driver   DriverConfig   `yaml:"driver"`
}

// DefaultConfig returns the configuration of the reference hierarchy:
// 10 levels of 10 relays, 2 extra parent draws, 10 origins with 10 pages each.
func DefaultConfig() Config {
	return Config{
		Seed: 42,
		Topology: TopologyConfig{
			LevelWidth:     DefaultLevelWidth,
			Levels:         10,
			Width:          10,
			Parents:        2,
			Origins:        10,
			PagesPerOrigin: 10,
			CacheSize:      DefaultCacheSize,
		},
		Learning: LearningConfig{
			Policy: "q-learning",
			Alpha:  DefaultAlpha,
			Beta:   DefaultBeta,
		},
		Load: LoadConfig{
			InitialMax:        100,
			OverloadThreshold: 0,
		},
		Driver: DriverConfig{
			Episodes:   100,
			BatchSize:  100,
			TraceLevel: string(trace.TraceLevelNone),
		},
	}
}

// LoadConfigFile reads a YAML config on top of DefaultConfig. Fields absent
// from the file keep their defaults. Unknown fields are errors.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks parameter ranges and names.
func (c Config) Validate() error {
	t := c.Topology
	if t.Levels < 1 {
		return fmt.Errorf("levels must be >= 1, got %d", t.Levels)
	}
	if t.Width < 1 {
		return fmt.Errorf("width must be >= 1, got %d", t.Width)
	}
	if t.LevelWidth <= t.Width {
		return fmt.Errorf("level_width must exceed width (%d), got %d", t.Width, t.LevelWidth)
	}
	if t.Parents < 0 {
		return fmt.Errorf("parents must be non-negative, got %d", t.Parents)
	}
	if t.Origins < 1 {
		return fmt.Errorf("origins must be >= 1, got %d", t.Origins)
	}
	if t.PagesPerOrigin < 1 {
		return fmt.Errorf("pages_per_origin must be >= 1, got %d", t.PagesPerOrigin)
	}
	if t.CacheSize < 1 {
		return fmt.Errorf("cache_size must be >= 1, got %d", t.CacheSize)
	}

	l := c.Learning
	if !IsValidRoutingPolicy(l.Policy) {
		return fmt.Errorf("unknown routing policy %q", l.Policy)
	}
	if l.Alpha <= 0 || l.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0, 1], got %f", l.Alpha)
	}
	if l.Beta < 0 {
		return fmt.Errorf("beta must be non-negative, got %f", l.Beta)
	}

	if c.Load.InitialMax < 1 {
		return fmt.Errorf("initial_max must be >= 1, got %d", c.Load.InitialMax)
	}
	if c.Load.OverloadThreshold < 0 {
		return fmt.Errorf("overload_threshold must be non-negative, got %d", c.Load.OverloadThreshold)
	}

	d := c.Driver
	if d.Episodes < 1 {
		return fmt.Errorf("episodes must be >= 1, got %d", d.Episodes)
	}
	if d.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", d.BatchSize)
	}
	if !trace.IsValidTraceLevel(d.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", d.TraceLevel)
	}
	return nil
}
