package sim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExampleConfigs_Reference verifies that reference.yaml spells out the
// defaults exactly.
func TestExampleConfigs_Reference(t *testing.T) {
	// GIVEN the reference.yaml example config
	cfg, err := LoadConfigFile(filepath.Join("..", "examples", "reference.yaml"))
	require.NoError(t, err, "failed to load reference.yaml")

	// THEN validation passes
	require.NoError(t, cfg.Validate())

	// THEN it is identical to DefaultConfig
	assert.Equal(t, DefaultConfig(), cfg)
}

// TestExampleConfigs_GreedyBaseline verifies the baseline example selects the
// non-learning policy and keeps the default topology.
func TestExampleConfigs_GreedyBaseline(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join("..", "examples", "greedy-baseline.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "greedy", cfg.Learning.Policy)
	assert.Equal(t, 20, cfg.Driver.Episodes)
	assert.Equal(t, DefaultConfig().Topology, cfg.Topology)

	// THEN the configured policy builds as the baseline
	p := NewRoutingPolicy(cfg.Learning.Policy, []NodeID{101, 102}, cfg.Learning, nil)
	_, ok := p.(*GreedyPolicy)
	assert.True(t, ok, "greedy-baseline.yaml must build a GreedyPolicy")
}

// TestExampleConfigs_Overload verifies the overload example enables shedding
// and hop tracing.
func TestExampleConfigs_Overload(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join("..", "examples", "overload.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 60, cfg.Load.OverloadThreshold)
	assert.Less(t, cfg.Load.OverloadThreshold, cfg.Load.InitialMax,
		"some relays must start above the threshold for shedding to show up")
	assert.Equal(t, "hops", cfg.Driver.TraceLevel)
	assert.Equal(t, DefaultLevelWidth, cfg.Topology.LevelWidth)
}
