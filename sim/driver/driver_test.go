package driver

import (
	"io"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/relay-sim/sim"
	"github.com/inference-sim/relay-sim/sim/topology"
)

func TestMain(m *testing.M) {
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func smallConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Topology.Levels = 3
	cfg.Topology.Width = 2
	cfg.Topology.Parents = 1
	cfg.Topology.Origins = 2
	cfg.Topology.PagesPerOrigin = 2
	cfg.Driver.Episodes = 5
	cfg.Driver.BatchSize = 50
	return cfg
}

func runDriver(t *testing.T, cfg sim.Config, reg prometheus.Registerer) (*Report, *Metrics) {
	t.Helper()
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
	net, err := topology.Build(cfg, rng)
	require.NoError(t, err)
	var m *Metrics
	if reg != nil {
		m = NewMetrics(reg)
	}
	return New(net, rng, m).Run(), m
}

func TestRun_AllDomainsReachable_ConvergesInFirstEpisode(t *testing.T) {
	// GIVEN a network where every edge can serve every origin
	cfg := smallConfig()

	// WHEN the driver runs
	report, _ := runDriver(t, cfg, nil)

	// THEN the first episode has no failures and the run stops there
	assert.True(t, report.Converged)
	require.Equal(t, 1, report.EpisodesRun())
	assert.Equal(t, 0, report.TotalFailures())
	assert.Equal(t, cfg.Driver.BatchSize, report.Episodes[0].Requests)
	assert.Nil(t, report.Trace, "tracing is off by default")
}

func TestRun_UnreachableDomain_RunsAllEpisodes(t *testing.T) {
	// GIVEN an origin no edge relay can reach (edges only see ranks 1..width)
	cfg := smallConfig()
	cfg.Topology.Origins = 3

	// WHEN the driver runs
	report, _ := runDriver(t, cfg, nil)

	// THEN it never converges and every episode records failures
	assert.False(t, report.Converged)
	require.Equal(t, cfg.Driver.Episodes, report.EpisodesRun())
	for i, ep := range report.Episodes {
		assert.Equal(t, i+1, ep.Episode)
		assert.Greater(t, ep.Failures, 0, "episode %d", ep.Episode)
		assert.Less(t, ep.Failures, ep.Requests)
	}
}

func TestRun_SameSeed_IdenticalReports(t *testing.T) {
	cfg := smallConfig()
	cfg.Topology.Origins = 3
	a, _ := runDriver(t, cfg, nil)
	b, _ := runDriver(t, cfg, nil)
	assert.Equal(t, a.Episodes, b.Episodes)

	cfg.Seed = 99
	c, _ := runDriver(t, cfg, nil)
	assert.NotEqual(t, a.Episodes, c.Episodes)
}

func TestRun_Tracing_RecordsEveryRequest(t *testing.T) {
	cfg := smallConfig()
	cfg.Topology.Origins = 3
	cfg.Driver.Episodes = 2
	cfg.Driver.TraceLevel = "hops"

	report, _ := runDriver(t, cfg, nil)

	require.NotNil(t, report.Trace)
	assert.Len(t, report.Trace.Trajectories, 2*cfg.Driver.BatchSize)
	failures := 0
	for _, tr := range report.Trace.Trajectories {
		assert.NotEmpty(t, tr.Hops)
		if tr.Status > 500 {
			failures++
		}
	}
	assert.Equal(t, report.TotalFailures(), failures)
}

func TestRun_Metrics_MatchReport(t *testing.T) {
	cfg := smallConfig()
	cfg.Topology.Origins = 3
	reg := prometheus.NewRegistry()

	report, m := runDriver(t, cfg, reg)

	total, hits, explorations := 0, 0, 0
	for _, ep := range report.Episodes {
		total += ep.Requests
		hits += ep.CacheHits
		explorations += ep.Explorations
	}
	failures := report.TotalFailures()
	assert.Equal(t, float64(total-failures), testutil.ToFloat64(m.requests.WithLabelValues("served")))
	assert.Equal(t, float64(failures), testutil.ToFloat64(m.requests.WithLabelValues("refused")))
	assert.Equal(t, float64(hits), testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, float64(explorations), testutil.ToFloat64(m.explorations))
	assert.Equal(t, float64(report.EpisodesRun()), testutil.ToFloat64(m.episodes))
	last := report.Episodes[len(report.Episodes)-1]
	assert.Equal(t, float64(last.Failures), testutil.ToFloat64(m.episodeFailures))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observeRequest(true, 3, 1, false)
	m.observeEpisode(4)
}
