// Package driver issues synthetic requests against a relay network in
// episodes and reports how many were refused.
package driver

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/relay-sim/sim"
	"github.com/inference-sim/relay-sim/sim/topology"
	"github.com/inference-sim/relay-sim/sim/trace"
)

// EpisodeResult summarizes one batch of requests.
type EpisodeResult struct {
	Episode      int // 1-based
	Requests     int
	Failures     int // responses with status > 500
	CacheHits    int
	Explorations int
	TotalReward  float64 // summed over every hop of every request
}

// Report is the outcome of a driver run.
type Report struct {
	Episodes  []EpisodeResult
	Converged bool                   // the last episode had zero failures
	Trace     *trace.SimulationTrace // nil unless hop tracing is enabled
}

// EpisodesRun returns how many episodes were executed.
func (r *Report) EpisodesRun() int { return len(r.Episodes) }

// TotalFailures sums failures over all episodes.
func (r *Report) TotalFailures() int {
	total := 0
	for _, e := range r.Episodes {
		total += e.Failures
	}
	return total
}

// Driver runs episodes against a network. Not safe for concurrent use.
type Driver struct {
	net     *topology.Network
	cfg     sim.Config
	rng     *rand.Rand
	metrics *Metrics
}

// New creates a driver. Requests draw from the workload subsystem of rng.
// metrics may be nil.
func New(net *topology.Network, rng *sim.PartitionedRNG, metrics *Metrics) *Driver {
	return &Driver{
		net:     net,
		cfg:     net.Config(),
		rng:     rng.ForSubsystem(sim.SubsystemWorkload),
		metrics: metrics,
	}
}

// Run issues up to Episodes batches of BatchSize requests, stopping after the
// first episode with zero failures.
func (d *Driver) Run() *Report {
	report := &Report{}
	tcfg := trace.TraceConfig{Level: trace.TraceLevel(d.cfg.Driver.TraceLevel)}
	if tcfg.Enabled() {
		report.Trace = trace.NewSimulationTrace(tcfg)
	}

	for ep := 1; ep <= d.cfg.Driver.Episodes; ep++ {
		result := d.runEpisode(ep, report.Trace)
		report.Episodes = append(report.Episodes, result)
		d.metrics.observeEpisode(result.Failures)
		logrus.Infof("episode %d: %d/%d", ep, result.Failures, result.Requests)
		if result.Failures == 0 {
			report.Converged = true
			break
		}
	}
	logrus.Infof("maxcount: %d (converged=%v)", report.EpisodesRun(), report.Converged)
	return report
}

func (d *Driver) runEpisode(ep int, st *trace.SimulationTrace) EpisodeResult {
	result := EpisodeResult{Episode: ep}
	for i := 0; i < d.cfg.Driver.BatchSize; i++ {
		req := d.nextRequest()
		tr := trace.NewTrajectory(req.URL(), req.Domain())
		res := d.net.Entry(req, tr)

		result.Requests++
		if res.Failed() {
			result.Failures++
		}
		term, _ := tr.Terminal()
		hit := term.Outcome == trace.OutcomeCacheHit
		if hit {
			result.CacheHits++
		}
		result.Explorations += tr.Explorations()
		result.TotalReward += tr.TotalReward()
		d.metrics.observeRequest(res.Failed(), len(tr.Hops), tr.Explorations(), hit)

		logrus.Debugf("%s reward=%.1f", tr.Path(), tr.TotalReward())
		if st != nil {
			st.RecordTrajectory(tr)
		}
	}
	return result
}

// nextRequest draws a uniformly random page from a uniformly random origin.
func (d *Driver) nextRequest() *sim.Request {
	t := d.cfg.Topology
	page := d.rng.Intn(t.PagesPerOrigin) + 1
	origin := d.rng.Intn(t.Origins) + 1
	req, err := sim.NewRequest(sim.RequestURL(fmt.Sprint(origin), sim.PagePath(page)))
	if err != nil {
		// generated urls always parse
		panic(fmt.Sprintf("Driver.nextRequest: %v", err))
	}
	return req
}
