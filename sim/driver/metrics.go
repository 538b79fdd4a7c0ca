package driver

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports driver progress as Prometheus collectors.
type Metrics struct {
	requests        *prometheus.CounterVec
	cacheHits       prometheus.Counter
	explorations    prometheus.Counter
	hops            prometheus.Histogram
	episodes        prometheus.Counter
	episodeFailures prometheus.Gauge
}

// NewMetrics constructs the collectors and registers them with reg
// (nil => prometheus.DefaultRegisterer).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "relaysim",
				Subsystem: "driver",
				Name:      "requests_total",
				Help:      "Requests issued, by result",
			},
			[]string{"result"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relaysim",
			Subsystem: "driver",
			Name:      "cache_hits_total",
			Help:      "Requests answered from a relay cache",
		}),
		explorations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relaysim",
			Subsystem: "driver",
			Name:      "explorations_total",
			Help:      "Forwarding decisions taken by exploration",
		}),
		hops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "relaysim",
			Subsystem: "driver",
			Name:      "hops",
			Help:      "Relays visited per request",
			Buckets:   prometheus.LinearBuckets(1, 1, 12),
		}),
		episodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relaysim",
			Subsystem: "driver",
			Name:      "episodes_total",
			Help:      "Episodes run",
		}),
		episodeFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relaysim",
			Subsystem: "driver",
			Name:      "episode_failures",
			Help:      "Refused requests in the most recent episode",
		}),
	}
	reg.MustRegister(m.requests, m.cacheHits, m.explorations, m.hops, m.episodes, m.episodeFailures)
	return m
}

// observeRequest records one finished request.
func (m *Metrics) observeRequest(failed bool, hops, explorations int, cacheHit bool) {
	if m == nil {
		return
	}
	result := "served"
	if failed {
		result = "refused"
	}
	m.requests.WithLabelValues(result).Inc()
	m.hops.Observe(float64(hops))
	m.explorations.Add(float64(explorations))
	if cacheHit {
		m.cacheHits.Inc()
	}
}

// observeEpisode records the failure count of a finished episode.
func (m *Metrics) observeEpisode(failures int) {
	if m == nil {
		return
	}
	m.episodes.Inc()
	m.episodeFailures.Set(float64(failures))
}
