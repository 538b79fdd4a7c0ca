package sim

import (
	"fmt"
	"math/rand"
)

// Default learning parameters.
const (
	DefaultAlpha = 0.1
	DefaultBeta  = 1.0
)

// HopDecision is a routing policy's choice of next hop for one request.
type HopDecision struct {
	Target   NodeID // upstream neighbor to forward to (must be in the relay's neighbor set)
	Explored bool   // true when the choice ignored learned values
	Reason   string // human-readable explanation
}

// RoutingPolicy decides which upstream neighbor a relay forwards a request
// to, and learns from the sidecar of the response that comes back.
type RoutingPolicy interface {
	NextHop(req *Request) HopDecision
	// BestValue is the value of the currently best neighbor for domain; it is
	// what the relay reports downstream as the bootstrapped next-state value.
	BestValue(domain string) float64
	Update(domain string, chosen NodeID, nextStateBestValue, observedReward float64)
}

// GLIEQPolicy is tabular Q-learning with a GLIE exploration schedule: the
// t-th call explores with probability 1/(t+1), otherwise it takes the greedy
// neighbor from the Q-table.
type GLIEQPolicy struct {
	q     *QTable
	rng   *rand.Rand
	alpha float64
	beta  float64
	t     int
}

// NewGLIEQPolicy creates a learning policy over q.
func NewGLIEQPolicy(q *QTable, rng *rand.Rand, alpha, beta float64) *GLIEQPolicy {
	return &GLIEQPolicy{q: q, rng: rng, alpha: alpha, beta: beta}
}

// NextHop implements RoutingPolicy for GLIEQPolicy.
func (p *GLIEQPolicy) NextHop(req *Request) HopDecision {
	neighbors := p.q.neighbors
	if len(neighbors) == 0 {
		panic("GLIEQPolicy.NextHop: empty neighbor set")
	}
	draw := p.rng.Intn(p.t + 1)
	p.t++
	if draw == 0 {
		target := neighbors[p.rng.Intn(len(neighbors))]
		return HopDecision{
			Target:   target,
			Explored: true,
			Reason:   fmt.Sprintf("glie-explore (t=%d)", p.t),
		}
	}
	target := p.q.BestNeighbor(req.Domain())
	return HopDecision{
		Target: target,
		Reason: fmt.Sprintf("glie-exploit (Q=%.3f)", p.q.Value(req.Domain(), target)),
	}
}

// BestValue implements RoutingPolicy for GLIEQPolicy.
func (p *GLIEQPolicy) BestValue(domain string) float64 {
	return p.q.Value(domain, p.q.BestNeighbor(domain))
}

// Update applies Q ← (1−α)·Q + α·(r + β·v) to the chosen neighbor.
func (p *GLIEQPolicy) Update(domain string, chosen NodeID, nextStateBestValue, observedReward float64) {
	now := p.q.Value(domain, chosen)
	next := (1-p.alpha)*now + p.alpha*(observedReward+p.beta*nextStateBestValue)
	p.q.SetValue(domain, chosen, next)
}

// Visits returns how many times NextHop has been called.
func (p *GLIEQPolicy) Visits() int { return p.t }

// Table returns the underlying Q-table.
func (p *GLIEQPolicy) Table() *QTable { return p.q }

// GreedyPolicy always forwards to the first neighbor and never learns.
// It is the baseline the learning policy is measured against.
type GreedyPolicy struct {
	neighbors []NodeID
}

// NextHop implements RoutingPolicy for GreedyPolicy.
func (g *GreedyPolicy) NextHop(_ *Request) HopDecision {
	if len(g.neighbors) == 0 {
		panic("GreedyPolicy.NextHop: empty neighbor set")
	}
	return HopDecision{Target: g.neighbors[0], Reason: "greedy (first neighbor)"}
}

// BestValue implements RoutingPolicy for GreedyPolicy.
func (g *GreedyPolicy) BestValue(string) float64 { return 0 }

// Update implements RoutingPolicy for GreedyPolicy.
func (g *GreedyPolicy) Update(string, NodeID, float64, float64) {}

// ValidRoutingPolicies is the set of recognized routing policy names.
var ValidRoutingPolicies = map[string]bool{"": true, "q-learning": true, "greedy": true}

// IsValidRoutingPolicy returns true if name is a recognized routing policy.
func IsValidRoutingPolicy(name string) bool {
	return ValidRoutingPolicies[name]
}

// NewRoutingPolicy creates a routing policy by name over the given neighbors.
// Empty string defaults to q-learning. Panics on unrecognized names.
func NewRoutingPolicy(name string, neighbors []NodeID, learning LearningConfig, rng *rand.Rand) RoutingPolicy {
	if !IsValidRoutingPolicy(name) {
		panic(fmt.Sprintf("unknown routing policy %q", name))
	}
	switch name {
	case "", "q-learning":
		return NewGLIEQPolicy(NewQTable(neighbors), rng, learning.Alpha, learning.Beta)
	case "greedy":
		return &GreedyPolicy{neighbors: append([]NodeID(nil), neighbors...)}
	default:
		panic(fmt.Sprintf("unhandled routing policy %q", name))
	}
}
