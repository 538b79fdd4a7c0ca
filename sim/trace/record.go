// Package trace provides per-request trajectory recording for relay routing analysis.
// This package has no dependencies on sim/ or sim/topology/. It stores pure data types.
package trace

import (
	"fmt"
	"strings"
)

// Outcome names as reported by relays. They match sim.Outcome.String().
const (
	OutcomeCacheHit  = "CacheHit"
	OutcomeEndPoint  = "EndPoint"
	OutcomeNoService = "NoService"
	OutcomeMidWay    = "MidWay"
)

// HopRecord captures what one relay did with a request.
type HopRecord struct {
	Node     int     // relay id
	Outcome  string  // one of the Outcome* names; empty until resolved
	Reward   float64 // reward stamped by this relay
	Explored bool    // the relay's forwarding choice was an exploration draw
	Detail   string  // optional qualifier, e.g. "overloaded"
}

// Trajectory is the path one request took, in visit order (entry relay first).
// Rewards are filled in as the call chain unwinds, so the terminal hop is
// resolved first and the entry hop last.
//
// All methods are safe on a nil *Trajectory and do nothing, so relays can
// record unconditionally.
type Trajectory struct {
	URL    string
	Domain string
	Status int
	Hops   []HopRecord
}

// NewTrajectory starts an empty trajectory for a request.
func NewTrajectory(url, domain string) *Trajectory {
	return &Trajectory{URL: url, Domain: domain, Hops: make([]HopRecord, 0, 8)}
}

// Enter appends a hop for node and returns its index (-1 on a nil trajectory).
func (tr *Trajectory) Enter(node int) int {
	if tr == nil {
		return -1
	}
	tr.Hops = append(tr.Hops, HopRecord{Node: node})
	return len(tr.Hops) - 1
}

// Resolve records the outcome and reward of hop idx.
func (tr *Trajectory) Resolve(idx int, outcome string, reward float64, detail string) {
	if tr == nil || idx < 0 || idx >= len(tr.Hops) {
		return
	}
	tr.Hops[idx].Outcome = outcome
	tr.Hops[idx].Reward = reward
	tr.Hops[idx].Detail = detail
}

// MarkExplored flags that hop idx picked its next relay by exploration.
func (tr *Trajectory) MarkExplored(idx int) {
	if tr == nil || idx < 0 || idx >= len(tr.Hops) {
		return
	}
	tr.Hops[idx].Explored = true
}

// Finish records the final status seen by the requester.
func (tr *Trajectory) Finish(status int) {
	if tr == nil {
		return
	}
	tr.Status = status
}

// Terminal returns the last hop, where the request was resolved.
func (tr *Trajectory) Terminal() (HopRecord, bool) {
	if tr == nil || len(tr.Hops) == 0 {
		return HopRecord{}, false
	}
	return tr.Hops[len(tr.Hops)-1], true
}

// TotalReward sums the rewards stamped along the path.
func (tr *Trajectory) TotalReward() float64 {
	if tr == nil {
		return 0
	}
	total := 0.0
	for _, h := range tr.Hops {
		total += h.Reward
	}
	return total
}

// Explorations counts hops whose forwarding choice explored.
func (tr *Trajectory) Explorations() int {
	if tr == nil {
		return 0
	}
	n := 0
	for _, h := range tr.Hops {
		if h.Explored {
			n++
		}
	}
	return n
}

// Path renders the trajectory as "1003*>903>803+ ok 7": relay ids in visit
// order, '*' after a relay that explored, '+' after a cache hit, then the
// result and domain.
func (tr *Trajectory) Path() string {
	if tr == nil {
		return ""
	}
	var b strings.Builder
	for i, h := range tr.Hops {
		if i > 0 {
			b.WriteString(">")
		}
		fmt.Fprintf(&b, "%d", h.Node)
		if h.Explored {
			b.WriteString("*")
		}
		if h.Outcome == OutcomeCacheHit {
			b.WriteString("+")
		}
	}
	result := "X"
	if tr.Status == 200 {
		result = "ok"
	}
	fmt.Fprintf(&b, " %s %s", result, tr.Domain)
	return b.String()
}
