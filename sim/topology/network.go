// Package topology builds the layered relay hierarchy and owns every relay in it.
// Relays only hold references to their own upstream neighbors; the Network is
// the single root from which all of them are reachable.
package topology

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/relay-sim/sim"
	"github.com/inference-sim/relay-sim/sim/trace"
)

// Network is a DAG of relays layered by level. Level 1 holds the edge relays;
// level cfg.Levels is where requests enter.
//
// Not safe for concurrent use.
type Network struct {
	cfg     sim.Config
	levels  [][]*sim.RelayNode // levels[l-1] holds level l, ordered by rank
	nodes   map[sim.NodeID]*sim.RelayNode
	origins []*sim.OriginServer
	ingress *rand.Rand
}

// Build validates cfg and wires the hierarchy. Parent selection and initial
// loads draw from the topology subsystem; each relay's policy and load walk
// get their own subsystem.
//
// Panics if the wired graph violates the level ordering; that is a wiring
// defect, not a configuration problem.
func Build(cfg sim.Config, rng *sim.PartitionedRNG) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	t := cfg.Topology
	topoRNG := rng.ForSubsystem(sim.SubsystemTopology)

	n := &Network{
		cfg:     cfg,
		levels:  make([][]*sim.RelayNode, t.Levels),
		nodes:   make(map[sim.NodeID]*sim.RelayNode, t.Levels*t.Width),
		origins: make([]*sim.OriginServer, t.Origins),
		ingress: rng.ForSubsystem(sim.SubsystemIngress),
	}
	for i := range n.origins {
		n.origins[i] = sim.NewOriginServer(strconv.Itoa(i+1), t.PagesPerOrigin)
	}

	for level := 1; level <= t.Levels; level++ {
		n.levels[level-1] = make([]*sim.RelayNode, t.Width)
		for rank := 1; rank <= t.Width; rank++ {
			ranks := parentRanks(rank, t.Width, t.Parents, topoRNG)
			id := sim.MakeNodeID(level, rank, t.LevelWidth)
			opts := sim.NodeOptions{
				LevelWidth:        t.LevelWidth,
				CacheSize:         t.CacheSize,
				Load:              sim.NewRandomWalkLoad(topoRNG.Intn(cfg.Load.InitialMax)+1, cfg.Load.InitialMax, rng.ForSubsystem(sim.SubsystemLoad(id))),
				OverloadThreshold: cfg.Load.OverloadThreshold,
			}

			var node *sim.RelayNode
			if level == 1 {
				node = sim.NewEdgeNode(level, rank, n.originsFor(ranks), opts)
				if len(node.OriginKeys()) == 0 {
					logrus.Warnf("edge relay %d reaches no origin (candidate ranks %v, %d origins)", id, ranks, t.Origins)
				}
			} else {
				parents := make([]*sim.RelayNode, len(ranks))
				parentIDs := make([]sim.NodeID, len(ranks))
				for i, r := range ranks {
					parents[i] = n.levels[level-2][r-1]
					parentIDs[i] = parents[i].ID()
				}
				policy := sim.NewRoutingPolicy(cfg.Learning.Policy, parentIDs, cfg.Learning, rng.ForSubsystem(sim.SubsystemPolicy(id)))
				node = sim.NewInteriorNode(level, rank, parents, policy, opts)
			}
			n.levels[level-1][rank-1] = node
			n.nodes[id] = node
		}
	}

	if err := n.Validate(); err != nil {
		panic(fmt.Sprintf("topology.Build: %v", err))
	}
	logrus.Infof("topology: %d levels x %d relays, degree = %d/%d = %f",
		t.Levels, t.Width, n.TotalParents(), len(n.nodes), n.MeanDegree())
	return n, nil
}

// parentRanks returns rank itself plus numParents draws of
// (rank + uniform[0, numParents)) mod width + 1, deduplicated and sorted.
// Duplicate draws collapse, so a relay may end up with fewer parents than asked.
func parentRanks(rank, width, numParents int, rng *rand.Rand) []int {
	seen := map[int]bool{rank: true}
	for i := 1; i <= numParents; i++ {
		seen[(rank+rng.Intn(numParents))%width+1] = true
	}
	ranks := make([]int, 0, len(seen))
	for r := range seen {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	return ranks
}

// originsFor maps candidate ranks one level below the edge onto the origins
// that exist.
func (n *Network) originsFor(ranks []int) []*sim.OriginServer {
	var out []*sim.OriginServer
	for _, r := range ranks {
		if r >= 1 && r <= len(n.origins) {
			out = append(out, n.origins[r-1])
		}
	}
	return out
}

// Entry hands req to a uniformly random top-level relay. tr may be nil.
func (n *Network) Entry(req *sim.Request, tr *trace.Trajectory) *sim.Response {
	top := n.levels[len(n.levels)-1]
	res := top[n.ingress.Intn(len(top))].Handle(req, tr)
	tr.Finish(res.Status)
	return res
}

// Validate checks the acyclicity invariant: every upstream neighbor of a relay
// exists in this network and sits exactly one level up.
func (n *Network) Validate() error {
	for _, node := range n.Nodes() {
		if node.Role() == sim.RoleInterior && len(node.Parents()) == 0 {
			return fmt.Errorf("interior relay %d has no parents", node.ID())
		}
		for _, pid := range node.Parents() {
			parent, ok := n.nodes[pid]
			if !ok {
				return fmt.Errorf("relay %d references unknown parent %d", node.ID(), pid)
			}
			if parent.Level() != node.Level()-1 {
				return fmt.Errorf("relay %d at level %d has parent %d at level %d",
					node.ID(), node.Level(), pid, parent.Level())
			}
		}
	}
	return nil
}

// Node returns the relay with the given id.
func (n *Network) Node(id sim.NodeID) (*sim.RelayNode, bool) {
	node, ok := n.nodes[id]
	return node, ok
}

// Level returns the relays at level l (1-based) ordered by rank, or nil if
// l is out of range.
func (n *Network) Level(l int) []*sim.RelayNode {
	if l < 1 || l > len(n.levels) {
		return nil
	}
	return append([]*sim.RelayNode(nil), n.levels[l-1]...)
}

// Nodes returns all relays ordered by level then rank.
func (n *Network) Nodes() []*sim.RelayNode {
	out := make([]*sim.RelayNode, 0, len(n.nodes))
	for _, level := range n.levels {
		out = append(out, level...)
	}
	return out
}

// Origins returns the origin servers ordered by domain number.
func (n *Network) Origins() []*sim.OriginServer {
	return append([]*sim.OriginServer(nil), n.origins...)
}

// Config returns the configuration the network was built from.
func (n *Network) Config() sim.Config { return n.cfg }

// TotalParents counts upstream links for interior relays and origin links for
// edge relays.
func (n *Network) TotalParents() int {
	total := 0
	for _, node := range n.Nodes() {
		if node.Role() == sim.RoleEdge {
			total += len(node.OriginKeys())
		} else {
			total += len(node.Parents())
		}
	}
	return total
}

// MeanDegree is TotalParents divided by the number of relays.
func (n *Network) MeanDegree() float64 {
	if len(n.nodes) == 0 {
		return 0
	}
	return float64(n.TotalParents()) / float64(len(n.nodes))
}

// GreedyRoutes returns, for each interior relay, the neighbor it would pick
// for domain if it exploited. Reading a learning relay's table materializes
// default entries for domain.
func (n *Network) GreedyRoutes(domain string) map[sim.NodeID]sim.NodeID {
	routes := make(map[sim.NodeID]sim.NodeID)
	for _, node := range n.Nodes() {
		if node.Role() != sim.RoleInterior {
			continue
		}
		if q, ok := node.Policy().(*sim.GLIEQPolicy); ok {
			routes[node.ID()] = q.Table().BestNeighbor(domain)
		} else {
			routes[node.ID()] = node.Parents()[0]
		}
	}
	return routes
}
