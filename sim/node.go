package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/relay-sim/sim/trace"
)

// DefaultLevelWidth is the id stride between levels: id = level*LevelWidth + rank.
const DefaultLevelWidth = 100

// NodeID identifies a relay. It encodes (level, rank) as level*levelWidth + rank.
type NodeID int

// MakeNodeID encodes level and rank into a NodeID.
func MakeNodeID(level, rank, levelWidth int) NodeID {
	return NodeID(level*levelWidth + rank)
}

// Level decodes the level of id.
func (id NodeID) Level(levelWidth int) int { return int(id) / levelWidth }

// Rank decodes the rank of id within its level.
func (id NodeID) Rank(levelWidth int) int { return int(id) % levelWidth }

// Role tells whether a relay serves origins directly or forwards upstream.
type Role int

const (
	// RoleEdge relays serve a fixed set of origin domains and have no upstream neighbors.
	RoleEdge Role = iota
	// RoleInterior relays forward to upstream neighbors and own no origins.
	RoleInterior
)

func (r Role) String() string {
	if r == RoleEdge {
		return "edge"
	}
	return "interior"
}

// NodeOptions carries the per-relay knobs shared by both roles.
type NodeOptions struct {
	LevelWidth        int
	CacheSize         int
	Load              LoadModel
	OverloadThreshold int // 0 disables load shedding
}

// RelayNode is one cache-equipped relay. Edge relays carry origins; interior
// relays carry upstream neighbors and a routing policy. The role is fixed at
// construction.
//
// Not safe for concurrent use: Handle mutates the cache, the policy and the load.
type RelayNode struct {
	id    NodeID
	level int
	rank  int
	role  Role

	origins    map[string]*OriginServer
	originKeys []string

	parents []*RelayNode
	byID    map[NodeID]*RelayNode
	policy  RoutingPolicy

	cache             *Cache[string, Response]
	load              LoadModel
	overloadThreshold int
}

// NewEdgeNode creates an edge relay at (level, rank) serving origins.
func NewEdgeNode(level, rank int, origins []*OriginServer, opts NodeOptions) *RelayNode {
	n := newRelayNode(level, rank, RoleEdge, opts)
	n.origins = make(map[string]*OriginServer, len(origins))
	for _, o := range origins {
		n.origins[o.Domain()] = o
		n.originKeys = append(n.originKeys, o.Domain())
	}
	sort.Strings(n.originKeys)
	return n
}

// NewInteriorNode creates an interior relay at (level, rank) forwarding to
// parents through policy. Panics if parents is empty or any parent is not
// exactly one level up.
func NewInteriorNode(level, rank int, parents []*RelayNode, policy RoutingPolicy, opts NodeOptions) *RelayNode {
	if len(parents) == 0 {
		panic(fmt.Sprintf("NewInteriorNode: relay at level %d rank %d has no parents", level, rank))
	}
	if policy == nil {
		panic("NewInteriorNode: nil routing policy")
	}
	n := newRelayNode(level, rank, RoleInterior, opts)
	n.parents = append([]*RelayNode(nil), parents...)
	n.byID = make(map[NodeID]*RelayNode, len(parents))
	for _, p := range parents {
		if p.level != level-1 {
			panic(fmt.Sprintf("NewInteriorNode: relay %d at level %d cannot use parent %d at level %d",
				n.id, level, p.id, p.level))
		}
		n.byID[p.id] = p
	}
	n.policy = policy
	return n
}

func newRelayNode(level, rank int, role Role, opts NodeOptions) *RelayNode {
	if opts.LevelWidth <= 0 {
		opts.LevelWidth = DefaultLevelWidth
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Load == nil {
		opts.Load = FixedLoad(0)
	}
	return &RelayNode{
		id:                MakeNodeID(level, rank, opts.LevelWidth),
		level:             level,
		rank:              rank,
		role:              role,
		cache:             NewCache[string, Response](opts.CacheSize),
		load:              opts.Load,
		overloadThreshold: opts.OverloadThreshold,
	}
}

// ID returns the relay's identity.
func (n *RelayNode) ID() NodeID { return n.id }

// Level returns the relay's level (1 = edge).
func (n *RelayNode) Level() int { return n.level }

// Rank returns the relay's rank within its level.
func (n *RelayNode) Rank() int { return n.rank }

// Role returns the relay's fixed role.
func (n *RelayNode) Role() Role { return n.role }

// Parents returns the ids of the upstream neighbors in tie-break order.
func (n *RelayNode) Parents() []NodeID {
	ids := make([]NodeID, len(n.parents))
	for i, p := range n.parents {
		ids[i] = p.id
	}
	return ids
}

// ParentNodes returns the upstream neighbors.
func (n *RelayNode) ParentNodes() []*RelayNode {
	return append([]*RelayNode(nil), n.parents...)
}

// OriginKeys returns the domains an edge relay serves directly.
func (n *RelayNode) OriginKeys() []string {
	return append([]string(nil), n.originKeys...)
}

// Policy returns the routing policy (nil for edge relays).
func (n *RelayNode) Policy() RoutingPolicy { return n.policy }

// Cache returns the relay's response cache.
func (n *RelayNode) Cache() *Cache[string, Response] { return n.cache }

// Load returns the relay's load model.
func (n *RelayNode) Load() LoadModel { return n.load }

// Handle resolves req at this relay, forwarding upstream if needed. tr may be
// nil; when set it receives one hop record per relay visited.
func (n *RelayNode) Handle(req *Request, tr *trace.Trajectory) *Response {
	hop := tr.Enter(int(n.id))

	if n.overloadThreshold > 0 && n.load.Current() >= n.overloadThreshold {
		logrus.Debugf("relay %d shedding %s at load %d", n.id, req.URL(), n.load.Current())
		n.load.Relieve()
		res := newRefusal(req)
		res.Reward = Reward(NoService, 0)
		tr.Resolve(hop, NoService.String(), res.Reward, "overloaded")
		return res
	}

	if cached, ok := n.cache.Get(req.URL()); ok {
		res := cached
		res.Q = 0
		res.Reward = Reward(CacheHit, 0)
		tr.Resolve(hop, CacheHit.String(), res.Reward, "")
		return &res
	}

	res := n.resolve(req, tr, hop)
	if res.OK() {
		n.cache.Put(req.URL(), *res)
	}
	return res
}

func (n *RelayNode) resolve(req *Request, tr *trace.Trajectory, hop int) *Response {
	if origin, ok := n.origins[req.Domain()]; ok {
		res := &Response{
			Domain:  req.Domain(),
			URL:     req.URL(),
			Content: origin.Get(req.Path()),
			Status:  StatusOK,
		}
		res.Reward = Reward(EndPoint, 0)
		tr.Resolve(hop, EndPoint.String(), res.Reward, "")
		return res
	}

	if n.role == RoleEdge {
		res := newRefusal(req)
		res.Reward = Reward(NoService, 0)
		tr.Resolve(hop, NoService.String(), res.Reward, "no origin")
		return res
	}

	res := n.forward(req, tr, hop)
	res.Reward = Reward(MidWay, n.load.Sample())
	tr.Resolve(hop, MidWay.String(), res.Reward, "")
	return res
}

// forward hands req to the neighbor the policy picks, learns from the
// returned sidecar, and rewrites Q with this relay's refreshed best value.
func (n *RelayNode) forward(req *Request, tr *trace.Trajectory, hop int) *Response {
	decision := n.policy.NextHop(req)
	next, ok := n.byID[decision.Target]
	if !ok {
		panic(fmt.Sprintf("RelayNode.forward: relay %d policy chose %d outside its neighbor set %v",
			n.id, decision.Target, n.Parents()))
	}
	if decision.Explored {
		tr.MarkExplored(hop)
	}

	res := next.Handle(req, tr)

	n.policy.Update(req.Domain(), decision.Target, res.Q, res.Reward)
	res.Q = n.policy.BestValue(req.Domain())
	return res
}
