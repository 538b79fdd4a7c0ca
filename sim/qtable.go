package sim

import "fmt"

// qKey indexes one (target domain, neighbor) pair.
type qKey struct {
	domain   string
	neighbor NodeID
}

// QTable holds one relay's learned value estimates for forwarding a domain
// to each of its upstream neighbors. Entries are created lazily on first read.
//
// Not safe for concurrent use.
type QTable struct {
	neighbors []NodeID
	member    map[NodeID]bool
	values    map[qKey]float64
}

// NewQTable creates a table over the given neighbor collection. The order of
// neighbors decides ties in BestNeighbor.
func NewQTable(neighbors []NodeID) *QTable {
	member := make(map[NodeID]bool, len(neighbors))
	for _, n := range neighbors {
		member[n] = true
	}
	return &QTable{
		neighbors: append([]NodeID(nil), neighbors...),
		member:    member,
		values:    make(map[qKey]float64),
	}
}

// Value returns Q(domain, neighbor), persisting the 0.0 default on first read.
// Panics if neighbor is not one of the table's neighbors.
func (q *QTable) Value(domain string, neighbor NodeID) float64 {
	q.mustKnow(neighbor)
	k := qKey{domain: domain, neighbor: neighbor}
	v, ok := q.values[k]
	if !ok {
		q.values[k] = 0
	}
	return v
}

// SetValue overwrites Q(domain, neighbor).
// Panics if neighbor is not one of the table's neighbors.
func (q *QTable) SetValue(domain string, neighbor NodeID, v float64) {
	q.mustKnow(neighbor)
	q.values[qKey{domain: domain, neighbor: neighbor}] = v
}

// BestNeighbor returns the neighbor with the strictly greatest value for
// domain. Ties go to the earliest neighbor in the table's collection.
// Panics if the table has no neighbors.
func (q *QTable) BestNeighbor(domain string) NodeID {
	if len(q.neighbors) == 0 {
		panic("QTable.BestNeighbor: no neighbors")
	}
	best := q.neighbors[0]
	bestVal := q.Value(domain, best)
	for _, n := range q.neighbors[1:] {
		if v := q.Value(domain, n); v > bestVal {
			best, bestVal = n, v
		}
	}
	return best
}

// Neighbors returns a copy of the neighbor collection in tie-break order.
func (q *QTable) Neighbors() []NodeID {
	return append([]NodeID(nil), q.neighbors...)
}

// Known reports how many (domain, neighbor) entries have been materialized.
func (q *QTable) Known() int {
	return len(q.values)
}

func (q *QTable) mustKnow(neighbor NodeID) {
	if !q.member[neighbor] {
		panic(fmt.Sprintf("QTable: neighbor %d is not in the neighbor set %v", neighbor, q.neighbors))
	}
}
