// Package sim provides the core of the relay routing simulator.
//
// # Reading Guide
//
// Start with these three files to understand the learning kernel:
//   - node.go: how a relay resolves a request (cache, origin, forward) and learns from the reply
//   - policy.go: the GLIE Q-learning policy and the greedy baseline
//   - cache.go: the age-based response cache with cohort eviction
//
// # Architecture
//
// The sim package defines the relay, its collaborators and the request and
// response types; assembly and execution live in sub-packages:
//   - sim/topology/: builds the layered relay network and picks entry relays
//   - sim/driver/: issues request episodes and exports Prometheus metrics
//   - sim/trace/: per-request hop trajectories and their summary
//
// # Key Interfaces
//
//   - RoutingPolicy: choose an upstream neighbor and learn from the response sidecar
//   - LoadModel: the simulated load a relay reports in its MidWay reward
//
// Every random stream is derived from one master seed by PartitionedRNG, so
// runs are reproducible.
package sim
