package driver

import (
	"fmt"
	"io"

	"github.com/inference-sim/relay-sim/sim/trace"
)

// Print writes the per-episode failure counts followed by aggregate statistics.
func (r *Report) Print(w io.Writer) {
	for _, ep := range r.Episodes {
		fmt.Fprintf(w, "%d/%d\n", ep.Failures, ep.Requests)
	}
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Episodes Run         : %d\n", r.EpisodesRun())
	fmt.Fprintf(w, "Converged            : %v\n", r.Converged)
	fmt.Fprintf(w, "Total Failures       : %d\n", r.TotalFailures())
	if len(r.Episodes) > 0 {
		last := r.Episodes[len(r.Episodes)-1]
		fmt.Fprintf(w, "Final Failure Rate   : %.3f\n", float64(last.Failures)/float64(last.Requests))
		fmt.Fprintf(w, "Final Cache Hit Rate : %.3f\n", float64(last.CacheHits)/float64(last.Requests))
		fmt.Fprintf(w, "Final Explorations   : %d\n", last.Explorations)
	}
	if r.Trace != nil {
		s := trace.Summarize(r.Trace)
		fmt.Fprintf(w, "Mean Hops            : %.2f\n", s.MeanHops)
		fmt.Fprintf(w, "Mean Path Reward     : %.2f\n", s.MeanReward)
		fmt.Fprintf(w, "Resolving Relays     : %d\n", len(s.Terminals))
	}
}
