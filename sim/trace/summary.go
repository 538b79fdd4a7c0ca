package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Requests     int
	Served       int
	Refused      int
	CacheHits    int // requests answered from some relay's cache
	Explorations int // exploration draws across all hops
	MeanHops     float64
	MeanReward   float64        // mean of per-request total reward
	Terminals    map[int]int    // relay id → requests resolved there
	Outcomes     map[string]int // terminal outcome → count
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		Terminals: make(map[int]int),
		Outcomes:  make(map[string]int),
	}
	if st == nil || len(st.Trajectories) == 0 {
		return summary
	}

	totalHops := 0
	totalReward := 0.0
	for _, tr := range st.Trajectories {
		summary.Requests++
		if tr.Status == 200 {
			summary.Served++
		} else {
			summary.Refused++
		}
		totalHops += len(tr.Hops)
		totalReward += tr.TotalReward()
		summary.Explorations += tr.Explorations()
		if term, ok := tr.Terminal(); ok {
			summary.Terminals[term.Node]++
			summary.Outcomes[term.Outcome]++
			if term.Outcome == OutcomeCacheHit {
				summary.CacheHits++
			}
		}
	}
	summary.MeanHops = float64(totalHops) / float64(summary.Requests)
	summary.MeanReward = totalReward / float64(summary.Requests)
	return summary
}
