package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelHops})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.Requests != 0 || summary.Served != 0 || summary.Refused != 0 {
		t.Errorf("expected zero counts, got %+v", summary)
	}
	if summary.MeanHops != 0 || summary.MeanReward != 0 {
		t.Error("expected zero means")
	}
	if len(summary.Terminals) != 0 || len(summary.Outcomes) != 0 {
		t.Error("expected empty distributions")
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.Requests != 0 || summary.Terminals == nil {
		t.Errorf("unexpected summary for nil trace: %+v", summary)
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN one served-from-origin, one cache hit, one refusal
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelHops})

	served := NewTrajectory("http://1/p", "1")
	top := served.Enter(201)
	edge := served.Enter(101)
	served.MarkExplored(top)
	served.Resolve(edge, OutcomeEndPoint, 500, "")
	served.Resolve(top, OutcomeMidWay, -10, "")
	served.Finish(200)

	hit := NewTrajectory("http://1/p", "1")
	hit.Resolve(hit.Enter(201), OutcomeCacheHit, 500, "")
	hit.Finish(200)

	refused := NewTrajectory("http://9/p", "9")
	top = refused.Enter(201)
	edge = refused.Enter(101)
	refused.Resolve(edge, OutcomeNoService, -500, "no origin")
	refused.Resolve(top, OutcomeMidWay, -10, "")
	refused.Finish(501)

	st.RecordTrajectory(served)
	st.RecordTrajectory(hit)
	st.RecordTrajectory(refused)

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.Requests != 3 || summary.Served != 2 || summary.Refused != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if summary.CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", summary.CacheHits)
	}
	if summary.Explorations != 1 {
		t.Errorf("expected 1 exploration, got %d", summary.Explorations)
	}
	if summary.MeanHops != 5.0/3.0 {
		t.Errorf("expected mean hops 5/3, got %v", summary.MeanHops)
	}
	wantReward := (490.0 + 500.0 - 510.0) / 3.0
	if summary.MeanReward != wantReward {
		t.Errorf("expected mean reward %v, got %v", wantReward, summary.MeanReward)
	}
	if summary.Terminals[101] != 2 || summary.Terminals[201] != 1 {
		t.Errorf("unexpected terminal distribution: %v", summary.Terminals)
	}
	if summary.Outcomes[OutcomeNoService] != 1 || summary.Outcomes[OutcomeEndPoint] != 1 {
		t.Errorf("unexpected outcome distribution: %v", summary.Outcomes)
	}
}
