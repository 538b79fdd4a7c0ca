package trace

// TraceLevel controls the verbosity of trajectory tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelHops captures every hop of every request.
	TraceLevelHops TraceLevel = "hops"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone: true,
	TraceLevelHops: true,
	"":             true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether trajectories should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelHops
}

// SimulationTrace collects trajectories during a run.
type SimulationTrace struct {
	Config       TraceConfig
	Trajectories []*Trajectory
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:       config,
		Trajectories: make([]*Trajectory, 0),
	}
}

// RecordTrajectory appends a finished trajectory. Nil trajectories are ignored.
func (st *SimulationTrace) RecordTrajectory(tr *Trajectory) {
	if tr == nil {
		return
	}
	st.Trajectories = append(st.Trajectories, tr)
}
