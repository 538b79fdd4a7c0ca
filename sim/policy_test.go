package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGLIE(neighbors []NodeID, seed int64) *GLIEQPolicy {
	return NewGLIEQPolicy(NewQTable(neighbors), rand.New(rand.NewSource(seed)), DefaultAlpha, DefaultBeta)
}

func TestGLIEQPolicy_FirstCall_AlwaysExplores(t *testing.T) {
	// t=0 draws from [0, 0], so the first decision is always exploratory
	for seed := int64(0); seed < 20; seed++ {
		p := newTestGLIE([]NodeID{101, 102, 103}, seed)
		d := p.NextHop(MustNewRequest("http://1/path-1/page.html"))
		assert.True(t, d.Explored, "seed %d", seed)
		assert.Contains(t, []NodeID{101, 102, 103}, d.Target)
		assert.Equal(t, 1, p.Visits())
	}
}

func TestGLIEQPolicy_ExplorationRate_DecreasesButNeverVanishes(t *testing.T) {
	// GIVEN many independent fresh policies
	const runs = 2000
	const steps = 64
	explored := make([]int, steps)
	req := MustNewRequest("http://1/path-1/page.html")
	for r := 0; r < runs; r++ {
		p := newTestGLIE([]NodeID{101, 102}, int64(r))
		for s := 0; s < steps; s++ {
			if p.NextHop(req).Explored {
				explored[s]++
			}
		}
	}

	// THEN the early window explores more than the late window, and the late
	// window still explores sometimes.
	early := explored[1] + explored[2] + explored[3]
	late := explored[steps-3] + explored[steps-2] + explored[steps-1]
	assert.Greater(t, early, late)
	lateTotal := 0
	for s := steps / 2; s < steps; s++ {
		lateTotal += explored[s]
	}
	assert.Greater(t, lateTotal, 0)
	assert.Equal(t, runs, explored[0])
}

func TestGLIEQPolicy_Exploit_PicksBestNeighbor(t *testing.T) {
	p := newTestGLIE([]NodeID{101, 102, 103}, 1)
	p.Table().SetValue("5", 103, 42)
	req := MustNewRequest("http://5/path-1/page.html")

	exploits := 0
	for i := 0; i < 200; i++ {
		d := p.NextHop(req)
		if !d.Explored {
			exploits++
			require.Equal(t, NodeID(103), d.Target)
		}
	}
	assert.Greater(t, exploits, 0)
}

func TestGLIEQPolicy_Update_ConvergesMonotonically(t *testing.T) {
	// GIVEN constant reward R and constant next-state value V
	p := newTestGLIE([]NodeID{101}, 1)
	const r, v = -7.0, 120.0
	target := r + DefaultBeta*v

	// WHEN updated repeatedly
	prevGap := math.Abs(p.Table().Value("1", 101) - target)
	for i := 0; i < 200; i++ {
		p.Update("1", 101, v, r)
		gap := math.Abs(p.Table().Value("1", 101) - target)
		// THEN every step strictly closes the gap
		require.Less(t, gap, prevGap, "step %d", i)
		prevGap = gap
	}
	assert.InDelta(t, target, p.Table().Value("1", 101), 1e-6)
}

func TestGLIEQPolicy_Update_Formula(t *testing.T) {
	p := NewGLIEQPolicy(NewQTable([]NodeID{101}), rand.New(rand.NewSource(1)), 0.5, 0.9)
	p.Table().SetValue("1", 101, 10)
	p.Update("1", 101, 20, 4)
	// 0.5*10 + 0.5*(4 + 0.9*20) = 5 + 11 = 16
	assert.InDelta(t, 16.0, p.Table().Value("1", 101), 1e-12)
}

func TestGLIEQPolicy_BestValue(t *testing.T) {
	p := newTestGLIE([]NodeID{101, 102}, 1)
	assert.Equal(t, 0.0, p.BestValue("1"))
	p.Table().SetValue("1", 102, 3)
	p.Table().SetValue("1", 101, -1)
	assert.Equal(t, 3.0, p.BestValue("1"))
}

func TestGreedyPolicy_AlwaysFirstNeighbor(t *testing.T) {
	p := NewRoutingPolicy("greedy", []NodeID{104, 101}, LearningConfig{}, nil)
	req := MustNewRequest("http://1/path-1/page.html")
	for i := 0; i < 5; i++ {
		d := p.NextHop(req)
		assert.Equal(t, NodeID(104), d.Target)
		assert.False(t, d.Explored)
	}
	p.Update("1", 104, 10, 10)
	assert.Equal(t, 0.0, p.BestValue("1"))
}

func TestNewRoutingPolicy_ByName(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	learning := LearningConfig{Alpha: DefaultAlpha, Beta: DefaultBeta}
	_, ok := NewRoutingPolicy("", []NodeID{101}, learning, rng).(*GLIEQPolicy)
	assert.True(t, ok, "empty name defaults to q-learning")
	_, ok = NewRoutingPolicy("q-learning", []NodeID{101}, learning, rng).(*GLIEQPolicy)
	assert.True(t, ok)
	_, ok = NewRoutingPolicy("greedy", []NodeID{101}, learning, rng).(*GreedyPolicy)
	assert.True(t, ok)
}

func TestNewRoutingPolicy_UnknownName_Panics(t *testing.T) {
	assert.Panics(t, func() { NewRoutingPolicy("sarsa", []NodeID{101}, LearningConfig{}, nil) })
}

func TestPolicies_EmptyNeighbors_Panic(t *testing.T) {
	req := MustNewRequest("http://1/path-1/page.html")
	assert.Panics(t, func() { newTestGLIE(nil, 1).NextHop(req) })
	assert.Panics(t, func() { (&GreedyPolicy{}).NextHop(req) })
}
