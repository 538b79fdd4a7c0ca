package sim

import "fmt"

// Outcome is the way a relay resolved (or passed on) a request.
type Outcome int

const (
	// CacheHit means the relay answered from its own cache.
	CacheHit Outcome = iota
	// EndPoint means the relay served the request from an origin it owns.
	EndPoint
	// NoService means the relay refused the request.
	NoService
	// MidWay means the relay forwarded the request upstream.
	MidWay
)

// Fixed reward magnitudes for terminal outcomes.
const (
	HitReward     = 500.0
	EndReward     = 500.0
	RefusalReward = -500.0
)

// String returns the outcome name used in traces and logs.
func (o Outcome) String() string {
	switch o {
	case CacheHit:
		return "CacheHit"
	case EndPoint:
		return "EndPoint"
	case NoService:
		return "NoService"
	case MidWay:
		return "MidWay"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Reward maps an outcome to its scalar reward. load is only consulted for
// MidWay, where forwarding through a busier relay costs more.
// Panics on an unknown outcome.
func Reward(o Outcome, load int) float64 {
	switch o {
	case CacheHit:
		return HitReward
	case EndPoint:
		return EndReward
	case NoService:
		return RefusalReward
	case MidWay:
		return -1 * float64(load)
	default:
		panic(fmt.Sprintf("Reward: unknown outcome %d", int(o)))
	}
}
