package decision

import "github.com/google/uuid"

// RiskLevel classifies how risky an action is.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "minimal"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Penalty maps a risk level onto a [0,1] penalty used by the heuristic
// rollout and by risk assessment.
func (r RiskLevel) Penalty() float64 {
	switch r {
	case RiskMinimal:
		return 0.0
	case RiskLow:
		return 0.1
	case RiskMedium:
		return 0.25
	case RiskHigh:
		return 0.5
	case RiskCritical:
		return 0.8
	default:
		return 0.25
	}
}

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskMinimal, RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Action is one candidate operation produced by a generator. The engine
// never invents actions; it only expands and simulates what generators
// return.
type Action struct {
	ID             string
	Kind           string
	Cost           float64
	ExpectedImpact float64
	Confidence     float64
	TimeCost       float64
	Risk           RiskLevel
	Flags          []string // context adaptation markers
}

// NewAction returns an action with a fresh identity and minimal risk.
func NewAction(kind string) Action {
	return Action{
		ID:   uuid.NewString(),
		Kind: kind,
		Risk: RiskMinimal,
	}
}

// HasFlag reports whether the action carries a context adaptation flag.
func (a Action) HasFlag(flag string) bool {
	for _, f := range a.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
