package decision

// DefaultWeight applies to an objective with no configured weight.
const DefaultWeight = 0.25

// Objective names a scoring dimension and how much it contributes to total
// reward. Weights need not sum to one; the engine normalizes them before
// use.
type Objective struct {
	Name   string
	Weight float64
}

// Constraints bound which generated actions are legal for a search. The
// zero value is fully permissive.
type Constraints struct {
	MaxActionCost  float64 // 0 means unlimited
	RiskTolerance  float64 // in [0,1]; 0 means no limit
	ForbiddenKinds []string
}

// Allows reports whether an action satisfies the constraints.
func (c Constraints) Allows(a Action) bool {
	if c.MaxActionCost > 0 && a.Cost > c.MaxActionCost {
		return false
	}
	if c.RiskTolerance > 0 && a.Risk.Penalty() > c.RiskTolerance {
		return false
	}
	for _, kind := range c.ForbiddenKinds {
		if a.Kind == kind {
			return false
		}
	}
	return true
}
