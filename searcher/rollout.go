package searcher

import (
	"math"

	"golang.org/x/exp/rand"

	"strategos/decision"
)

// Share of heuristic play in the hybrid rollout; the rest stays random to
// preserve exploration.
const hybridHeuristicShare = 0.7

// RolloutStrategy picks the next action during a simulated playout. Hosts
// may install their own (for example a learned policy) via
// WithRolloutStrategy. Candidates is never empty.
type RolloutStrategy interface {
	Choose(rng *rand.Rand, state decision.State, candidates []decision.Action) decision.Action
}

func buildRollout(cfg Config) RolloutStrategy {
	if cfg.CustomRollout != nil {
		return cfg.CustomRollout
	}
	switch cfg.Rollout {
	case RolloutHeuristic:
		return heuristicRollout{riskTolerance: cfg.RiskTolerance}
	case RolloutHybrid:
		return hybridRollout{
			heuristic: heuristicRollout{riskTolerance: cfg.RiskTolerance},
			random:    randomRollout{},
		}
	default:
		return randomRollout{}
	}
}

type randomRollout struct{}

func (randomRollout) Choose(rng *rand.Rand, _ decision.State, candidates []decision.Action) decision.Action {
	return candidates[rng.Intn(len(candidates))]
}

// heuristicRollout greedily scores candidates on impact, cost efficiency,
// risk, and time cost.
type heuristicRollout struct {
	riskTolerance float64
}

func (h heuristicRollout) Choose(rng *rand.Rand, _ decision.State, candidates []decision.Action) decision.Action {
	best := candidates[0]
	maxScore := math.Inf(-1)
	for _, a := range candidates {
		if score := h.score(a); score > maxScore {
			maxScore = score
			best = a
		}
	}
	return best
}

func (h heuristicRollout) score(a decision.Action) float64 {
	costEfficiency := 1.0 / (1.0 + a.Cost)
	return a.ExpectedImpact*a.Confidence +
		costEfficiency -
		a.Risk.Penalty()*(1-h.riskTolerance) -
		a.TimeCost
}

type hybridRollout struct {
	heuristic heuristicRollout
	random    randomRollout
}

func (h hybridRollout) Choose(rng *rand.Rand, state decision.State, candidates []decision.Action) decision.Action {
	if rng.Float64() < hybridHeuristicShare {
		return h.heuristic.Choose(rng, state, candidates)
	}
	return h.random.Choose(rng, state, candidates)
}
