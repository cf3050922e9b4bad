package searcher

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"strategos/decision"
)

// ucb1 scores a child from its reward totals. An unvisited child scores
// +Inf so every child is sampled once before UCB comparisons begin.
func ucb1(rewards float64, visits int64, c2LnN float64) float64 {
	if visits == 0 {
		return math.Inf(1)
	}
	return rewards/float64(visits) + math.Sqrt(c2LnN/float64(visits))
}

func lnVisits(visits int64) float64 {
	return math.Log(float64(visits))
}

// contextBonus adds a fixed constant to a child's score per configured
// adaptation flag carried by its action. Configuration-gated, not
// universal.
type contextBonus struct {
	flags []string
	bonus float64
}

func (b contextBonus) of(a *decision.Action) float64 {
	if a == nil {
		return 0
	}
	total := 0.0
	for _, flag := range b.flags {
		if a.HasFlag(flag) {
			total += b.bonus
		}
	}
	return total
}

// selectionPolicy decides what happens at a node during traversal: descend
// into a child, or expand the node instead. A (nil, false) return marks the
// node as this iteration's leaf.
type selectionPolicy interface {
	pick(rng *rand.Rand, parent *node) (child *node, expand bool)
}

// buildPolicy resolves the configured policy once per session; there is no
// per-call string dispatch.
func buildPolicy(cfg Config, src rand.Source) selectionPolicy {
	bonus := contextBonus{flags: cfg.ContextFlags, bonus: cfg.ContextBonus}
	base := ucb1Policy{c: cfg.Exploration, bonus: bonus}
	switch cfg.Selection {
	case SelectUCB1Tuned:
		return ucb1TunedPolicy{base}
	case SelectProgressiveWidening:
		return wideningPolicy{base}
	case SelectThompson:
		return thompsonPolicy{src: src, bonus: bonus}
	default:
		return base
	}
}

type ucb1Policy struct {
	c     float64
	bonus contextBonus
}

func (p ucb1Policy) pick(rng *rand.Rand, parent *node) (*node, bool) {
	if parent.expandable() {
		return nil, true
	}
	return p.selectChild(parent)
}

func (p ucb1Policy) selectChild(parent *node) (*node, bool) {
	if len(parent.children) == 0 {
		return nil, false
	}

	// Exploration priority: an unvisited child is selected immediately,
	// before any UCB computation.
	for _, child := range parent.children {
		if child.visits == 0 {
			return child, false
		}
	}

	normalizer := p.c * p.c * lnVisits(parent.visits)
	var best *node
	maxScore := math.Inf(-1)
	for _, child := range parent.children {
		score := ucb1(child.totalReward, child.visits, normalizer) + p.bonus.of(child.action)
		if score > maxScore {
			maxScore = score
			best = child
		}
	}
	return best, false
}

// ucb1TunedPolicy is a documented fallback: the tuned variance term is not
// implemented, so it behaves exactly like UCB1.
type ucb1TunedPolicy struct {
	ucb1Policy
}

// wideningPolicy caps the number of children at ceil(sqrt(parent visits)).
// Below the cap it requests expansion; at the cap it descends past
// remaining unexplored actions using UCB1.
type wideningPolicy struct {
	ucb1Policy
}

func (p wideningPolicy) pick(rng *rand.Rand, parent *node) (*node, bool) {
	limit := int(math.Ceil(math.Sqrt(float64(parent.visits))))
	if parent.expandable() && len(parent.children) < limit {
		return nil, true
	}
	return p.selectChild(parent)
}

// thompsonPolicy draws a fresh Beta(totalReward+1, visits-totalReward+1)
// sample per child on every call and descends into the highest draw.
type thompsonPolicy struct {
	src   rand.Source
	bonus contextBonus
}

func (p thompsonPolicy) pick(rng *rand.Rand, parent *node) (*node, bool) {
	if parent.expandable() {
		return nil, true
	}
	if len(parent.children) == 0 {
		return nil, false
	}

	var best *node
	maxSample := math.Inf(-1)
	for _, child := range parent.children {
		beta := float64(child.visits) - child.totalReward + 1
		if beta <= 0 { // rewards are clamped to [0,1], but stay safe
			beta = 1e-9
		}
		dist := distuv.Beta{Alpha: child.totalReward + 1, Beta: beta, Src: p.src}
		sample := dist.Rand() + p.bonus.of(child.action)
		if sample > maxSample {
			maxSample = sample
			best = child
		}
	}
	return best, false
}
