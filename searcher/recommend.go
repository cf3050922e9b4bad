package searcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"strategos/decision"
)

// Reduced budgets for the recommendation path.
const (
	recommendIterations  = 200
	recommendDepth       = 5
	recommendTimeLimit   = 5 * time.Second
	defaultRecommendSize = 3
)

// GetStrategyRecommendations runs a smaller, faster search and returns the
// top actions from the root ranked by visit count, each with a reasoning
// string. Objectives come from the configured objective weights.
func (e *Engine) GetStrategyRecommendations(ctx context.Context, state decision.State, opts RecommendationOptions) ([]Recommendation, error) {
	size := opts.MaxRecommendations
	if size <= 0 {
		size = defaultRecommendSize
	}

	cfg := e.cfg
	if cfg.MaxIterations > recommendIterations {
		cfg.MaxIterations = recommendIterations
	}
	if cfg.MaxDepth > recommendDepth {
		cfg.MaxDepth = recommendDepth
	}
	if opts.TimeLimit > 0 {
		cfg.TimeLimit = opts.TimeLimit
	} else if cfg.TimeLimit > recommendTimeLimit {
		cfg.TimeLimit = recommendTimeLimit
	}

	sub := &Engine{
		env:         e.env,
		generators:  e.generators,
		calculators: e.calculators,
		cfg:         cfg,
		log:         e.log,
	}
	s := sub.newSession(state, nil, decision.Constraints{}, sub.seed())
	s.runLoop(ctx)
	if _, err := s.extract(); err != nil {
		return nil, err
	}

	children := make([]*node, len(s.root.children))
	copy(children, s.root.children)
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].visits != children[j].visits {
			return children[i].visits > children[j].visits
		}
		return children[i].totalReward > children[j].totalReward
	})
	if len(children) > size {
		children = children[:size]
	}

	recommendations := make([]Recommendation, len(children))
	for i, child := range children {
		share := float64(child.visits) / float64(s.root.visits)
		recommendations[i] = Recommendation{
			Action:         *child.action,
			ExpectedReward: child.averageReward(),
			Confidence:     share,
			Reasoning: fmt.Sprintf(
				"%s sampled in %d of %d playouts (%.0f%%) with average reward %.2f at %s risk",
				child.action.Kind, child.visits, s.root.visits, share*100,
				child.averageReward(), child.action.Risk),
		}
	}
	return recommendations, nil
}
