package searcher

import (
	"context"
	"fmt"

	"strategos/decision"
)

// Test doubles shared across the searcher tests: a depth-counting state
// space with configurable action sets, rewards, and failure injection.

type mockState struct {
	id    string
	depth int
}

func (s mockState) ID() string { return s.id }

type mockEnv struct {
	terminalAt int   // states at this depth or deeper are terminal; 0 disables
	applyErr   error // fail every Apply when set
}

func (e mockEnv) Apply(ctx context.Context, s decision.State, a decision.Action) (decision.State, error) {
	if e.applyErr != nil {
		return nil, e.applyErr
	}
	ms := s.(mockState)
	return mockState{
		id:    fmt.Sprintf("%s/%s", ms.id, a.ID),
		depth: ms.depth + 1,
	}, nil
}

func (e mockEnv) IsTerminal(s decision.State) bool {
	if e.terminalAt <= 0 {
		return false
	}
	return s.(mockState).depth >= e.terminalAt
}

// staticGenerator returns the same actions for every state, with stable
// identities.
type staticGenerator struct {
	actions []decision.Action
	err     error
}

func (g staticGenerator) CanGenerate(ctx context.Context, s decision.State) bool {
	return true
}

func (g staticGenerator) GenerateActions(ctx context.Context, s decision.State) ([]decision.Action, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.actions, nil
}

// rewardTable scores actions by ID for every objective; unknown actions
// score fallback.
type rewardTable struct {
	rewards  map[string]float64
	fallback float64
	err      error
}

func (c rewardTable) Calculate(ctx context.Context, s decision.State, a decision.Action, objective string) (float64, error) {
	if c.err != nil {
		return 0, c.err
	}
	if r, ok := c.rewards[a.ID]; ok {
		return r, nil
	}
	return c.fallback, nil
}

// constantCalculator scores one objective at a fixed value and everything
// else at zero.
type constantCalculator struct {
	objective string
	value     float64
}

func (c constantCalculator) Calculate(ctx context.Context, s decision.State, a decision.Action, objective string) (float64, error) {
	if objective == c.objective {
		return c.value, nil
	}
	return 0, nil
}

func testActions(ids ...string) []decision.Action {
	actions := make([]decision.Action, len(ids))
	for i, id := range ids {
		actions[i] = decision.Action{
			ID:         id,
			Kind:       id,
			Confidence: 1,
			Risk:       decision.RiskLow,
		}
	}
	return actions
}
