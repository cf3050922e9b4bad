package decision

import "context"

// State is an opaque snapshot of the host's decision domain. The engine
// treats states as immutable values: it never mutates one in place and only
// derives successors through Environment.Apply.
type State interface {
	ID() string
}

// Environment is the host's world model: it applies actions to states and
// decides when a state is terminal. Apply must return a new state and leave
// its input untouched.
type Environment interface {
	Apply(ctx context.Context, s State, a Action) (State, error)
	IsTerminal(s State) bool
}

// ActionGenerator enumerates legal next actions for a state. The engine
// queries every registered generator and concatenates the results, then
// filters them against the search constraints. Generators may consult
// external signals, so determinism is not required.
type ActionGenerator interface {
	CanGenerate(ctx context.Context, s State) bool
	GenerateActions(ctx context.Context, s State) ([]Action, error)
}

// RewardCalculator scores a state/action pair against one named objective.
// Scores are expected to land roughly in [0,1]; non-finite values are
// clamped to zero by the engine.
type RewardCalculator interface {
	Calculate(ctx context.Context, s State, a Action, objective string) (float64, error)
}
