package searcher

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Convergence detection cadence. A search may stop early only after
// minIterationsForCheck iterations, checking every convergenceCheckInterval
// iterations, and only once requiredConvergedStreak consecutive checks
// agreed. Stagnation is measured against a fraction of the time budget.
const (
	convergenceCheckInterval = 50
	minIterationsForCheck    = 100
	requiredConvergedStreak  = 10
	stagnationFraction       = 0.3
)

// Selection names a tree selection policy.
type Selection string

const (
	SelectUCB1                Selection = "ucb1"
	SelectUCB1Tuned           Selection = "ucb1-tuned"
	SelectProgressiveWidening Selection = "widening"
	SelectThompson            Selection = "thompson"
)

func (s Selection) String() string { return string(s) }

// ParseSelection resolves a policy name from configuration. The empty
// string keeps the default.
func ParseSelection(name string) (Selection, error) {
	switch Selection(name) {
	case "", SelectUCB1:
		return SelectUCB1, nil
	case SelectUCB1Tuned, SelectProgressiveWidening, SelectThompson:
		return Selection(name), nil
	}
	return "", fmt.Errorf("unknown selection policy %q", name)
}

// Rollout names a built-in playout policy.
type Rollout string

const (
	RolloutRandom    Rollout = "random"
	RolloutHeuristic Rollout = "heuristic"
	RolloutHybrid    Rollout = "hybrid"
)

func (r Rollout) String() string { return string(r) }

// ParseRollout resolves a rollout name from configuration. The empty
// string keeps the default.
func ParseRollout(name string) (Rollout, error) {
	switch Rollout(name) {
	case "", RolloutRandom:
		return RolloutRandom, nil
	case RolloutHeuristic, RolloutHybrid:
		return Rollout(name), nil
	}
	return "", fmt.Errorf("unknown rollout policy %q", name)
}

// Config carries every tunable of a search. Build one through New and the
// With* options; the zero value is not usable.
type Config struct {
	MaxIterations        int
	MaxDepth             int
	Exploration          float64
	TimeLimit            time.Duration
	SimulationDepthCap   int
	SimulationCount      int
	ConvergenceThreshold float64
	Discount             float64
	TerminalBonus        float64

	Selection     Selection
	Rollout       Rollout
	CustomRollout RolloutStrategy

	ObjectiveWeights map[string]float64
	ContextFlags     []string
	ContextBonus     float64
	RiskTolerance    float64

	Seed   uint64
	Logger zerolog.Logger
}

func defaultConfig() Config {
	return Config{
		MaxIterations:        1000,
		MaxDepth:             10,
		Exploration:          1.414,
		TimeLimit:            30 * time.Second,
		SimulationDepthCap:   5,
		SimulationCount:      1,
		ConvergenceThreshold: 0.01,
		Discount:             0.9,
		TerminalBonus:        0.2,
		Selection:            SelectUCB1,
		Rollout:              RolloutRandom,
		ContextBonus:         0.1,
		RiskTolerance:        0.5,
		Logger:               zerolog.Nop(),
	}
}

// Option configures an Engine. Options with out-of-range values are
// ignored and the default stands.
type Option func(*Config)

func WithMaxIterations(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxIterations = n
		}
	}
}

func WithMaxDepth(depth int) Option {
	return func(c *Config) {
		if depth > 0 {
			c.MaxDepth = depth
		}
	}
}

// WithExploration sets the UCB1 exploration constant c.
func WithExploration(c float64) Option {
	return func(cfg *Config) {
		if c > 0 {
			cfg.Exploration = c
		}
	}
}

func WithTimeLimit(limit time.Duration) Option {
	return func(c *Config) {
		if limit > 0 {
			c.TimeLimit = limit
		}
	}
}

func WithSimulationDepthCap(limit int) Option {
	return func(c *Config) {
		if limit > 0 {
			c.SimulationDepthCap = limit
		}
	}
}

// WithSimulationCount sets how many playouts are averaged per expansion.
func WithSimulationCount(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.SimulationCount = n
		}
	}
}

func WithConvergenceThreshold(threshold float64) Option {
	return func(c *Config) {
		if threshold > 0 {
			c.ConvergenceThreshold = threshold
		}
	}
}

func WithDiscount(discount float64) Option {
	return func(c *Config) {
		if discount > 0 && discount <= 1 {
			c.Discount = discount
		}
	}
}

func WithTerminalBonus(bonus float64) Option {
	return func(c *Config) {
		if bonus >= 0 {
			c.TerminalBonus = bonus
		}
	}
}

func WithSelection(selection Selection) Option {
	return func(c *Config) {
		c.Selection = selection
	}
}

func WithRollout(rollout Rollout) Option {
	return func(c *Config) {
		c.Rollout = rollout
	}
}

// WithRolloutStrategy installs a host-supplied playout policy. It takes
// precedence over WithRollout.
func WithRolloutStrategy(strategy RolloutStrategy) Option {
	return func(c *Config) {
		c.CustomRollout = strategy
	}
}

// WithObjectiveWeights supplies default weights for objectives whose
// weight is left unset by the caller.
func WithObjectiveWeights(weights map[string]float64) Option {
	return func(c *Config) {
		if len(weights) > 0 {
			c.ObjectiveWeights = weights
		}
	}
}

// WithContextFlags marks action flags that bias selection and expansion
// toward flagged actions.
func WithContextFlags(flags ...string) Option {
	return func(c *Config) {
		if len(flags) > 0 {
			c.ContextFlags = flags
		}
	}
}

func WithContextBonus(bonus float64) Option {
	return func(c *Config) {
		if bonus >= 0 {
			c.ContextBonus = bonus
		}
	}
}

// WithRiskTolerance sets the risk penalty the host is willing to accept,
// in [0,1]. It tilts the heuristic rollout and the final risk assessment.
func WithRiskTolerance(tolerance float64) Option {
	return func(c *Config) {
		if tolerance >= 0 && tolerance <= 1 {
			c.RiskTolerance = tolerance
		}
	}
}

// WithSeed fixes the random source for reproducible searches. Zero keeps
// time-based seeding.
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.Seed = seed
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
