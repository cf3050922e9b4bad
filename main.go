package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"strategos/decision"
	"strategos/experiments"
	"strategos/searcher"
)

// Demo domain: allocate a fixed budget across a few initiatives, one
// funding decision per step, until the budget runs out or the horizon is
// reached.

type portfolio struct {
	id     string
	budget float64
	step   int
}

func (p portfolio) ID() string { return p.id }

type initiative struct {
	name   string
	cost   float64
	impact float64
	conf   float64
	risk   decision.RiskLevel
	flags  []string
}

var initiatives = []initiative{
	{name: "expand-sales", cost: 40, impact: 0.8, conf: 0.7, risk: decision.RiskMedium, flags: []string{"growth"}},
	{name: "optimize-ops", cost: 25, impact: 0.5, conf: 0.9, risk: decision.RiskLow},
	{name: "enter-market", cost: 60, impact: 0.9, conf: 0.5, risk: decision.RiskHigh, flags: []string{"growth"}},
	{name: "hold", cost: 0, impact: 0.2, conf: 1.0, risk: decision.RiskMinimal},
}

type allocationGenerator struct{}

func (allocationGenerator) CanGenerate(ctx context.Context, s decision.State) bool {
	return true
}

func (allocationGenerator) GenerateActions(ctx context.Context, s decision.State) ([]decision.Action, error) {
	p := s.(portfolio)
	var actions []decision.Action
	for _, init := range initiatives {
		if init.cost > p.budget {
			continue
		}
		actions = append(actions, decision.Action{
			ID:             init.name, // stable identity across generator calls
			Kind:           init.name,
			Cost:           init.cost,
			ExpectedImpact: init.impact,
			Confidence:     init.conf,
			TimeCost:       0.05,
			Risk:           init.risk,
			Flags:          init.flags,
		})
	}
	return actions, nil
}

type market struct {
	horizon int
}

func (m market) Apply(ctx context.Context, s decision.State, a decision.Action) (decision.State, error) {
	p := s.(portfolio)
	next := portfolio{
		budget: p.budget - a.Cost,
		step:   p.step + 1,
	}
	next.id = fmt.Sprintf("b%.0f-s%d", next.budget, next.step)
	return next, nil
}

func (m market) IsTerminal(s decision.State) bool {
	p := s.(portfolio)
	return p.step >= m.horizon || p.budget <= 0
}

type outcomeModel struct{}

func (outcomeModel) Calculate(ctx context.Context, s decision.State, a decision.Action, objective string) (float64, error) {
	switch objective {
	case "growth":
		return a.ExpectedImpact * a.Confidence, nil
	case "stability":
		return 1 - a.Risk.Penalty(), nil
	case "efficiency":
		return 1 / (1 + a.Cost/50), nil
	default:
		return 0.5, nil
	}
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	env := market{horizon: 8}
	generators := []decision.ActionGenerator{allocationGenerator{}}
	calculators := []decision.RewardCalculator{outcomeModel{}}
	initial := portfolio{id: "b100-s0", budget: 100}
	objectives := []decision.Objective{
		{Name: "growth", Weight: 0.5},
		{Name: "stability", Weight: 0.3},
		{Name: "efficiency", Weight: 0.2},
	}
	constraints := decision.Constraints{RiskTolerance: 0.6}

	engine := searcher.New(env, generators, calculators,
		searcher.WithMaxIterations(2000),
		searcher.WithTimeLimit(5*time.Second),
		searcher.WithRollout(searcher.RolloutHybrid),
		searcher.WithContextFlags("growth"),
		searcher.WithLogger(logger),
	)

	ctx := context.Background()
	result, err := engine.FindOptimalStrategy(ctx, initial, objectives, constraints)
	if err != nil {
		logger.Fatal().Err(err).Msg("search failed")
	}

	fmt.Printf("Best action: %s (expected reward %.3f, confidence %.0f%%)\n",
		result.BestAction.Kind, result.ExpectedReward, result.Confidence*100)
	fmt.Printf("Best path:")
	for _, a := range result.BestPath {
		fmt.Printf(" %s", a.Kind)
	}
	fmt.Printf("\nIterations: %d, explored nodes: %d, converged: %v, took %s\n",
		result.Iterations, result.ExploredNodes, result.ConvergenceReached, result.ExecutionTime)
	for _, alt := range result.Alternatives {
		fmt.Printf("Alternative: %s (expected reward %.3f, %s risk)\n",
			alt.Action.Kind, alt.ExpectedReward, alt.Risk)
	}

	recommendations, err := engine.GetStrategyRecommendations(ctx, initial, searcher.RecommendationOptions{
		MaxRecommendations: 3,
		TimeLimit:          time.Second,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("recommendations failed")
	}
	fmt.Println("\nQuick recommendations:")
	for i, rec := range recommendations {
		fmt.Printf("%d. %s\n", i+1, rec.Reasoning)
	}

	runPolicyExperiment(ctx, env, generators, calculators, initial, objectives, constraints, logger)
}

// runPolicyExperiment benchmarks the selection policies against each other
// and writes the records as CSV.
func runPolicyExperiment(ctx context.Context, env decision.Environment,
	generators []decision.ActionGenerator, calculators []decision.RewardCalculator,
	initial decision.State, objectives []decision.Objective,
	constraints decision.Constraints, logger zerolog.Logger) {

	budget := []searcher.Option{
		searcher.WithMaxIterations(500),
		searcher.WithTimeLimit(2 * time.Second),
	}
	trials := []experiments.Trial{
		{Name: "ucb1", Options: append([]searcher.Option{searcher.WithSelection(searcher.SelectUCB1)}, budget...)},
		{Name: "widening", Options: append([]searcher.Option{searcher.WithSelection(searcher.SelectProgressiveWidening)}, budget...)},
		{Name: "thompson", Options: append([]searcher.Option{searcher.WithSelection(searcher.SelectThompson)}, budget...)},
	}

	fmt.Println("\nRunning policy experiment...")
	records := experiments.Run(ctx, experiments.Domain{
		Env:         env,
		Generators:  generators,
		Calculators: calculators,
		Initial:     initial,
		Objectives:  objectives,
		Constraints: constraints,
	}, trials, 5)

	writer, err := experiments.NewWriter("experiments/results")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create experiment writer")
	}
	if err := writer.WriteRecords(records); err != nil {
		logger.Fatal().Err(err).Msg("failed to write experiment records")
	}
	fmt.Printf("Wrote %d records to %s\n", len(records), writer.Dir())
}
