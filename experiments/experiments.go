// Package experiments benchmarks search configurations against a
// host-supplied domain and records the results as CSV.
package experiments

import (
	"context"
	"time"

	"strategos/decision"
	"strategos/searcher"
)

// Trial names one engine configuration to benchmark.
type Trial struct {
	Name    string
	Options []searcher.Option
}

// Record is the outcome of one trial run.
type Record struct {
	Trial          string
	Run            int
	Iterations     int
	BestAction     string
	ExpectedReward float64
	Confidence     float64
	ExploredNodes  int
	Converged      bool
	Duration       time.Duration
}

// Domain bundles the host callbacks a trial searches over.
type Domain struct {
	Env         decision.Environment
	Generators  []decision.ActionGenerator
	Calculators []decision.RewardCalculator
	Initial     decision.State
	Objectives  []decision.Objective
	Constraints decision.Constraints
}

// Run executes every trial runsPerTrial times and collects one record per
// run. A failing run produces a record with zero iterations rather than
// aborting the matrix.
func Run(ctx context.Context, domain Domain, trials []Trial, runsPerTrial int) []Record {
	if runsPerTrial <= 0 {
		runsPerTrial = 1
	}

	var records []Record
	for _, trial := range trials {
		engine := searcher.New(domain.Env, domain.Generators, domain.Calculators, trial.Options...)
		for run := 0; run < runsPerTrial; run++ {
			start := time.Now()
			result, err := engine.FindOptimalStrategy(ctx, domain.Initial, domain.Objectives, domain.Constraints)
			record := Record{
				Trial:    trial.Name,
				Run:      run,
				Duration: time.Since(start),
			}
			if err == nil {
				record.Iterations = result.Iterations
				record.BestAction = result.BestAction.Kind
				record.ExpectedReward = result.ExpectedReward
				record.Confidence = result.Confidence
				record.ExploredNodes = result.ExploredNodes
				record.Converged = result.ConvergenceReached
			}
			records = append(records, record)
		}
	}
	return records
}
