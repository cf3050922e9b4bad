package searcher

import (
	"context"
	"sort"
	"sync"
	"time"

	"strategos/decision"
)

// FindOptimalStrategyParallel is root parallelization: it builds several
// independent trees from the same initial state with worker goroutines,
// then merges their root statistics by action identity before extraction.
// Generators must return stable IDs for equivalent actions so the merge
// lines up. Correctness never depends on this path; the sequential
// FindOptimalStrategy is the reference behavior.
func (e *Engine) FindOptimalStrategyParallel(ctx context.Context, initial decision.State, objectives []decision.Objective, constraints decision.Constraints, trees int) (SearchResult, error) {
	if trees <= 1 {
		return e.FindOptimalStrategy(ctx, initial, objectives, constraints)
	}

	start := time.Now()
	base := e.seed()
	sessions := make([]*session, trees)

	var wg sync.WaitGroup
	for i := 0; i < trees; i++ {
		s := e.newSession(initial, objectives, constraints, base+uint64(i)*0x9E3779B97F4A7C15)
		sessions[i] = s
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runLoop(ctx)
		}()
	}
	wg.Wait()

	return mergeSessions(sessions, start, e.cfg)
}

type mergedChild struct {
	action decision.Action
	visits int64
	total  float64
}

func (m mergedChild) average() float64 {
	if m.visits == 0 {
		return 0
	}
	return m.total / float64(m.visits)
}

func mergeSessions(sessions []*session, start time.Time, cfg Config) (SearchResult, error) {
	byAction := make(map[string]*mergedChild)
	var order []string // deterministic iteration
	var rootVisits int64
	var stats SearchStats
	iterations := 0
	successes := 0
	converged := true

	for _, s := range sessions {
		iterations += s.iterations
		successes += s.successes
		converged = converged && s.converged
		rootVisits += s.root.visits

		snap := s.metrics.snapshot(s.root.treeSize())
		stats.Iterations += snap.Iterations
		stats.Successes += snap.Successes
		stats.FailedCallbacks += snap.FailedCallbacks
		stats.ClampedRewards += snap.ClampedRewards
		stats.FullPlayouts += snap.FullPlayouts
		stats.TreeSize += snap.TreeSize

		for _, child := range s.root.children {
			m, ok := byAction[child.action.ID]
			if !ok {
				m = &mergedChild{action: *child.action}
				byAction[child.action.ID] = m
				order = append(order, child.action.ID)
			}
			m.visits += child.visits
			m.total += child.totalReward
		}
	}
	stats.Duration = time.Since(start)

	if successes == 0 {
		return SearchResult{}, ErrNoIterationsCompleted
	}
	if len(byAction) == 0 {
		return SearchResult{}, ErrNoLegalActions
	}

	var best *mergedChild
	for _, id := range order {
		m := byAction[id]
		if best == nil ||
			m.visits > best.visits ||
			(m.visits == best.visits && m.total > best.total) {
			best = m
		}
	}

	others := make([]*mergedChild, 0, len(byAction)-1)
	for _, id := range order {
		if m := byAction[id]; m != best {
			others = append(others, m)
		}
	}
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].average() > others[j].average()
	})
	if len(others) > maxAlternatives {
		others = others[:maxAlternatives]
	}
	alts := make([]Alternative, len(others))
	for i, m := range others {
		alts[i] = Alternative{
			Action:         m.action,
			ExpectedReward: m.average(),
			Confidence:     float64(m.visits) / float64(rootVisits),
			Risk:           m.action.Risk,
		}
	}

	return SearchResult{
		BestAction:         best.action,
		BestPath:           mergedBestPath(sessions, best.action.ID),
		ExpectedReward:     best.average(),
		Confidence:         float64(best.visits) / float64(rootVisits),
		ExploredNodes:      stats.TreeSize - len(sessions),
		Iterations:         iterations,
		ExecutionTime:      time.Since(start),
		ConvergenceReached: converged,
		Alternatives:       alts,
		RiskAssessment: RiskAssessment{
			Level:           best.action.Risk,
			Penalty:         best.action.Risk.Penalty(),
			WithinTolerance: best.action.Risk.Penalty() <= cfg.RiskTolerance,
		},
		Stats: stats,
	}, nil
}

// mergedBestPath reads the path from the tree that sampled the winning
// action the most.
func mergedBestPath(sessions []*session, actionID string) []decision.Action {
	var donor *session
	var donorVisits int64 = -1
	for _, s := range sessions {
		for _, child := range s.root.children {
			if child.action.ID == actionID && child.visits > donorVisits {
				donor = s
				donorVisits = child.visits
			}
		}
	}
	if donor == nil {
		return nil
	}
	return bestPath(donor.root)
}
