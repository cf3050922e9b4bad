package searcher

import (
	"sync/atomic"
	"time"
)

// SearchStats carries diagnostics for one search. Counters are advisory;
// correctness never depends on them.
type SearchStats struct {
	Iterations      int
	Successes       int
	FailedCallbacks int
	ClampedRewards  int
	FullPlayouts    int
	TreeSize        int
	Duration        time.Duration
}

type collector struct {
	startTime       time.Time
	iterations      atomic.Int64
	successes       atomic.Int64
	failedCallbacks atomic.Int64
	clampedRewards  atomic.Int64
	fullPlayouts    atomic.Int64
}

func newCollector() *collector {
	return &collector{startTime: time.Now()}
}

func (c *collector) addIteration() { c.iterations.Add(1) }
func (c *collector) addSuccess()   { c.successes.Add(1) }
func (c *collector) addFailure()   { c.failedCallbacks.Add(1) }
func (c *collector) addClamped()   { c.clampedRewards.Add(1) }
func (c *collector) addPlayout()   { c.fullPlayouts.Add(1) }

func (c *collector) snapshot(treeSize int) SearchStats {
	return SearchStats{
		Iterations:      int(c.iterations.Load()),
		Successes:       int(c.successes.Load()),
		FailedCallbacks: int(c.failedCallbacks.Load()),
		ClampedRewards:  int(c.clampedRewards.Load()),
		FullPlayouts:    int(c.fullPlayouts.Load()),
		TreeSize:        treeSize,
		Duration:        time.Since(c.startTime),
	}
}
