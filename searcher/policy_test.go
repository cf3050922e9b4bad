package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"strategos/decision"
)

func fullyExpandedParent(childStats ...[2]float64) *node {
	parent := newRoot(mockState{id: "root"})
	parent.generated = true
	for i, stats := range childStats {
		id := string(rune('a' + i))
		action := decision.Action{ID: id, Kind: id, Confidence: 1, Risk: decision.RiskLow}
		child := newChild(parent, action, mockState{id: id, depth: 1}, false)
		child.visits = int64(stats[0])
		child.totalReward = stats[1]
		parent.visits += child.visits
	}
	return parent
}

func TestUCB1VisitsEveryChildOnceFirst(t *testing.T) {
	// With K unvisited children, each must be selected once before any
	// child is selected twice.
	parent := fullyExpandedParent([2]float64{0, 0}, [2]float64{0, 0}, [2]float64{0, 0}, [2]float64{0, 0})
	policy := ucb1Policy{c: 1.4}
	rng := rand.New(rand.NewSource(1))

	seen := map[string]bool{}
	for i := 0; i < len(parent.children); i++ {
		child, expand := policy.pick(rng, parent)
		require.False(t, expand)
		require.NotNil(t, child)
		require.Zero(t, child.visits, "No child should be selected twice before all are selected once")
		child.visits++
		parent.visits++
		seen[child.action.ID] = true
	}
	require.Len(t, seen, 4, "Every child should be selected exactly once")
}

func TestUCB1PicksMaxScoreChild(t *testing.T) {
	// Equal visits, so exploitation decides.
	parent := fullyExpandedParent([2]float64{10, 2}, [2]float64{10, 8}, [2]float64{10, 5})
	policy := ucb1Policy{c: 1.4}
	rng := rand.New(rand.NewSource(1))

	child, expand := policy.pick(rng, parent)

	require.False(t, expand)
	require.Equal(t, "b", child.action.ID, "Policy should select the highest-average child")
}

func TestUCB1RequestsExpansionWithUnexploredActions(t *testing.T) {
	parent := fullyExpandedParent([2]float64{1, 0.5})
	parent.unexplored = testActions("pending")

	child, expand := ucb1Policy{c: 1.4}.pick(rand.New(rand.NewSource(1)), parent)

	require.True(t, expand, "An expandable node stops the descent")
	require.Nil(t, child)
}

func TestUCB1TunedFallsBackToUCB1(t *testing.T) {
	// The tuned variance term is deliberately unimplemented; both policies
	// must pick identically.
	for seed := uint64(1); seed <= 5; seed++ {
		parent := fullyExpandedParent([2]float64{12, 4}, [2]float64{8, 5}, [2]float64{20, 9})
		base := ucb1Policy{c: 1.4}
		tuned := ucb1TunedPolicy{base}

		baseChild, _ := base.pick(rand.New(rand.NewSource(seed)), parent)
		tunedChild, _ := tuned.pick(rand.New(rand.NewSource(seed)), parent)

		require.Equal(t, baseChild, tunedChild)
	}
}

func TestContextBonusTiltsSelection(t *testing.T) {
	// Two children with identical statistics; the configured flag breaks
	// the tie.
	parent := fullyExpandedParent([2]float64{10, 5}, [2]float64{10, 5})
	parent.children[1].action.Flags = []string{"growth"}

	plain := ucb1Policy{c: 1.4}
	flagged := ucb1Policy{c: 1.4, bonus: contextBonus{flags: []string{"growth"}, bonus: 0.1}}
	rng := rand.New(rand.NewSource(1))

	child, _ := plain.pick(rng, parent)
	require.Equal(t, "a", child.action.ID, "Without bonuses the first max wins")

	child, _ = flagged.pick(rng, parent)
	require.Equal(t, "b", child.action.ID, "The flagged child should win the tie")
}

func TestProgressiveWidening(t *testing.T) {
	t.Run("requests expansion below the child cap", func(t *testing.T) {
		// ceil(sqrt(9)) = 3 allowed children.
		parent := fullyExpandedParent([2]float64{5, 2}, [2]float64{4, 2})
		parent.visits = 9
		parent.unexplored = testActions("pending")
		widening := wideningPolicy{ucb1Policy{c: 1.4}}

		child, expand := widening.pick(rand.New(rand.NewSource(1)), parent)

		require.True(t, expand)
		require.Nil(t, child)
	})

	t.Run("descends past unexplored actions at the cap", func(t *testing.T) {
		parent := fullyExpandedParent([2]float64{3, 1}, [2]float64{3, 2}, [2]float64{3, 3})
		parent.visits = 9
		parent.unexplored = testActions("pending")
		widening := wideningPolicy{ucb1Policy{c: 1.4}}

		child, expand := widening.pick(rand.New(rand.NewSource(1)), parent)

		require.False(t, expand, "At the cap the policy selects instead of widening")
		require.NotNil(t, child)
	})
}

func TestThompsonSampling(t *testing.T) {
	t.Run("selects roughly uniformly over identical children", func(t *testing.T) {
		src := rand.NewSource(42)
		thompson := thompsonPolicy{src: src}
		rng := rand.New(rand.NewSource(1))

		counts := map[string]int{}
		const draws = 3000
		for i := 0; i < draws; i++ {
			parent := fullyExpandedParent([2]float64{10, 5}, [2]float64{10, 5}, [2]float64{10, 5})
			child, expand := thompson.pick(rng, parent)
			require.False(t, expand)
			counts[child.action.ID]++
		}

		for id, count := range counts {
			share := float64(count) / draws
			require.InDelta(t, 1.0/3, share, 0.08,
				"Child %s should be drawn close to uniformly, got share %.3f", id, share)
		}
	})

	t.Run("redraws on every call", func(t *testing.T) {
		src := rand.NewSource(7)
		thompson := thompsonPolicy{src: src}
		rng := rand.New(rand.NewSource(1))
		parent := fullyExpandedParent([2]float64{10, 5}, [2]float64{10, 5})

		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			child, _ := thompson.pick(rng, parent)
			seen[child.action.ID] = true
		}
		require.Len(t, seen, 2, "A true probabilistic draw should not always pick the same child")
	})
}

func TestBuildPolicyResolvesSelection(t *testing.T) {
	src := rand.NewSource(1)
	cfg := defaultConfig()

	cfg.Selection = SelectUCB1
	require.IsType(t, ucb1Policy{}, buildPolicy(cfg, src))

	cfg.Selection = SelectUCB1Tuned
	require.IsType(t, ucb1TunedPolicy{}, buildPolicy(cfg, src))

	cfg.Selection = SelectProgressiveWidening
	require.IsType(t, wideningPolicy{}, buildPolicy(cfg, src))

	cfg.Selection = SelectThompson
	require.IsType(t, thompsonPolicy{}, buildPolicy(cfg, src))
}

func TestContextBonusOfNilAction(t *testing.T) {
	b := contextBonus{flags: []string{"growth"}, bonus: 0.1}
	require.Zero(t, b.of(nil))
	require.InDelta(t, 0.1, b.of(&decision.Action{Flags: []string{"growth"}}), 1e-12)
}
