package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"strategos/decision"
)

func TestNewChild(t *testing.T) {
	root := newRoot(mockState{id: "root"})
	action := decision.Action{ID: "a0", Kind: "a0"}

	child := newChild(root, action, mockState{id: "child", depth: 1}, false)

	require.Equal(t, root, child.parent, "Child should back-reference its parent")
	require.Equal(t, 1, child.depth, "Child depth should be parent depth plus one")
	require.Equal(t, []*node{child}, root.children, "Parent should own the child")
	require.Equal(t, "a0", child.action.ID, "Child should carry the producing action")
	require.NotEmpty(t, child.id)
}

func TestChildrenKeepExpansionOrder(t *testing.T) {
	root := newRoot(mockState{id: "root"})
	first := newChild(root, decision.Action{ID: "a0"}, mockState{id: "s0"}, false)
	second := newChild(root, decision.Action{ID: "a1"}, mockState{id: "s1"}, false)

	require.Equal(t, []*node{first, second}, root.children)
}

func TestAverageRewardDerivedFromTotals(t *testing.T) {
	n := newRoot(mockState{id: "root"})
	require.Zero(t, n.averageReward(), "Unvisited node should average zero")

	n.record(0.8, 1.4)
	n.record(0.4, 1.4)

	require.Equal(t, int64(2), n.visits)
	require.InDelta(t, 0.6, n.averageReward(), 1e-12,
		"Average should always equal totalReward/visits")
}

func TestRecordRefreshesDiagnostics(t *testing.T) {
	root := newRoot(mockState{id: "root"})
	child := newChild(root, decision.Action{ID: "a0"}, mockState{id: "s0"}, false)

	root.record(0.5, 1.4)
	child.record(0.5, 1.4)

	require.False(t, child.lastVisited.IsZero(), "Backpropagation should stamp lastVisited")
	require.Greater(t, child.lastUCB, 0.0, "Cached UCB should be refreshed against the parent's visits")
}

func TestMostVisitedChild(t *testing.T) {
	t.Run("picks the child with the most visits", func(t *testing.T) {
		root := newRoot(mockState{id: "root"})
		a := newChild(root, decision.Action{ID: "a0"}, mockState{id: "s0"}, false)
		b := newChild(root, decision.Action{ID: "a1"}, mockState{id: "s1"}, false)
		a.visits = 3
		b.visits = 7

		require.Equal(t, b, root.mostVisitedChild())
	})

	t.Run("breaks visit ties toward the higher total reward", func(t *testing.T) {
		root := newRoot(mockState{id: "root"})
		a := newChild(root, decision.Action{ID: "a0"}, mockState{id: "s0"}, false)
		b := newChild(root, decision.Action{ID: "a1"}, mockState{id: "s1"}, false)
		a.visits, a.totalReward = 1, 0.2
		b.visits, b.totalReward = 1, 0.9

		require.Equal(t, b, root.mostVisitedChild())
	})

	t.Run("returns nil without children", func(t *testing.T) {
		require.Nil(t, newRoot(mockState{id: "root"}).mostVisitedChild())
	})
}

func TestTreeSize(t *testing.T) {
	root := newRoot(mockState{id: "root"})
	child := newChild(root, decision.Action{ID: "a0"}, mockState{id: "s0"}, false)
	newChild(child, decision.Action{ID: "a1"}, mockState{id: "s1"}, false)

	require.Equal(t, 3, root.treeSize())
}
