package searcher

import (
	"time"

	"github.com/google/uuid"

	"strategos/decision"
)

// node is the tree's unit of memory. The parent pointer is a non-owning
// back-reference; children are owned by their parent and only ever appended,
// so the structure is a tree by construction. Nodes are never deleted
// mid-search; the whole tree is dropped with the session.
type node struct {
	id     string
	state  decision.State
	action *decision.Action // action that produced this node; nil for root

	parent   *node
	children []*node // insertion order == expansion order

	visits      int64
	totalReward float64

	unexplored []decision.Action
	generated  bool // legal actions are populated lazily

	terminal    bool
	depth       int
	lastVisited time.Time

	lastUCB float64 // diagnostic cache; selection always recomputes live
	clamped bool    // a non-finite reward was clamped on this node
}

func newRoot(state decision.State) *node {
	return &node{
		id:    uuid.NewString(),
		state: state,
	}
}

func newChild(parent *node, action decision.Action, state decision.State, terminal bool) *node {
	child := &node{
		id:       uuid.NewString(),
		state:    state,
		action:   &action,
		parent:   parent,
		depth:    parent.depth + 1,
		terminal: terminal,
	}
	parent.children = append(parent.children, child)
	return child
}

// averageReward is always derived from the totals so it can never go stale.
func (n *node) averageReward() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.totalReward / float64(n.visits)
}

// expandable reports whether an expansion at this node can create a child.
func (n *node) expandable() bool {
	return !n.terminal && len(n.unexplored) > 0
}

// record applies one backpropagation step to this node. The cached UCB
// score is refreshed against the parent's current visit count for
// inspection only.
func (n *node) record(reward float64, exploration float64) {
	n.visits++
	n.totalReward += reward
	n.lastVisited = time.Now()
	if n.parent != nil && n.parent.visits > 0 {
		normalizer := exploration * exploration * lnVisits(n.parent.visits)
		n.lastUCB = ucb1(n.totalReward, n.visits, normalizer)
	}
}

// mostVisitedChild picks the canonical MCTS recommendation: visit count
// reflects confidence, not just point estimate. Ties break toward the
// higher total reward.
func (n *node) mostVisitedChild() *node {
	var best *node
	for _, child := range n.children {
		if best == nil ||
			child.visits > best.visits ||
			(child.visits == best.visits && child.totalReward > best.totalReward) {
			best = child
		}
	}
	return best
}

// treeSize counts the nodes rooted at n.
func (n *node) treeSize() int {
	size := 1
	for _, child := range n.children {
		size += child.treeSize()
	}
	return size
}
