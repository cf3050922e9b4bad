package searcher

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"strategos/decision"
)

// Engine runs Monte Carlo tree searches over a host-supplied world model.
// Construct one per configuration; every search owns its own tree, so
// independent searches may run concurrently.
type Engine struct {
	env         decision.Environment
	generators  []decision.ActionGenerator
	calculators []decision.RewardCalculator
	cfg         Config
	log         zerolog.Logger
}

func New(env decision.Environment, generators []decision.ActionGenerator, calculators []decision.RewardCalculator, options ...Option) *Engine {
	if env == nil {
		panic("searcher: environment is required")
	}
	if len(generators) == 0 {
		panic("searcher: at least one action generator is required")
	}
	if len(calculators) == 0 {
		panic("searcher: at least one reward calculator is required")
	}

	cfg := defaultConfig()
	for _, option := range options {
		option(&cfg)
	}

	return &Engine{
		env:         env,
		generators:  generators,
		calculators: calculators,
		cfg:         cfg,
		log:         cfg.Logger,
	}
}

// FindOptimalStrategy searches from the initial state and returns the
// action sequence with the best expected long-run reward under the
// configured budgets. The only fatal outcome is a search in which zero
// iterations completed successfully.
func (e *Engine) FindOptimalStrategy(ctx context.Context, initial decision.State, objectives []decision.Objective, constraints decision.Constraints) (SearchResult, error) {
	s := e.newSession(initial, objectives, constraints, e.seed())
	s.runLoop(ctx)
	return s.extract()
}

func (e *Engine) seed() uint64 {
	if e.cfg.Seed != 0 {
		return e.cfg.Seed
	}
	return uint64(time.Now().UnixNano())
}

// session is the ephemeral per-search state: it owns the root node and is
// discarded when the search ends.
type session struct {
	eng     *Engine
	cfg     Config
	log     zerolog.Logger
	root    *node
	weights map[string]float64
	cons    decision.Constraints
	rng     *rand.Rand
	policy  selectionPolicy
	rollout RolloutStrategy
	metrics *collector

	start      time.Time
	iterations int
	successes  int
	bestReward float64
	bestAction *decision.Action

	lastImprovement time.Time
	convergedStreak int
	lastTopRanks    []string
	converged       bool
}

func (e *Engine) newSession(initial decision.State, objectives []decision.Objective, constraints decision.Constraints, seed uint64) *session {
	src := rand.NewSource(seed)
	now := time.Now()
	return &session{
		eng:             e,
		cfg:             e.cfg,
		log:             e.log,
		root:            newRoot(initial),
		weights:         normalizeWeights(objectives, e.cfg),
		cons:            constraints,
		rng:             rand.New(src),
		policy:          buildPolicy(e.cfg, src),
		rollout:         buildRollout(e.cfg),
		metrics:         newCollector(),
		start:           now,
		lastImprovement: now,
	}
}

// normalizeWeights resolves objective weights against the configuration.
// An objective with no weight anywhere defaults to decision.DefaultWeight;
// the result always sums to one.
func normalizeWeights(objectives []decision.Objective, cfg Config) map[string]float64 {
	weights := make(map[string]float64)
	for _, o := range objectives {
		w := o.Weight
		if w == 0 {
			if cw, ok := cfg.ObjectiveWeights[o.Name]; ok {
				w = cw
			} else {
				w = decision.DefaultWeight
			}
		}
		weights[o.Name] = w
	}
	if len(weights) == 0 {
		for name, w := range cfg.ObjectiveWeights {
			weights[name] = w
		}
	}
	if len(weights) == 0 {
		weights["value"] = 1
	}

	values := make([]float64, 0, len(weights))
	for _, w := range weights {
		values = append(values, w)
	}
	total := floats.Sum(values)
	if total <= 0 {
		equal := 1.0 / float64(len(weights))
		for name := range weights {
			weights[name] = equal
		}
		return weights
	}
	for name := range weights {
		weights[name] /= total
	}
	return weights
}

// runLoop drives iterations until the iteration cap, the wall-clock budget
// (polled at the top of each iteration, never preemptively), context
// cancellation, or convergence.
func (s *session) runLoop(ctx context.Context) {
	for s.iterations < s.cfg.MaxIterations {
		if time.Since(s.start) >= s.cfg.TimeLimit {
			s.log.Debug().Int("iterations", s.iterations).Msg("time budget exhausted")
			break
		}
		if ctx.Err() != nil {
			s.log.Debug().Int("iterations", s.iterations).Msg("search cancelled")
			break
		}

		s.iterate(ctx)

		if s.checkConvergence() {
			s.converged = true
			s.log.Debug().Int("iterations", s.iterations).Float64("bestReward", s.bestReward).Msg("search converged")
			break
		}
	}
}

// iterate runs one Selection -> Expansion -> Simulation -> Backpropagation
// pass. Callback failures are confined to the iteration: the branch scores
// zero and the iteration still counts toward the budget.
func (s *session) iterate(ctx context.Context) {
	s.iterations++
	s.metrics.addIteration()

	leaf := s.selectLeaf(ctx)
	target, applied := s.expand(ctx, leaf)

	reward := 0.0
	simulated := false
	if applied {
		reward, simulated = s.simulate(ctx, target)
	}

	s.backpropagate(target, reward)

	if applied && simulated {
		s.successes++
		s.metrics.addSuccess()
		s.improve(reward, target)
	}
}

func (s *session) improve(reward float64, target *node) {
	if reward <= s.bestReward && s.bestAction != nil {
		return
	}
	if reward > s.bestReward+s.cfg.ConvergenceThreshold {
		s.lastImprovement = time.Now()
	}
	if reward > s.bestReward || s.bestAction == nil {
		s.bestReward = reward
		if a := rootAction(target); a != nil {
			s.bestAction = a
		}
	}
}

// rootAction is the depth-1 ancestor's action on the path to n, nil when n
// is the root itself.
func rootAction(n *node) *decision.Action {
	cur := n
	for cur.parent != nil && cur.parent.parent != nil {
		cur = cur.parent
	}
	return cur.action
}

// selectLeaf descends via the selection policy while the current node is
// non-terminal, fully expanded, and has children; the first node violating
// any of those is this iteration's leaf.
func (s *session) selectLeaf(ctx context.Context) *node {
	cur := s.root
	for {
		if cur.terminal {
			return cur
		}
		s.ensureActions(ctx, cur)
		child, expandHere := s.policy.pick(s.rng, cur)
		if expandHere || child == nil {
			return cur
		}
		cur = child
	}
}

// ensureActions populates a node's legal actions lazily, on the first
// expansion attempt. A generator failure leaves the node ungenerated so the
// branch is retried on a later iteration.
func (s *session) ensureActions(ctx context.Context, n *node) {
	if n.generated {
		return
	}
	actions, err := s.legalActions(ctx, n.state)
	if err != nil {
		s.metrics.addFailure()
		s.log.Warn().Err(err).
			Int("iteration", s.iterations).
			Str("node", n.id).
			Int("depth", n.depth).
			Msg("action generation failed, skipping branch this iteration")
		return
	}
	n.unexplored = actions
	n.generated = true
	if len(actions) == 0 && len(n.children) == 0 {
		// A state with no legal actions is a dead end.
		n.terminal = true
	}
}

// legalActions queries every registered generator and filters the combined
// result against the search constraints.
func (s *session) legalActions(ctx context.Context, state decision.State) ([]decision.Action, error) {
	var actions []decision.Action
	for _, g := range s.eng.generators {
		if !g.CanGenerate(ctx, state) {
			continue
		}
		generated, err := g.GenerateActions(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("generate actions for state %s: %w", state.ID(), err)
		}
		actions = append(actions, generated...)
	}

	legal := actions[:0]
	for _, a := range actions {
		if s.cons.Allows(a) {
			legal = append(legal, a)
		}
	}
	return legal, nil
}

// expand materializes exactly one unexplored action into a new child.
// Terminal or exhausted leaves are a no-op: the leaf itself is returned.
// The second return is false when the state transition failed.
func (s *session) expand(ctx context.Context, leaf *node) (*node, bool) {
	if !leaf.expandable() || leaf.depth >= s.cfg.MaxDepth {
		return leaf, true
	}

	i := s.pickUnexplored(leaf)
	action := leaf.unexplored[i]

	next, err := s.eng.env.Apply(ctx, leaf.state, action)
	if err != nil {
		s.metrics.addFailure()
		s.log.Warn().Err(err).
			Int("iteration", s.iterations).
			Str("node", leaf.id).
			Str("action", action.Kind).
			Msg("apply action failed, skipping branch this iteration")
		return leaf, false
	}

	leaf.unexplored = append(leaf.unexplored[:i], leaf.unexplored[i+1:]...)
	child := newChild(leaf, action, next, s.eng.env.IsTerminal(next))
	return child, true
}

// pickUnexplored chooses uniformly at random, preferring actions that carry
// a configured context flag when any do.
func (s *session) pickUnexplored(n *node) int {
	if len(s.cfg.ContextFlags) > 0 {
		var flagged []int
		for i, a := range n.unexplored {
			for _, flag := range s.cfg.ContextFlags {
				if a.HasFlag(flag) {
					flagged = append(flagged, i)
					break
				}
			}
		}
		if len(flagged) > 0 {
			return flagged[s.rng.Intn(len(flagged))]
		}
	}
	return s.rng.Intn(len(n.unexplored))
}

// simulate estimates the node's value with SimulationCount playouts,
// averaging their discounted totals. It reports false when no playout
// completed.
func (s *session) simulate(ctx context.Context, n *node) (float64, bool) {
	total := 0.0
	completed := 0
	for i := 0; i < s.cfg.SimulationCount; i++ {
		value, ok := s.playout(ctx, n)
		if !ok {
			continue
		}
		total += value
		completed++
	}
	if completed == 0 {
		return 0, false
	}
	return total / float64(completed), true
}

// playout plays forward from the node for up to
// min(maxDepth-depth, simulationDepthCap) steps or until a terminal state.
// Per-step rewards are discounted and normalized so the value stays within
// [0,1]; reaching a terminal state earns a one-time bonus.
func (s *session) playout(ctx context.Context, n *node) (float64, bool) {
	var sum, norm float64
	discount := 1.0

	// The step into the node is the playout's first reward.
	if n.action != nil && n.parent != nil {
		reward, ok := s.stepReward(ctx, n.parent.state, *n.action, n)
		if !ok {
			return 0, false
		}
		sum += reward
		norm += 1
		discount = s.cfg.Discount
	}

	limit := s.cfg.MaxDepth - n.depth
	if limit > s.cfg.SimulationDepthCap {
		limit = s.cfg.SimulationDepthCap
	}

	// A callback failure beyond this point cuts the playout short but
	// keeps what was already accumulated; the untaken branch simply
	// contributes nothing this iteration.
	state := n.state
	terminal := n.terminal
	for step := 0; !terminal && step < limit; step++ {
		candidates, err := s.legalActions(ctx, state)
		if err != nil {
			s.metrics.addFailure()
			s.log.Warn().Err(err).
				Int("iteration", s.iterations).
				Str("node", n.id).
				Msg("rollout generation failed, cutting playout short")
			break
		}
		if len(candidates) == 0 {
			break
		}

		action := s.rollout.Choose(s.rng, state, candidates)
		reward, ok := s.stepReward(ctx, state, action, n)
		if !ok {
			break
		}
		sum += reward * discount
		norm += discount

		next, err := s.eng.env.Apply(ctx, state, action)
		if err != nil {
			s.metrics.addFailure()
			s.log.Warn().Err(err).
				Int("iteration", s.iterations).
				Str("node", n.id).
				Str("action", action.Kind).
				Msg("rollout apply failed, cutting playout short")
			break
		}
		state = next
		terminal = s.eng.env.IsTerminal(state)
		discount *= s.cfg.Discount
	}

	value := 0.0
	if norm > 0 {
		value = sum / norm
	}
	if terminal {
		value += s.cfg.TerminalBonus
		s.metrics.addPlayout()
	}
	return clamp01(value), norm > 0 || terminal
}

// stepReward is the weighted objective score for taking action in state,
// clamped to [0,1]. A non-finite calculator value clamps to zero and flags
// the simulation target node.
func (s *session) stepReward(ctx context.Context, state decision.State, action decision.Action, target *node) (float64, bool) {
	total := 0.0
	for name, weight := range s.weights {
		value, err := s.calculate(ctx, state, action, name)
		if err != nil {
			s.metrics.addFailure()
			s.log.Warn().Err(err).
				Int("iteration", s.iterations).
				Str("node", target.id).
				Str("objective", name).
				Msg("reward calculation failed, branch yields zero this iteration")
			return 0, false
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			value = 0
			target.clamped = true
			s.metrics.addClamped()
		}
		total += weight * value
	}
	return clamp01(total), true
}

// calculate averages all registered calculators for one objective.
func (s *session) calculate(ctx context.Context, state decision.State, action decision.Action, objective string) (float64, error) {
	sum := 0.0
	for _, c := range s.eng.calculators {
		value, err := c.Calculate(ctx, state, action, objective)
		if err != nil {
			return 0, fmt.Errorf("calculate %q for state %s: %w", objective, state.ID(), err)
		}
		sum += value
	}
	return sum / float64(len(s.eng.calculators)), nil
}

// backpropagate walks the ancestor chain from the target to the root. This
// is a pure statistics update; future selections recompute scores live.
func (s *session) backpropagate(n *node, reward float64) {
	for cur := n; cur != nil; cur = cur.parent {
		cur.record(reward, s.cfg.Exploration)
	}
}

// checkConvergence runs every convergenceCheckInterval iterations once
// enough iterations have passed. The session is converged either when the
// best reward has stagnated for a share of the time budget or when the
// top-3 most-visited root children held their ranks across checks; a
// single converged check is never enough.
func (s *session) checkConvergence() bool {
	if s.iterations < minIterationsForCheck || s.iterations%convergenceCheckInterval != 0 {
		return false
	}

	stagnation := time.Duration(stagnationFraction * float64(s.cfg.TimeLimit))
	stagnant := time.Since(s.lastImprovement) > stagnation

	ranks := s.topVisitedActions(3)
	stable := len(s.lastTopRanks) > 0 && equalRanks(ranks, s.lastTopRanks)
	s.lastTopRanks = ranks

	if stagnant || stable {
		s.convergedStreak++
	} else {
		s.convergedStreak = 0
	}
	return s.convergedStreak >= requiredConvergedStreak
}

func (s *session) topVisitedActions(n int) []string {
	children := make([]*node, len(s.root.children))
	copy(children, s.root.children)
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].visits > children[j].visits
	})
	if len(children) > n {
		children = children[:n]
	}
	ids := make([]string, len(children))
	for i, child := range children {
		ids[i] = child.action.ID
	}
	return ids
}

func equalRanks(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// extract reads the recommendation out of the finished tree.
func (s *session) extract() (SearchResult, error) {
	if s.successes == 0 {
		return SearchResult{}, ErrNoIterationsCompleted
	}
	best := s.root.mostVisitedChild()
	if best == nil {
		return SearchResult{}, ErrNoLegalActions
	}

	treeSize := s.root.treeSize()
	return SearchResult{
		BestAction:         *best.action,
		BestPath:           bestPath(s.root),
		ExpectedReward:     best.averageReward(),
		Confidence:         float64(best.visits) / float64(s.root.visits),
		ExploredNodes:      treeSize - 1,
		Iterations:         s.iterations,
		ExecutionTime:      time.Since(s.start),
		ConvergenceReached: s.converged,
		Alternatives:       alternatives(s.root, best),
		RiskAssessment: RiskAssessment{
			Level:           best.action.Risk,
			Penalty:         best.action.Risk.Penalty(),
			WithinTolerance: best.action.Risk.Penalty() <= s.cfg.RiskTolerance,
		},
		Stats: s.metrics.snapshot(treeSize),
	}, nil
}

// bestPath follows the most-visited child chain down from the root.
func bestPath(root *node) []decision.Action {
	var path []decision.Action
	for cur := root.mostVisitedChild(); cur != nil; cur = cur.mostVisitedChild() {
		path = append(path, *cur.action)
	}
	return path
}

// alternatives ranks the remaining root children by average reward.
func alternatives(root *node, best *node) []Alternative {
	others := make([]*node, 0, len(root.children))
	for _, child := range root.children {
		if child != best {
			others = append(others, child)
		}
	}
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].averageReward() > others[j].averageReward()
	})
	if len(others) > maxAlternatives {
		others = others[:maxAlternatives]
	}

	result := make([]Alternative, len(others))
	for i, child := range others {
		result[i] = Alternative{
			Action:         *child.action,
			ExpectedReward: child.averageReward(),
			Confidence:     float64(child.visits) / float64(root.visits),
			Risk:           child.action.Risk,
		}
	}
	return result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
