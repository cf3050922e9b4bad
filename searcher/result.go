package searcher

import (
	"time"

	"strategos/decision"
)

const maxAlternatives = 3

// SearchResult is the outcome of FindOptimalStrategy. BestAction is the
// most-visited root child; Confidence is its share of root visits.
type SearchResult struct {
	BestAction         decision.Action
	BestPath           []decision.Action
	ExpectedReward     float64
	Confidence         float64
	ExploredNodes      int
	Iterations         int
	ExecutionTime      time.Duration
	ConvergenceReached bool
	Alternatives       []Alternative
	RiskAssessment     RiskAssessment
	Stats              SearchStats
}

// Alternative is a runner-up root action ranked by average reward.
type Alternative struct {
	Action         decision.Action
	ExpectedReward float64
	Confidence     float64
	Risk           decision.RiskLevel
}

// RiskAssessment summarizes the recommended action's risk against the
// configured tolerance.
type RiskAssessment struct {
	Level           decision.RiskLevel
	Penalty         float64
	WithinTolerance bool
}

// Recommendation is one entry from GetStrategyRecommendations.
type Recommendation struct {
	Action         decision.Action
	ExpectedReward float64
	Confidence     float64
	Reasoning      string
}

// RecommendationOptions bound the reduced search behind
// GetStrategyRecommendations. Zero values pick defaults.
type RecommendationOptions struct {
	MaxRecommendations int
	TimeLimit          time.Duration
}
