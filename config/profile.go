// Package config loads search profiles from YAML files and turns them into
// searcher options.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"strategos/searcher"
)

// Duration decodes both "2s"-style strings and raw nanosecond integers.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var ns int64
	if err := value.Decode(&ns); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(ns)
	return nil
}

// Profile is the file representation of a search configuration. Zero
// fields keep the engine defaults.
type Profile struct {
	MaxIterations        int                `yaml:"max_iterations"`
	MaxDepth             int                `yaml:"max_depth"`
	Exploration          float64            `yaml:"exploration"`
	TimeLimit            Duration           `yaml:"time_limit"`
	SimulationDepthCap   int                `yaml:"simulation_depth_cap"`
	SimulationCount      int                `yaml:"simulation_count"`
	ConvergenceThreshold float64            `yaml:"convergence_threshold"`
	Discount             float64            `yaml:"discount"`
	TerminalBonus        float64            `yaml:"terminal_bonus"`
	Selection            string             `yaml:"selection"`
	Rollout              string             `yaml:"rollout"`
	ObjectiveWeights     map[string]float64 `yaml:"objective_weights"`
	ContextFlags         []string           `yaml:"context_flags"`
	ContextBonus         float64            `yaml:"context_bonus"`
	RiskTolerance        float64            `yaml:"risk_tolerance"`
	Seed                 uint64             `yaml:"seed"`
}

// Load reads and parses a profile file.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML profile.
func Parse(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (p Profile) validate() error {
	if p.Discount < 0 || p.Discount > 1 {
		return fmt.Errorf("discount %v outside [0,1]", p.Discount)
	}
	if p.RiskTolerance < 0 || p.RiskTolerance > 1 {
		return fmt.Errorf("risk_tolerance %v outside [0,1]", p.RiskTolerance)
	}
	for name, weight := range p.ObjectiveWeights {
		if weight < 0 {
			return fmt.Errorf("objective %q has negative weight %v", name, weight)
		}
	}
	if _, err := searcher.ParseSelection(p.Selection); err != nil {
		return err
	}
	if _, err := searcher.ParseRollout(p.Rollout); err != nil {
		return err
	}
	return nil
}

// Options converts the profile into searcher options.
func (p Profile) Options() ([]searcher.Option, error) {
	selection, err := searcher.ParseSelection(p.Selection)
	if err != nil {
		return nil, err
	}
	rollout, err := searcher.ParseRollout(p.Rollout)
	if err != nil {
		return nil, err
	}

	options := []searcher.Option{
		searcher.WithSelection(selection),
		searcher.WithRollout(rollout),
	}
	if p.MaxIterations > 0 {
		options = append(options, searcher.WithMaxIterations(p.MaxIterations))
	}
	if p.MaxDepth > 0 {
		options = append(options, searcher.WithMaxDepth(p.MaxDepth))
	}
	if p.Exploration > 0 {
		options = append(options, searcher.WithExploration(p.Exploration))
	}
	if p.TimeLimit > 0 {
		options = append(options, searcher.WithTimeLimit(time.Duration(p.TimeLimit)))
	}
	if p.SimulationDepthCap > 0 {
		options = append(options, searcher.WithSimulationDepthCap(p.SimulationDepthCap))
	}
	if p.SimulationCount > 0 {
		options = append(options, searcher.WithSimulationCount(p.SimulationCount))
	}
	if p.ConvergenceThreshold > 0 {
		options = append(options, searcher.WithConvergenceThreshold(p.ConvergenceThreshold))
	}
	if p.Discount > 0 {
		options = append(options, searcher.WithDiscount(p.Discount))
	}
	if p.TerminalBonus > 0 {
		options = append(options, searcher.WithTerminalBonus(p.TerminalBonus))
	}
	if len(p.ObjectiveWeights) > 0 {
		options = append(options, searcher.WithObjectiveWeights(p.ObjectiveWeights))
	}
	if len(p.ContextFlags) > 0 {
		options = append(options, searcher.WithContextFlags(p.ContextFlags...))
	}
	if p.ContextBonus > 0 {
		options = append(options, searcher.WithContextBonus(p.ContextBonus))
	}
	if p.RiskTolerance > 0 {
		options = append(options, searcher.WithRiskTolerance(p.RiskTolerance))
	}
	if p.Seed != 0 {
		options = append(options, searcher.WithSeed(p.Seed))
	}
	return options, nil
}
