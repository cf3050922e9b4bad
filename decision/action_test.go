package decision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRiskLevelPenalty(t *testing.T) {
	levels := []RiskLevel{RiskMinimal, RiskLow, RiskMedium, RiskHigh, RiskCritical}

	previous := -1.0
	for _, level := range levels {
		require.True(t, level.Valid())
		penalty := level.Penalty()
		require.Greater(t, penalty, previous, "Penalties should increase with risk")
		require.LessOrEqual(t, penalty, 1.0)
		previous = penalty
	}

	require.False(t, RiskLevel("reckless").Valid())
	require.Equal(t, RiskMedium.Penalty(), RiskLevel("reckless").Penalty(),
		"Unknown levels fall back to the medium penalty")
}

func TestNewAction(t *testing.T) {
	a := NewAction("invest")

	require.NotEmpty(t, a.ID)
	require.Equal(t, "invest", a.Kind)
	require.Equal(t, RiskMinimal, a.Risk)
	require.NotEqual(t, a.ID, NewAction("invest").ID, "Each action gets a fresh identity")
}

func TestHasFlag(t *testing.T) {
	a := Action{Flags: []string{"growth", "retention"}}

	require.True(t, a.HasFlag("growth"))
	require.False(t, a.HasFlag("churn"))
	require.False(t, Action{}.HasFlag("growth"))
}

func TestConstraintsAllows(t *testing.T) {
	t.Run("zero value is permissive", func(t *testing.T) {
		require.True(t, Constraints{}.Allows(Action{Cost: 1e9, Risk: RiskCritical}))
	})

	t.Run("cost ceiling", func(t *testing.T) {
		c := Constraints{MaxActionCost: 50}
		require.True(t, c.Allows(Action{Cost: 50}))
		require.False(t, c.Allows(Action{Cost: 51}))
	})

	t.Run("risk tolerance", func(t *testing.T) {
		c := Constraints{RiskTolerance: 0.25}
		require.True(t, c.Allows(Action{Risk: RiskMedium}))
		require.False(t, c.Allows(Action{Risk: RiskHigh}))
	})

	t.Run("forbidden kinds", func(t *testing.T) {
		c := Constraints{ForbiddenKinds: []string{"layoff"}}
		require.False(t, c.Allows(Action{Kind: "layoff"}))
		require.True(t, c.Allows(Action{Kind: "hire"}))
	})
}
