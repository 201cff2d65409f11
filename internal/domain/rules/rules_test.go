package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/pkg/errors"
)

func arr(a float64) *kinetics.Arrhenius {
	return &kinetics.Arrhenius{A: a, T0: 1}
}

// twoSlotArena builds the lattice used by the estimation tests:
//
//	A            B
//	├── A1       └── B1
//	└── A2
func twoSlotArena(t *testing.T) *tree.Tree {
	t.Helper()
	arena := tree.New()
	for _, e := range []*tree.Entry{
		{Label: "A"},
		{Label: "A1", Parent: "A"},
		{Label: "A2", Parent: "A"},
		{Label: "B"},
		{Label: "B1", Parent: "B"},
	} {
		require.NoError(t, arena.AddEntry(e))
	}
	return arena
}

func TestTable_AddGetRemove(t *testing.T) {
	tb := NewTable("demo")

	e1 := &Entry{Template: []string{"A1", "B1"}, Kinetics: arr(1e10), Rank: 3}
	require.NoError(t, tb.Add(e1))
	assert.Equal(t, 1, e1.Index)
	assert.Equal(t, "A1;B1", e1.Label)

	require.Error(t, tb.Add(&Entry{Template: []string{"A1", "B1"}}), "conflict on same position")
	require.Error(t, tb.Add(&Entry{}), "empty template")

	assert.Same(t, e1, tb.Get([]string{"A1", "B1"}))
	assert.Nil(t, tb.Get([]string{"A2", "B1"}))

	tb.Remove([]string{"A1", "B1"})
	assert.Nil(t, tb.Get([]string{"A1", "B1"}))
	assert.Zero(t, tb.Len())
}

func TestEstimateKinetics_ExactRule(t *testing.T) {
	arena := twoSlotArena(t)
	tb := NewTable("demo")
	require.NoError(t, tb.Add(&Entry{Template: []string{"A1", "B1"}, Kinetics: arr(1e10), Rank: 2}))

	k, entry, err := tb.EstimateKinetics(arena, []string{"A1", "B1"}, 2)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "A1;B1", entry.Label)
	assert.InDelta(t, 2e10, k.A, 1e-3)
	// The stored rule is not mutated by the degeneracy scaling.
	assert.InDelta(t, 1e10, entry.Kinetics.A, 1e-3)
}

func TestEstimateKinetics_AveragesOneLevelUp(t *testing.T) {
	arena := twoSlotArena(t)
	tb := NewTable("demo")
	require.NoError(t, tb.Add(&Entry{Template: []string{"A", "B1"}, Kinetics: arr(1e10), Rank: 5}))
	require.NoError(t, tb.Add(&Entry{Template: []string{"A1", "B"}, Kinetics: arr(1e12), Rank: 5}))

	k, entry, err := tb.EstimateKinetics(arena, []string{"A1", "B1"}, 1)
	require.NoError(t, err)
	assert.Nil(t, entry, "averaged estimates carry no single source entry")
	// Geometric mean of the pre-exponential factors.
	assert.InDelta(t, 1e11, k.A, 1e5)
}

func TestEstimateKinetics_Undeterminable(t *testing.T) {
	arena := twoSlotArena(t)
	tb := NewTable("demo")

	_, _, err := tb.EstimateKinetics(arena, []string{"A1", "B1"}, 1)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeKineticsUndeterminable, errors.GetCode(err))
}

func TestFillRulesByAveragingUp(t *testing.T) {
	arena := twoSlotArena(t)
	tb := NewTable("demo")
	require.NoError(t, tb.Add(&Entry{Template: []string{"A1", "B1"}, Kinetics: arr(1e10), Rank: 3}))
	require.NoError(t, tb.Add(&Entry{Template: []string{"A2", "B1"}, Kinetics: arr(1e12), Rank: 3}))

	require.NoError(t, tb.FillRulesByAveragingUp(arena, []string{"A", "B"}))

	// Positions (A,B1), (A1,B), (A2,B) and the root gain synthesized rules.
	assert.Equal(t, 6, tb.Len())

	mid := tb.Get([]string{"A", "B1"})
	require.NotNil(t, mid)
	assert.Equal(t, AveragedRank, mid.Rank)
	assert.InDelta(t, 1e11, mid.Kinetics.A, 1e5)
	require.Len(t, mid.Provenance, 2)
	assert.Equal(t, "A1;B1", mid.Provenance[0].Source)
	assert.InDelta(t, 0.5, mid.Provenance[0].Weight, 1e-12)

	root := tb.Get([]string{"A", "B"})
	require.NotNil(t, root)
	assert.InDelta(t, 1e11, root.Kinetics.A, 1e5)
	assert.Len(t, root.Provenance, 5)

	// Fitted rules are never replaced.
	leaf := tb.Get([]string{"A1", "B1"})
	assert.Equal(t, 3, leaf.Rank)
	assert.InDelta(t, 1e10, leaf.Kinetics.A, 1e-3)

	assert.NoError(t, tb.Validate())
}

func TestValidate_MissingProvenance(t *testing.T) {
	tb := NewTable("demo")
	require.NoError(t, tb.Add(&Entry{Template: []string{"A"}, Kinetics: arr(1e9), Rank: AveragedRank}))

	err := tb.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRuleMissingProvenance, errors.GetCode(err))
}
