package treegen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/internal/domain/thermo"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/pkg/errors"
)

const tgCarbonHAdj = `
1 *1 C u0 {2,S}
2 *2 H u0 {1,S}
`

func tgThermo(t *testing.T) thermo.Estimator {
	t.Helper()
	th := thermo.NewTableEstimator()
	th.Add(molecule.MustFromAdjacencyList(tgMethaneAdj, false), thermo.Datum{H: -74.6e3, S: 186.3})
	th.Add(molecule.MustFromAdjacencyList(tgMethylAdj, false), thermo.Datum{H: 145.7e3, S: 194.2})
	th.Add(molecule.MustFromAdjacencyList(tgHAtomAdj, false), thermo.Datum{H: 218.0e3, S: 114.7})
	return th
}

func TestTrainingSet_ForwardNormalizesDegeneracy(t *testing.T) {
	f := fissionFamily(t)
	b := NewBuilder(f, nil, tgConfig())

	rxn := &reaction.TemplateReaction{
		Reaction: *reaction.NewReaction(
			[]*reaction.Species{tgSp(t, tgMethaneAdj, "CH4")},
			[]*reaction.Species{tgSp(t, tgMethylAdj, "CH3"), tgSp(t, tgHAtomAdj, "H")}),
		Family: f.Label,
	}
	rxn.Degeneracy = 4

	dep := rules.NewDepository("training")
	dep.Add(&rules.DepositoryEntry{Reaction: rxn, Kinetics: tgArr(4e10), Rank: 3})

	out, err := b.TrainingSet(context.Background(), dep, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsForward)
	assert.InDelta(t, 1e10, out[0].Kinetics.A, 1e4, "rate per channel, degeneracy divided out")
	assert.Equal(t, 1.0, out[0].Degeneracy)
}

func TestTrainingSet_ReversesMismatchedEntry(t *testing.T) {
	f := fissionFamily(t)
	b := NewBuilder(f, tgThermo(t), tgConfig())

	// Given as recombination: radical reactants cannot match the saturated
	// root pattern, so the entry must flip.
	rxn := &reaction.TemplateReaction{
		Reaction: *reaction.NewReaction(
			[]*reaction.Species{tgSp(t, tgMethylAdj, "CH3"), tgSp(t, tgHAtomAdj, "H")},
			[]*reaction.Species{tgSp(t, tgMethaneAdj, "CH4")}),
		Family: f.Label,
	}

	dep := rules.NewDepository("training")
	dep.Add(&rules.DepositoryEntry{Reaction: rxn, Kinetics: tgArr(2e13), Rank: 5})

	out, err := b.TrainingSet(context.Background(), dep, false)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].IsForward)
	require.Len(t, out[0].Reactants, 1)
	assert.Greater(t, out[0].Kinetics.A, 0.0)
}

func TestReactionMatches_DescendsAndSubtracts(t *testing.T) {
	f := fissionFamily(t)
	require.NoError(t, f.Groups.AddEntry(&tree.Entry{
		Label: "C_H", Parent: "X_H",
		Group: molecule.MustFromAdjacencyList(tgCarbonHAdj, true),
	}))
	b := NewBuilder(f, nil, tgConfig())

	ch4 := tgRxn(t, tgMethaneAdj, 1e10)
	h2o := tgRxn(t, tgWaterAdj, 1e14)

	matches, err := b.ReactionMatches([]*reaction.TemplateReaction{ch4, h2o}, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []*reaction.TemplateReaction{ch4, h2o}, matches["X_H"])
	assert.Equal(t, []*reaction.TemplateReaction{ch4}, matches["C_H"])

	exact, err := b.ReactionMatches([]*reaction.TemplateReaction{ch4, h2o}, true)
	require.NoError(t, err)
	assert.Equal(t, []*reaction.TemplateReaction{h2o}, exact["X_H"])
	assert.Equal(t, []*reaction.TemplateReaction{ch4}, exact["C_H"])
}

func TestReactionMatches_RejectsNonRootReaction(t *testing.T) {
	f := fissionFamily(t)
	b := NewBuilder(f, nil, tgConfig())

	// A bare radical has no saturated X-H pair to match.
	bad := tgRxn(t, tgMethylAdj, 1e10)
	_, err := b.ReactionMatches([]*reaction.TemplateReaction{bad}, false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFamilyInconsistent, errors.GetCode(err))
}

func TestSimpleRegularization_TightensAtomType(t *testing.T) {
	f := fissionFamily(t)
	xh, err := f.Groups.Get("X_H")
	require.NoError(t, err)
	xh.Group.Atoms[0].RegType.Record(
		[]molecule.AtomType{molecule.TypeC},
		[]molecule.AtomType{molecule.TypeC, molecule.TypeO})
	require.NoError(t, f.Groups.AddEntry(&tree.Entry{
		Label: "C_H", Parent: "X_H",
		Group: molecule.MustFromAdjacencyList(tgCarbonHAdj, true),
	}))
	b := NewBuilder(f, nil, tgConfig())

	ch4 := tgRxn(t, tgMethaneAdj, 1e10)
	rxnMap := map[string][]*reaction.TemplateReaction{
		"X_H": {ch4},
		"C_H": {ch4},
	}
	require.NoError(t, b.SimpleRegularization(xh, rxnMap, true))
	assert.Equal(t, []molecule.AtomType{molecule.TypeC}, xh.Group.Atoms[0].Types)
}

func TestSimpleRegularization_KeepsUncontainedChildren(t *testing.T) {
	f := fissionFamily(t)
	xh, err := f.Groups.Get("X_H")
	require.NoError(t, err)
	xh.Group.Atoms[0].RegType.Record(
		[]molecule.AtomType{molecule.TypeO},
		[]molecule.AtomType{molecule.TypeO})
	require.NoError(t, f.Groups.AddEntry(&tree.Entry{
		Label: "C_H", Parent: "X_H",
		Group: molecule.MustFromAdjacencyList(tgCarbonHAdj, true),
	}))
	b := NewBuilder(f, nil, tgConfig())

	require.NoError(t, b.SimpleRegularization(xh,
		map[string][]*reaction.TemplateReaction{}, true))
	assert.Equal(t, []molecule.AtomType{molecule.TypeRnotH}, xh.Group.Atoms[0].Types,
		"a bound excluding a child cannot be applied")
}
