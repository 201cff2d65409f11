package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
)

const (
	depMethaneAdj = `
1 Cs u0 p0 c0 {2,S} {3,S} {4,S} {5,S}
2 H  u0 p0 c0 {1,S}
3 H  u0 p0 c0 {1,S}
4 H  u0 p0 c0 {1,S}
5 H  u0 p0 c0 {1,S}
`
	depMethylAdj = `
1 Cs u1 p0 c0 {2,S} {3,S} {4,S}
2 H  u0 p0 c0 {1,S}
3 H  u0 p0 c0 {1,S}
4 H  u0 p0 c0 {1,S}
`
	depHAtomAdj = `
1 H u1 p0 c0
`
	depWaterAdj = `
1 Os u0 p2 c0 {2,S} {3,S}
2 H  u0 p0 c0 {1,S}
3 H  u0 p0 c0 {1,S}
`
)

func depSpecies(t *testing.T, adj string) *reaction.Species {
	t.Helper()
	return reaction.NewSpecies(molecule.MustFromAdjacencyList(adj, false), "")
}

func fissionEntry(t *testing.T) *DepositoryEntry {
	t.Helper()
	return &DepositoryEntry{
		Label: "CH4 <=> CH3 + H",
		Reaction: &reaction.TemplateReaction{
			Reaction: *reaction.NewReaction(
				[]*reaction.Species{depSpecies(t, depMethaneAdj)},
				[]*reaction.Species{depSpecies(t, depMethylAdj), depSpecies(t, depHAtomAdj)}),
		},
		Kinetics: arr(1e15),
		Rank:     2,
	}
}

func TestDepository_Match(t *testing.T) {
	d := NewDepository("training")
	e := fissionEntry(t)
	d.Add(e)
	assert.Equal(t, 1, e.Index)
	assert.Equal(t, 1, d.Len())

	fwd := reaction.NewReaction(
		[]*reaction.Species{depSpecies(t, depMethaneAdj)},
		[]*reaction.Species{depSpecies(t, depHAtomAdj), depSpecies(t, depMethylAdj)})
	matches := d.Match(fwd)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Forward)
	assert.InDelta(t, 1e15, matches[0].Kinetics.A, 1e5)
	// Matched kinetics are a copy the caller may scale freely.
	matches[0].Kinetics.ChangeRate(2)
	assert.InDelta(t, 1e15, e.Kinetics.A, 1e5)

	rev := reaction.NewReaction(
		[]*reaction.Species{depSpecies(t, depMethylAdj), depSpecies(t, depHAtomAdj)},
		[]*reaction.Species{depSpecies(t, depMethaneAdj)})
	matches = d.Match(rev)
	require.Len(t, matches, 1)
	assert.False(t, matches[0].Forward)

	other := reaction.NewReaction(
		[]*reaction.Species{depSpecies(t, depWaterAdj)},
		[]*reaction.Species{depSpecies(t, depHAtomAdj)})
	assert.Empty(t, d.Match(other))
}
