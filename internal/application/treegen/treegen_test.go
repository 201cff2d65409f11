package treegen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ReactKin/internal/config"
	"github.com/turtacn/ReactKin/internal/domain/family"
	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/recipe"
	"github.com/turtacn/ReactKin/internal/domain/tree"
)

const (
	tgMethaneAdj = `
1 Cs u0 p0 c0 {2,S} {3,S} {4,S} {5,S}
2 H  u0 p0 c0 {1,S}
3 H  u0 p0 c0 {1,S}
4 H  u0 p0 c0 {1,S}
5 H  u0 p0 c0 {1,S}
`
	tgMethylAdj = `
1 Cs u1 p0 c0 {2,S} {3,S} {4,S}
2 H  u0 p0 c0 {1,S}
3 H  u0 p0 c0 {1,S}
4 H  u0 p0 c0 {1,S}
`
	tgWaterAdj = `
1 Os u0 p2 c0 {2,S} {3,S}
2 H  u0 p0 c0 {1,S}
3 H  u0 p0 c0 {1,S}
`
	tgHSulfideAdj = `
1 S u0 p2 c0 {2,S} {3,S}
2 H u0 p0 c0 {1,S}
3 H u0 p0 c0 {1,S}
`
	tgHChlorideAdj = `
1 Cl u0 p3 c0 {2,S}
2 H  u0 p0 c0 {1,S}
`
	tgHAtomAdj = `
1 H u1 p0 c0
`
)

func tgSp(t *testing.T, adj, label string) *reaction.Species {
	t.Helper()
	return reaction.NewSpecies(molecule.MustFromAdjacencyList(adj, false), label)
}

func tgArr(a float64) *kinetics.Arrhenius {
	return &kinetics.Arrhenius{A: a, T0: 1}
}

// fissionFamily bears one generic top: a saturated heavy atom bound to
// hydrogen, homolysed by the recipe.
func fissionFamily(t *testing.T) *family.KineticsFamily {
	t.Helper()
	rcp, err := recipe.New(
		recipe.Action{Kind: recipe.BreakBond, Center1: "*1", Center2: "*2", Order: 1},
		recipe.Action{Kind: recipe.GainRadical, Center1: "*1", Change: 1},
		recipe.Action{Kind: recipe.GainRadical, Center1: "*2", Change: 1},
	)
	require.NoError(t, err)

	groups := tree.New()
	require.NoError(t, groups.AddEntry(&tree.Entry{Label: "X_H", Group: molecule.MustFromAdjacencyList(`
1 *1 R!H u0 {2,S}
2 *2 H   u0 {1,S}
`, true)}))

	return family.New("homolysis_test",
		family.Template{Reactants: []string{"X_H"}, Products: []string{"X_H"}},
		rcp, groups)
}

// tgRxn hand-builds a training reaction from a single reactant structure.
func tgRxn(t *testing.T, adj string, a float64) *reaction.TemplateReaction {
	t.Helper()
	r := &reaction.TemplateReaction{
		Reaction: *reaction.NewReaction(
			[]*reaction.Species{tgSp(t, adj, "")}, nil),
		Family:    "homolysis_test",
		IsForward: true,
	}
	r.Kinetics = tgArr(a)
	return r
}

func tgConfig() config.TreeConfig {
	cfg := config.Config{}
	config.ApplyDefaults(&cfg)
	return cfg.Tree
}

func TestExtendNode_SplitsByElement(t *testing.T) {
	f := fissionFamily(t)
	b := NewBuilder(f, nil, tgConfig())

	ch4 := tgRxn(t, tgMethaneAdj, 1e10)
	h2o := tgRxn(t, tgWaterAdj, 1e14)
	rxnMap := map[string][]*reaction.TemplateReaction{"X_H": {ch4, h2o}}

	parent, err := f.Groups.Get("X_H")
	require.NoError(t, err)

	changed, err := b.ExtendNode(parent, f.Groups, rxnMap, 1000)
	require.NoError(t, err)
	assert.True(t, changed)

	require.True(t, f.Groups.Has("X_H_1C"), "carbon specialization becomes the child")
	require.True(t, f.Groups.Has("X_H_1N-C"), "complement sibling is added")

	assert.Equal(t, []*reaction.TemplateReaction{ch4}, rxnMap["X_H_1C"])
	assert.Equal(t, []*reaction.TemplateReaction{h2o}, rxnMap["X_H_1N-C"])
	assert.Empty(t, rxnMap["X_H"], "complement split drains the parent")

	child, err := f.Groups.Get("X_H_1C")
	require.NoError(t, err)
	assert.Equal(t, []molecule.AtomType{molecule.TypeC}, child.Group.Atoms[0].Types)
	assert.True(t, child.Group.Atoms[0].RegType.Set, "chosen dimension is pinned")
}

func TestExtendNode_TerminalWhenIdentical(t *testing.T) {
	f := fissionFamily(t)
	b := NewBuilder(f, nil, tgConfig())

	// Two copies of the same molecule cannot be split apart.
	rxnMap := map[string][]*reaction.TemplateReaction{
		"X_H": {tgRxn(t, tgMethaneAdj, 1e10), tgRxn(t, tgMethaneAdj, 2e10)},
	}
	parent, err := f.Groups.Get("X_H")
	require.NoError(t, err)

	before := f.Groups.Len()
	for {
		changed, err := b.ExtendNode(parent, f.Groups, rxnMap, 1000)
		require.NoError(t, err)
		if !changed {
			break
		}
	}
	// Specializations that match both copies may appear, but the copies
	// always travel together.
	for label, rxns := range rxnMap {
		if len(rxns) == 2 {
			for _, r := range rxns {
				assert.True(t, reaction.SameSpeciesLists(r.Reactants, rxns[0].Reactants),
					"node %s must hold identical reactions only", label)
			}
		}
	}
	assert.GreaterOrEqual(t, f.Groups.Len(), before)
}

func TestMakeTreeNodes_Sequential(t *testing.T) {
	f := fissionFamily(t)
	b := NewBuilder(f, nil, tgConfig())

	rxnMap := map[string][]*reaction.TemplateReaction{
		"X_H": {tgRxn(t, tgMethaneAdj, 1e10), tgRxn(t, tgWaterAdj, 1e14)},
	}
	require.NoError(t, b.MakeTreeNodes(context.Background(), rxnMap))

	assert.True(t, f.Groups.Has("X_H_1C"))
	for label, rxns := range rxnMap {
		assert.LessOrEqual(t, len(rxns), 1, "node %s should hold at most one reaction", label)
	}
	for _, e := range f.Groups.Entries() {
		assert.GreaterOrEqual(t, e.Index, 0, "indices are renumbered after growth")
	}
}

func TestMakeTreeNodes_ParallelMatchesSequential(t *testing.T) {
	build := func(workers int) []string {
		f := fissionFamily(t)
		cfg := tgConfig()
		cfg.Workers = workers
		cfg.MinRxnsToSpawn = 1
		cfg.MinSplitableEntryNum = 0
		b := NewBuilder(f, nil, cfg)

		rxnMap := map[string][]*reaction.TemplateReaction{
			"X_H": {
				tgRxn(t, tgMethaneAdj, 1e8),
				tgRxn(t, tgWaterAdj, 1e10),
				tgRxn(t, tgHSulfideAdj, 1e12),
				tgRxn(t, tgHChlorideAdj, 1e14),
			},
		}
		require.NoError(t, b.MakeTreeNodes(context.Background(), rxnMap))
		for label, rxns := range rxnMap {
			assert.LessOrEqual(t, len(rxns), 1, "node %s not fully split", label)
		}
		var labels []string
		for _, e := range f.Groups.Entries() {
			labels = append(labels, e.Label)
		}
		return labels
	}

	seq := build(1)
	par := build(4)
	assert.ElementsMatch(t, seq, par, "parallel growth builds the same nodes")
}

func TestExtensionEdge_RecordsBoundsOnParent(t *testing.T) {
	f := fissionFamily(t)
	b := NewBuilder(f, nil, tgConfig())

	parent, err := f.Groups.Get("X_H")
	require.NoError(t, err)
	rxns := []*reaction.TemplateReaction{
		tgRxn(t, tgMethaneAdj, 1e10),
		tgRxn(t, tgWaterAdj, 1e14),
	}
	exts := b.ExtensionEdge(parent, rxns, 1000)
	require.NotEmpty(t, exts)

	// The heavy atom's type dimension splits the set, so its bound must
	// record the splitting values without closing the dimension.
	bound := parent.Group.Atoms[0].RegType
	assert.True(t, bound.Set)
	assert.Contains(t, bound.Any, molecule.TypeC)
	assert.Contains(t, bound.Any, molecule.TypeO)
	assert.NotContains(t, bound.All, molecule.TypeC, "splitting values are not all-matching")
}
