package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBond_Validation(t *testing.T) {
	g := NewGraph(false)
	a := g.AddAtom(NewConcreteAtom(TypeCs, 0, 0, 0))
	b := g.AddAtom(NewConcreteAtom(TypeCs, 0, 0, 0))

	assert.Error(t, g.AddBond(a, a, NewBond(OrderSingle)), "self bond")
	require.NoError(t, g.AddBond(a, b, NewBond(OrderSingle)))
	assert.Error(t, g.AddBond(a, b, NewBond(OrderSingle)), "duplicate bond")

	require.NoError(t, g.RemoveBond(a, b))
	assert.Error(t, g.RemoveBond(a, b), "bond already removed")
	assert.False(t, g.HasBond(a, b))
}

func TestCopy_IsDeepAndOrderPreserving(t *testing.T) {
	g := MustFromAdjacencyList(allylRadical, false)

	c, mapping := g.Copy()
	require.Len(t, c.Atoms, 3)
	assert.Equal(t, g.ToAdjacencyList(), c.ToAdjacencyList())

	// Mutating the copy leaves the original untouched.
	mapping[g.Atoms[0]].Radicals = []int{0}
	assert.Equal(t, 1, g.Atoms[0].Radical())
	c.GetBond(c.Atoms[1], c.Atoms[2]).Orders = []float64{OrderSingle}
	assert.True(t, g.GetBond(g.Atoms[1], g.Atoms[2]).IsOrder(OrderDouble))
}

func TestMergeAndSplit(t *testing.T) {
	g1 := MustFromAdjacencyList(ethylRadical, false)
	g2 := MustFromAdjacencyList("1 *3 Os u1 p2 c0\n", false)

	merged := Merge(g1, g2)
	require.Len(t, merged.Atoms, 3)

	parts := merged.Split()
	require.Len(t, parts, 2)
	assert.Len(t, parts[0].Atoms, 2)
	assert.Len(t, parts[1].Atoms, 1)
	// Split shares atom objects with the merged graph.
	assert.Same(t, merged.Atoms[2], parts[1].Atoms[0])
}

func TestLabeledAtoms(t *testing.T) {
	g := MustFromAdjacencyList(ethylRadical, false)

	labels := g.LabeledAtoms()
	require.Len(t, labels, 1)
	assert.Len(t, labels["*1"], 1)

	a, err := g.GetLabeledAtom("*1")
	require.NoError(t, err)
	assert.Same(t, g.Atoms[0], a)

	_, err = g.GetLabeledAtom("*9")
	assert.Error(t, err)

	g.ClearLabels()
	assert.Empty(t, g.LabeledAtoms())
}

func TestGetLabeledAtom_DuplicateLabelIsError(t *testing.T) {
	g := MustFromAdjacencyList(`
1 *1 Cs u0 p0 c0 {2,S}
2 *1 Cs u0 p0 c0 {1,S}
`, false)
	_, err := g.GetLabeledAtom("*1")
	assert.Error(t, err)
	assert.Len(t, g.LabeledAtoms()["*1"], 2)
}

func TestNetChargeAndRadicalCount(t *testing.T) {
	g := MustFromAdjacencyList(`
1 Os u1 p2 c-1
2 N u0 p0 c1
`, false)
	assert.Equal(t, 0, g.NetCharge())
	assert.Equal(t, 1, g.RadicalCount())
}

func TestInRing(t *testing.T) {
	// Cyclopropane with a methyl substituent: ring atoms 1-3, chain atom 4.
	g := MustFromAdjacencyList(`
1 Cs u0 p0 c0 {2,S} {3,S} {4,S}
2 Cs u0 p0 c0 {1,S} {3,S}
3 Cs u0 p0 c0 {1,S} {2,S}
4 Cs u0 p0 c0 {1,S}
`, false)
	assert.True(t, g.InRing(g.Atoms[0]))
	assert.True(t, g.InRing(g.Atoms[1]))
	assert.True(t, g.InRing(g.Atoms[2]))
	assert.False(t, g.InRing(g.Atoms[3]))
}

func TestSurfaceSite(t *testing.T) {
	site := MustFromAdjacencyList("1 X u0 p0 c0\n", false)
	assert.True(t, site.IsSurfaceSite())
	assert.True(t, site.ContainsSurfaceSite())

	adsorbed := MustFromAdjacencyList(`
1 Cs u0 p0 c0 {2,vdW}
2 X  u0 p0 c0 {1,vdW}
`, false)
	assert.False(t, adsorbed.IsSurfaceSite())
	assert.True(t, adsorbed.ContainsSurfaceSite())
	assert.True(t, adsorbed.HasVdWBond())
}

func TestMergeGroups_CopiesSources(t *testing.T) {
	g1 := MustFromAdjacencyList("1 *1 C u1\n", true)
	g2 := MustFromAdjacencyList("1 *2 O u0\n", true)

	merged := MergeGroups(g1, g2)
	require.Len(t, merged.Atoms, 2)
	assert.True(t, merged.Pattern)

	merged.Atoms[0].Radicals = []int{0}
	assert.Equal(t, []int{1}, g1.Atoms[0].Radicals, "sources must not alias the merge")
}
