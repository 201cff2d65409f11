package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extensionsByKind(exts []Extension) map[ExtensionKind][]Extension {
	byKind := make(map[ExtensionKind][]Extension)
	for _, e := range exts {
		byKind[e.Kind] = append(byKind[e.Kind], e)
	}
	return byKind
}

func TestExtensions_SingleAtomPattern(t *testing.T) {
	pat := MustFromAdjacencyList("1 *1 R!H u[0,1]\n", true)

	exts := pat.Extensions("Root", -1, -1, nil, nil, nil)
	byKind := extensionsByKind(exts)

	// One lattice descent per heavy element.
	assert.Len(t, byKind[AtomExt], 6)
	// One per explored radical count.
	assert.Len(t, byKind[ElExt], 2)
	assert.Len(t, byKind[RingExt], 1)
	assert.Empty(t, byKind[BondExt])
	assert.Empty(t, byKind[IntNewBondExt], "a single atom has no internal pair")
	assert.Len(t, byKind[ExtNewBondExt], 1)
	assert.Len(t, exts, 10)
}

func TestExtensions_AtomExtComplement(t *testing.T) {
	pat := MustFromAdjacencyList("1 *1 [Cs,Cd,Ct] u0\n", true)

	exts := pat.Extensions("L", -1, -1, nil, nil, nil)
	byKind := extensionsByKind(exts)
	require.Len(t, byKind[AtomExt], 3)

	for _, e := range byKind[AtomExt] {
		require.Len(t, e.Group.Atoms[0].Types, 1)
		require.NotNil(t, e.Complement)
		assert.Len(t, e.Complement.Atoms[0].Types, 2)
		assert.NotContains(t, e.Complement.Atoms[0].Types, e.Group.Atoms[0].Types[0])
		// Label survives specialization.
		assert.Equal(t, "*1", e.Group.Atoms[0].Label)
	}
	assert.Equal(t, "L_1Cs", byKind[AtomExt][0].Name)
}

func TestExtensions_ElExtComplement(t *testing.T) {
	pat := MustFromAdjacencyList("1 C u[0,1,2]\n", true)

	exts := pat.Extensions("L", -1, -1, nil, nil, nil)
	byKind := extensionsByKind(exts)
	require.Len(t, byKind[ElExt], 3)

	first := byKind[ElExt][0]
	assert.Equal(t, []int{0}, first.Group.Atoms[0].Radicals)
	assert.ElementsMatch(t, []int{1, 2}, first.Complement.Atoms[0].Radicals)
	assert.Equal(t, "L_1u0", first.Name)
}

func TestExtensions_RegularizationBoundsFilter(t *testing.T) {
	pat := MustFromAdjacencyList("1 R!H u[0,1]\n", true)
	pat.Atoms[0].RegType.Record(nil, []AtomType{TypeC, TypeO})
	pat.Atoms[0].RegRad.Record(nil, []int{0})
	pat.Atoms[0].RegRing.Record(nil, []bool{false})

	exts := pat.Extensions("L", -1, -1, nil, nil, nil)
	byKind := extensionsByKind(exts)

	// Only the types seen during matching are explored.
	require.Len(t, byKind[AtomExt], 2)
	for _, e := range byKind[AtomExt] {
		assert.Contains(t, []AtomType{TypeC, TypeO}, e.Group.Atoms[0].Types[0])
	}
	// A single surviving radical value splits nothing.
	assert.Empty(t, byKind[ElExt])
	// Ring membership was only ever seen one way.
	assert.Empty(t, byKind[RingExt])
}

func TestExtensions_BondOrder(t *testing.T) {
	pat := MustFromAdjacencyList(`
1 C u0 {2,[S,D]}
2 C u0 {1,[S,D]}
`, true)

	exts := pat.Extensions("L", -1, -1, nil, nil, nil)
	byKind := extensionsByKind(exts)
	require.Len(t, byKind[BondExt], 2)

	single := byKind[BondExt][0]
	assert.Equal(t, "L_Sp-1S2", single.Name)
	assert.True(t, single.Group.GetBond(single.Group.Atoms[0], single.Group.Atoms[1]).IsOrder(OrderSingle))
	assert.True(t, single.Complement.GetBond(single.Complement.Atoms[0], single.Complement.Atoms[1]).IsOrder(OrderDouble))
}

func TestExtensions_InternalNewBond(t *testing.T) {
	// Three-atom chain: only the non-bonded 1-3 pair of the same component
	// qualifies.
	chain := MustFromAdjacencyList(`
1 C u0 {2,S}
2 C u0 {1,S} {3,S}
3 C u0 {2,S}
`, true)
	byKind := extensionsByKind(chain.Extensions("L", -1, -1, nil, nil, nil))
	require.Len(t, byKind[IntNewBondExt], 1)
	e := byKind[IntNewBondExt][0]
	assert.Equal(t, "L_Int-1-3", e.Name)
	assert.Nil(t, e.Complement)
	assert.True(t, e.Group.HasBond(e.Group.Atoms[0], e.Group.Atoms[2]))
	assert.False(t, chain.HasBond(chain.Atoms[0], chain.Atoms[2]), "source pattern untouched")

	// Two separate components never gain an internal bond.
	split := MustFromAdjacencyList(`
1 C u0
2 O u0
`, true)
	byKind = extensionsByKind(split.Extensions("L", -1, -1, nil, nil, nil))
	assert.Empty(t, byKind[IntNewBondExt])
}

func TestExtensions_ExternalNewBond(t *testing.T) {
	pat := MustFromAdjacencyList("1 Cs u1\n", true)
	byKind := extensionsByKind(pat.Extensions("L", -1, -1, nil, nil, nil))

	require.Len(t, byKind[ExtNewBondExt], 1)
	e := byKind[ExtNewBondExt][0]
	assert.Equal(t, "L_Ext-1R", e.Name)
	assert.Nil(t, e.Complement)
	require.Len(t, e.Group.Atoms, 2)
	fresh := e.Group.Atoms[1]
	assert.Equal(t, []AtomType{TypeR}, fresh.Types)
	assert.Equal(t, DefaultRadicalRange, fresh.Radicals)
	assert.True(t, e.Group.HasBond(e.Group.Atoms[0], fresh))

	// Surface sites keep their coordination.
	site := MustFromAdjacencyList("1 X u0\n", true)
	byKind = extensionsByKind(site.Extensions("L", -1, -1, nil, nil, nil))
	assert.Empty(t, byKind[ExtNewBondExt])
}

func TestExtensions_SingleAtomRestriction(t *testing.T) {
	pat := MustFromAdjacencyList(`
1 C u[0,1]
2 C u[0,1]
`, true)

	exts := pat.Extensions("L", 1, -1, nil, nil, nil)
	for _, e := range exts {
		assert.Equal(t, 1, e.Atom1, "restricted to the second atom: %s", e.Name)
	}
	// New-bond kinds are suppressed when an atom restriction is in force.
	byKind := extensionsByKind(exts)
	assert.Empty(t, byKind[IntNewBondExt])
	assert.Empty(t, byKind[ExtNewBondExt])
}
