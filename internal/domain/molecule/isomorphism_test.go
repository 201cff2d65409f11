package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const propane = `
1 Cs u0 p0 c0 {2,S}
2 Cs u0 p0 c0 {1,S} {3,S}
3 Cs u0 p0 c0 {2,S}
`

func TestIsSubgraphIsomorphic_ConcreteHost(t *testing.T) {
	mol := MustFromAdjacencyList(ethylRadical, false)

	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"radical carbon", "1 *1 Cs u1", true},
		{"lattice descent from C", "1 C u1", true},
		{"lattice descent from R!H", "1 R!H", true},
		{"wildcard type", "1 R u1", true},
		{"candidate set", "1 [Cs,Cd] u1", true},
		{"wrong element", "1 O u1", false},
		{"wrong radical count", "1 Cs u2", false},
		{"ring constraint excludes chain", "1 Cs u1 r1", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pat := MustFromAdjacencyList(tt.pattern, true)
			assert.Equal(t, tt.want, mol.IsSubgraphIsomorphic(pat, nil))
		})
	}
}

func TestFindSubgraphIsomorphisms_AllMappings(t *testing.T) {
	mol := MustFromAdjacencyList(propane, false)
	pat := MustFromAdjacencyList(`
1 C u0 {2,S}
2 C u0 {1,S}
`, true)

	// The C-C pattern embeds along each bond in both orientations.
	maps := mol.FindSubgraphIsomorphisms(pat, nil)
	assert.Len(t, maps, 4)
	for _, m := range maps {
		require.Len(t, m, 2)
		assert.True(t, mol.HasBond(m[pat.Atoms[0]], m[pat.Atoms[1]]))
	}
}

func TestFindSubgraphIsomorphisms_InitialMapping(t *testing.T) {
	mol := MustFromAdjacencyList(ethylRadical, false)
	pat := MustFromAdjacencyList(`
1 *1 C u1 {2,S}
2 *2 C u0 {1,S}
`, true)

	// Seeding the radical end pins the single surviving embedding.
	maps := mol.FindSubgraphIsomorphisms(pat, Mapping{pat.Atoms[0]: mol.Atoms[0]})
	require.Len(t, maps, 1)
	assert.Same(t, mol.Atoms[1], maps[0][pat.Atoms[1]])

	// An incompatible seed matches nothing.
	maps = mol.FindSubgraphIsomorphisms(pat, Mapping{pat.Atoms[0]: mol.Atoms[1]})
	assert.Empty(t, maps)
}

func TestIsIsomorphic(t *testing.T) {
	ethyl := MustFromAdjacencyList(ethylRadical, false)
	reordered := MustFromAdjacencyList(`
1 Cs u0 p0 c0 {2,S}
2 *1 Cs u1 p0 c0 {1,S}
`, false)
	assert.True(t, ethyl.IsIsomorphic(reordered))
	assert.False(t, ethyl.IsIsomorphic(MustFromAdjacencyList(allylRadical, false)))
	assert.False(t, ethyl.IsIsomorphic(MustFromAdjacencyList(propane, false)))
}

func TestIsIsomorphic_MultiplicityMismatch(t *testing.T) {
	singlet := MustFromAdjacencyList("multiplicity 1\n1 Cs u0 p0 c0\n", false)
	triplet := MustFromAdjacencyList("multiplicity 3\n1 Cs u0 p0 c0\n", false)
	unset := MustFromAdjacencyList("1 Cs u0 p0 c0\n", false)

	assert.False(t, singlet.IsIsomorphic(triplet))
	assert.True(t, singlet.IsIsomorphic(unset), "unset multiplicity matches anything")
}

func TestIsIdentical_Patterns(t *testing.T) {
	a := MustFromAdjacencyList("1 [Cs,Cd] u[0,1]\n", true)
	b := MustFromAdjacencyList("1 [Cd,Cs] u[1,0]\n", true)
	narrower := MustFromAdjacencyList("1 [Cs,Cd] u1\n", true)

	assert.True(t, a.IsIdentical(b), "candidate-set order is irrelevant")
	assert.False(t, a.IsIdentical(narrower))
	assert.False(t, narrower.IsIdentical(a))
}

func TestIsSubgraphIsomorphic_PatternHost(t *testing.T) {
	parent := MustFromAdjacencyList("1 *1 C u[0,1]\n", true)
	child := MustFromAdjacencyList("1 *1 Cs u1\n", true)
	tooWide := MustFromAdjacencyList("1 *1 R!H u1\n", true)

	// The child's candidate sets must be contained in the parent's.
	assert.True(t, child.IsSubgraphIsomorphic(parent, nil))
	assert.False(t, parent.IsSubgraphIsomorphic(child, nil))
	assert.False(t, tooWide.IsSubgraphIsomorphic(parent, nil))
}
