package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ethylRadical = `
1 *1 Cs u1 p0 c0 {2,S}
2    Cs u0 p0 c0 {1,S}
`

const allylRadical = `
1 Cs u1 p0 c0 {2,S}
2 Cd u0 p0 c0 {1,S} {3,D}
3 Cd u0 p0 c0 {2,D}
`

func TestFromAdjacencyList_Molecule(t *testing.T) {
	g, err := FromAdjacencyList(ethylRadical, false)
	require.NoError(t, err)

	require.Len(t, g.Atoms, 2)
	assert.False(t, g.Pattern)
	assert.Equal(t, "*1", g.Atoms[0].Label)
	assert.Equal(t, []AtomType{TypeCs}, g.Atoms[0].Types)
	assert.Equal(t, 1, g.Atoms[0].Radical())
	assert.Equal(t, 0, g.Atoms[1].Radical())
	require.True(t, g.HasBond(g.Atoms[0], g.Atoms[1]))
	assert.True(t, g.GetBond(g.Atoms[0], g.Atoms[1]).IsOrder(OrderSingle))
}

func TestFromAdjacencyList_Pattern(t *testing.T) {
	g, err := FromAdjacencyList(`
1 *1 [Cs,Cd] u[0,1] r1 {2,[S,D]}
2 *2 R!H
`, true)
	require.NoError(t, err)

	require.Len(t, g.Atoms, 2)
	assert.True(t, g.Pattern)
	assert.Equal(t, []AtomType{TypeCs, TypeCd}, g.Atoms[0].Types)
	assert.Equal(t, []int{0, 1}, g.Atoms[0].Radicals)
	assert.Equal(t, []bool{true}, g.Atoms[0].Ring)
	assert.Empty(t, g.Atoms[1].Radicals, "unspecified dimension stays a wildcard")
	b := g.GetBond(g.Atoms[0], g.Atoms[1])
	require.NotNil(t, b)
	assert.True(t, b.HasOrder(OrderSingle))
	assert.True(t, b.HasOrder(OrderDouble))
	assert.False(t, b.HasOrder(OrderTriple))
}

func TestFromAdjacencyList_Multiplicity(t *testing.T) {
	g, err := FromAdjacencyList("multiplicity 2\n1 Cs u1 p0 c0\n", false)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Multiplicity)
}

func TestFromAdjacencyList_Errors(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		pattern bool
	}{
		{"empty", "", false},
		{"unknown type", "1 Qq u0 p0 c0\n", false},
		{"unspecified molecule atom", "1 [Cs,Cd]\n", false},
		{"dangling bond", "1 Cs u0 p0 c0 {2,S}\n", false},
		{"duplicate index", "1 Cs u0 p0 c0\n1 Cs u0 p0 c0\n", false},
		{"conflicting bond orders", "1 Cs u0 p0 c0 {2,S}\n2 Cs u0 p0 c0 {1,D}\n", false},
		{"bad order letter", "1 Cs u0 p0 c0 {2,Q}\n2 Cs u0 p0 c0 {1,Q}\n", false},
		{"garbage token", "1 Cs u0 p0 c0 zz\n", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromAdjacencyList(tc.text, tc.pattern)
			assert.Error(t, err)
		})
	}
}

func TestAdjacencyList_RoundTrip(t *testing.T) {
	texts := []string{ethylRadical, allylRadical}
	for _, text := range texts {
		g, err := FromAdjacencyList(text, false)
		require.NoError(t, err)

		dumped := g.ToAdjacencyList()
		back, err := FromAdjacencyList(dumped, false)
		require.NoError(t, err)

		assert.Equal(t, dumped, back.ToAdjacencyList(), "serialization must be stable")
		assert.True(t, g.IsIsomorphic(back))
	}
}

func TestAdjacencyList_PatternRoundTrip(t *testing.T) {
	g, err := FromAdjacencyList(`
1 *1 [Cs,Cd] u[0,1] {2,[S,D]}
2 *2 O u1 r0 {1,[S,D]}
`, true)
	require.NoError(t, err)

	dumped := g.ToAdjacencyList()
	back, err := FromAdjacencyList(dumped, true)
	require.NoError(t, err)

	assert.Equal(t, dumped, back.ToAdjacencyList())
	assert.True(t, g.IsIdentical(back))
}
