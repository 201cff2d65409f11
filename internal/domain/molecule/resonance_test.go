package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResonanceStructures_NoConjugation(t *testing.T) {
	mol := MustFromAdjacencyList(ethylRadical, false)
	forms := mol.ResonanceStructures()
	require.Len(t, forms, 1)
	assert.Same(t, mol, forms[0])
}

func TestResonanceStructures_SymmetricAllyl(t *testing.T) {
	// CH2=CH-CH2• shifts into its own mirror image, so the closure keeps a
	// single form.
	mol := MustFromAdjacencyList(allylRadical, false)
	forms := mol.ResonanceStructures()
	assert.Len(t, forms, 1)
}

func TestResonanceStructures_Butenyl(t *testing.T) {
	// CH2•-CH=CH-CH3 and CH2=CH-CH•-CH3 are distinct.
	mol := MustFromAdjacencyList(`
1 Cs u1 p0 c0 {2,S}
2 Cd u0 p0 c0 {1,S} {3,D}
3 Cd u0 p0 c0 {2,D} {4,S}
4 Cs u0 p0 c0 {3,S}
`, false)

	forms := mol.ResonanceStructures()
	require.Len(t, forms, 2)
	assert.Same(t, mol, forms[0])

	shifted := forms[1]
	// Radical moved to the former double-bond terminus and the types
	// followed the bond change.
	assert.Equal(t, 1, shifted.Atoms[2].Radical())
	assert.Equal(t, []AtomType{TypeCd}, shifted.Atoms[0].Types)
	assert.Equal(t, []AtomType{TypeCs}, shifted.Atoms[2].Types)
	assert.True(t, shifted.GetBond(shifted.Atoms[0], shifted.Atoms[1]).IsOrder(OrderDouble))
	assert.True(t, shifted.GetBond(shifted.Atoms[1], shifted.Atoms[2]).IsOrder(OrderSingle))

	// The source molecule is untouched.
	assert.Equal(t, 1, mol.Atoms[0].Radical())
	assert.True(t, mol.GetBond(mol.Atoms[1], mol.Atoms[2]).IsOrder(OrderDouble))
}

func TestResonanceStructures_PatternPassthrough(t *testing.T) {
	pat := MustFromAdjacencyList("1 C u1\n", true)
	forms := pat.ResonanceStructures()
	require.Len(t, forms, 1)
	assert.Same(t, pat, forms[0])
}
