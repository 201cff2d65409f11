package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ReactKin/pkg/errors"
)

const benzene = `
1 Cb u0 p0 c0 {2,B} {6,B}
2 Cb u0 p0 c0 {1,B} {3,B}
3 Cb u0 p0 c0 {2,B} {4,B}
4 Cb u0 p0 c0 {3,B} {5,B}
5 Cb u0 p0 c0 {4,B} {6,B}
6 Cb u0 p0 c0 {5,B} {1,B}
`

func TestKekulize_SixRing(t *testing.T) {
	g := MustFromAdjacencyList(benzene, false)
	g.MarkAromaticInvalid()

	require.NoError(t, g.Kekulize())
	assert.False(t, g.AromaticInvalid())

	pos := g.position()
	for _, a := range g.Atoms {
		doubles := 0
		for _, n := range a.sortedNeighbors(pos) {
			b := a.Bonds[n]
			assert.False(t, b.IsOrder(OrderAromatic), "aromatic order must be rewritten")
			if b.IsOrder(OrderDouble) {
				doubles++
			}
		}
		assert.Equal(t, 1, doubles, "each ring atom carries exactly one double bond")
	}
}

func TestKekulize_OddRingFails(t *testing.T) {
	g := MustFromAdjacencyList(`
1 Cb u0 p0 c0 {2,B} {5,B}
2 Cb u0 p0 c0 {1,B} {3,B}
3 Cb u0 p0 c0 {2,B} {4,B}
4 Cb u0 p0 c0 {3,B} {5,B}
5 Cb u0 p0 c0 {4,B} {1,B}
`, false)

	err := g.Kekulize()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureNotAromatic))

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.NotEmpty(t, appErr.Detail, "failure reports the offending structure")
}

func TestKekulize_NoAromaticBondsIsNoop(t *testing.T) {
	g := MustFromAdjacencyList(propane, false)
	g.MarkAromaticInvalid()

	before := g.ToAdjacencyList()
	require.NoError(t, g.Kekulize())
	assert.Equal(t, before, g.ToAdjacencyList())
	assert.False(t, g.AromaticInvalid())
}
