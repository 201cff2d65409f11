package molecule

import (
	"sort"

	"github.com/turtacn/ReactKin/pkg/errors"
)

// Kekulize rewrites every aromatic (order 1.5) bond as alternating single and
// double bonds such that each aromatic atom ends up with exactly one double
// bond among its formerly aromatic bonds.  It is called on structures whose
// aromatic system was perturbed by a recipe; failure means the perturbed
// structure is chemically unsound and must be discarded.
func (g *Graph) Kekulize() error {
	pos := g.position()

	type edge struct {
		a, b *Atom
		bond *Bond
	}
	var aromatic []edge
	arAtoms := make(map[*Atom]bool)
	for _, a := range g.Atoms {
		for _, n := range a.sortedNeighbors(pos) {
			if pos[n] < pos[a] {
				continue
			}
			if a.Bonds[n].IsOrder(OrderAromatic) {
				aromatic = append(aromatic, edge{a: a, b: n, bond: a.Bonds[n]})
				arAtoms[a] = true
				arAtoms[n] = true
			}
		}
	}
	if len(aromatic) == 0 {
		g.ClearAromaticInvalid()
		return nil
	}

	sort.Slice(aromatic, func(i, j int) bool {
		if pos[aromatic[i].a] != pos[aromatic[j].a] {
			return pos[aromatic[i].a] < pos[aromatic[j].a]
		}
		return pos[aromatic[i].b] < pos[aromatic[j].b]
	})

	// assigned order per aromatic edge: 0 undecided, 1 single, 2 double
	assigned := make([]int, len(aromatic))
	// doubleCount tracks placed double bonds per aromatic atom.
	doubleCount := make(map[*Atom]int, len(arAtoms))

	edgesOf := make(map[*Atom][]int)
	for i, e := range aromatic {
		edgesOf[e.a] = append(edgesOf[e.a], i)
		edgesOf[e.b] = append(edgesOf[e.b], i)
	}

	satisfiable := func(atom *Atom) bool {
		undecided := 0
		for _, i := range edgesOf[atom] {
			if assigned[i] == 0 {
				undecided++
			}
		}
		if doubleCount[atom] > 1 {
			return false
		}
		if doubleCount[atom] == 0 && undecided == 0 {
			return false
		}
		return true
	}

	var solve func(i int) bool
	solve = func(i int) bool {
		if i == len(aromatic) {
			for atom := range arAtoms {
				if doubleCount[atom] != 1 {
					return false
				}
			}
			return true
		}
		e := aromatic[i]
		for _, choice := range []int{2, 1} {
			assigned[i] = choice
			if choice == 2 {
				doubleCount[e.a]++
				doubleCount[e.b]++
			}
			if satisfiable(e.a) && satisfiable(e.b) && solve(i+1) {
				return true
			}
			if choice == 2 {
				doubleCount[e.a]--
				doubleCount[e.b]--
			}
			assigned[i] = 0
		}
		return false
	}

	if !solve(0) {
		return errors.New(errors.ErrCodeStructureNotAromatic,
			"no alternating single/double assignment exists").
			WithDetail(g.ToAdjacencyList())
	}

	for i, e := range aromatic {
		if assigned[i] == 2 {
			e.bond.Orders = []float64{OrderDouble}
		} else {
			e.bond.Orders = []float64{OrderSingle}
		}
	}
	g.ClearAromaticInvalid()
	g.InvalidateCache()
	return nil
}
