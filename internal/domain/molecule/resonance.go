package molecule

// ─────────────────────────────────────────────────────────────────────────────
// Resonance
// ─────────────────────────────────────────────────────────────────────────────

// ResonanceStructures enumerates the allylic resonance forms of a concrete
// molecule, including the receiver itself as the first element.  A shift
// moves a radical across a conjugated bond pair:
//
//	A• - B = C   →   A = B - C•
//
// The closure is computed to a fixed point with isomorphism deduplication, so
// symmetric systems do not repeat forms.
func (g *Graph) ResonanceStructures() []*Graph {
	if g.Pattern {
		return []*Graph{g}
	}
	forms := []*Graph{g}
	for i := 0; i < len(forms); i++ {
		for _, shifted := range forms[i].allylShifts() {
			dup := false
			for _, existing := range forms {
				if existing.IsIsomorphic(shifted) {
					dup = true
					break
				}
			}
			if !dup {
				forms = append(forms, shifted)
			}
		}
	}
	return forms
}

func hasDoubleBond(a *Atom) bool {
	for _, b := range a.Bonds {
		if b.IsOrder(OrderDouble) {
			return true
		}
	}
	return false
}

// allylShifts returns every single-step allylic shift of g.
func (g *Graph) allylShifts() []*Graph {
	var out []*Graph
	pos := g.position()
	for _, a := range g.Atoms {
		if a.Radical() < 1 {
			continue
		}
		for _, b := range a.sortedNeighbors(pos) {
			ab := a.Bonds[b]
			if !ab.IsOrder(OrderSingle) {
				continue
			}
			for _, c := range b.sortedNeighbors(pos) {
				if c == a {
					continue
				}
				bc := b.Bonds[c]
				if !bc.IsOrder(OrderDouble) {
					continue
				}
				copyG, mapping := g.Copy()
				ca, cb, cc := mapping[a], mapping[b], mapping[c]
				ca.Radicals = []int{ca.Radical() - 1}
				cc.Radicals = []int{cc.Radical() + 1}
				ca.Bonds[cb].Orders = []float64{OrderDouble}
				cc.Bonds[cb].Orders = []float64{OrderSingle}
				// Carbon hybridisation follows the bond change.
				if len(ca.Types) == 1 && ca.Types[0] == TypeCs {
					ca.Types = []AtomType{TypeCd}
				}
				if len(cc.Types) == 1 && cc.Types[0] == TypeCd && !hasDoubleBond(cc) {
					cc.Types = []AtomType{TypeCs}
				}
				copyG.InvalidateCache()
				out = append(out, copyG)
			}
		}
	}
	return out
}
