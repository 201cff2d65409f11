package molecule

import (
	"fmt"
)

// ─────────────────────────────────────────────────────────────────────────────
// Pattern extensions
//
// An extension is an elementary specialization of a group pattern: fixing an
// atom type one lattice level down, fixing a radical count, fixing ring
// membership, fixing a bond order, bonding two existing atoms, or attaching a
// brand-new atom.  The tree builder enumerates extensions of a node's group,
// scores how each one splits the node's reactions, and turns the winner into
// child nodes.
// ─────────────────────────────────────────────────────────────────────────────

// ExtensionKind names the six elementary specializations.
type ExtensionKind string

const (
	AtomExt       ExtensionKind = "atomExt"
	ElExt         ExtensionKind = "elExt"
	RingExt       ExtensionKind = "ringExt"
	BondExt       ExtensionKind = "bondExt"
	IntNewBondExt ExtensionKind = "intNewBondExt"
	ExtNewBondExt ExtensionKind = "extNewBondExt"
)

// Extension is one candidate specialization of a source pattern.
type Extension struct {
	// Group is the specialized pattern.
	Group *Graph

	// Complement is the pattern matching everything the source matched that
	// Group does not.  Nil when no finite complement exists (new-bond
	// extensions).
	Complement *Graph

	// Name is the label suffix for the child node formed from Group.
	Name string

	// Kind is the specialization family.
	Kind ExtensionKind

	// Atom1 and Atom2 index the touched atoms in Group.Atoms.  Atom2 is -1
	// for single-atom extensions.
	Atom1, Atom2 int
}

// DefaultRadicalRange lists the radical counts explored when a pattern leaves
// the dimension open.
var DefaultRadicalRange = []int{0, 1, 2}

// Extensions enumerates the elementary specializations of the pattern.
//
// basename seeds the child names.  atmInd (and atmInd2 for bond extensions)
// restrict generation to one atom or bond; pass -1 to consider all.  r and
// rBonds bound the explored atom types for new atoms and the explored bond
// orders; nil applies the defaults (TypeR, AllBondOrders).  Regularization
// bounds recorded on the pattern further restrict the explored values of each
// dimension.
func (g *Graph) Extensions(basename string, atmInd, atmInd2 int, r []AtomType, rBonds []float64, rUn []int) []Extension {
	if len(r) == 0 {
		r = []AtomType{TypeR}
	}
	if len(rBonds) == 0 {
		rBonds = AllBondOrders
	}
	if len(rUn) == 0 {
		rUn = DefaultRadicalRange
	}

	var out []Extension
	pos := g.position()
	components := g.componentIndex()

	for i, atom := range g.Atoms {
		if atmInd >= 0 && i != atmInd {
			continue
		}
		out = append(out, g.atomTypeExtensions(basename, i, atom)...)
		out = append(out, g.radicalExtensions(basename, i, atom, rUn)...)
		out = append(out, g.ringExtensions(basename, i, atom)...)
	}

	for i, atom := range g.Atoms {
		if atmInd >= 0 && i != atmInd {
			continue
		}
		for _, n := range atom.sortedNeighbors(pos) {
			j := pos[n]
			if j < i {
				continue
			}
			if atmInd2 >= 0 && j != atmInd2 {
				continue
			}
			out = append(out, g.bondOrderExtensions(basename, i, j, atom.Bonds[n])...)
		}
	}

	if atmInd < 0 && atmInd2 < 0 {
		out = append(out, g.internalNewBondExtensions(basename, rBonds, components)...)
		out = append(out, g.externalNewBondExtensions(basename, r, rBonds, rUn)...)
	}
	return out
}

// componentIndex assigns every atom its connected-component number.
func (g *Graph) componentIndex() map[*Atom]int {
	idx := make(map[*Atom]int, len(g.Atoms))
	comp := 0
	for _, root := range g.Atoms {
		if _, seen := idx[root]; seen {
			continue
		}
		stack := []*Atom{root}
		idx[root] = comp
		for len(stack) > 0 {
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for n := range a.Bonds {
				if _, seen := idx[n]; !seen {
					idx[n] = comp
					stack = append(stack, n)
				}
			}
		}
		comp++
	}
	return idx
}

// atomTypeExtensions descends the atom-type lattice one level, or picks
// single members out of a multi-type candidate set.
func (g *Graph) atomTypeExtensions(basename string, i int, atom *Atom) []Extension {
	var explore []AtomType
	switch {
	case len(atom.Types) == 1:
		explore = atom.Types[0].Children()
	case len(atom.Types) > 1:
		explore = atom.Types
	}
	if len(explore) < 2 {
		return nil
	}
	if atom.RegType.Set {
		explore = intersectTypes(explore, atom.RegType.Any)
		if len(explore) < 1 {
			return nil
		}
	}

	var out []Extension
	for _, t := range explore {
		grp, gm := g.Copy()
		gm[atom].Types = []AtomType{t}

		rest := make([]AtomType, 0, len(explore)-1)
		for _, o := range explore {
			if o != t {
				rest = append(rest, o)
			}
		}
		var comp *Graph
		if len(rest) > 0 {
			var cm map[*Atom]*Atom
			comp, cm = g.Copy()
			cm[atom].Types = rest
		}
		out = append(out, Extension{
			Group:      grp,
			Complement: comp,
			Name:       fmt.Sprintf("%s_%d%s", basename, i+1, t),
			Kind:       AtomExt,
			Atom1:      i,
			Atom2:      -1,
		})
	}
	return out
}

// radicalExtensions fixes the unpaired-electron count.
func (g *Graph) radicalExtensions(basename string, i int, atom *Atom, rUn []int) []Extension {
	if len(atom.Radicals) == 1 {
		return nil
	}
	explore := atom.Radicals
	if len(explore) == 0 {
		explore = rUn
	}
	if atom.RegRad.Set {
		explore = intersectInts(explore, atom.RegRad.Any)
	}
	if len(explore) < 2 {
		return nil
	}

	var out []Extension
	for _, v := range explore {
		grp, gm := g.Copy()
		gm[atom].Radicals = []int{v}

		rest := make([]int, 0, len(explore)-1)
		for _, o := range explore {
			if o != v {
				rest = append(rest, o)
			}
		}
		comp, cm := g.Copy()
		cm[atom].Radicals = rest
		out = append(out, Extension{
			Group:      grp,
			Complement: comp,
			Name:       fmt.Sprintf("%s_%du%d", basename, i+1, v),
			Kind:       ElExt,
			Atom1:      i,
			Atom2:      -1,
		})
	}
	return out
}

// ringExtensions fixes ring membership for an unconstrained atom.
func (g *Graph) ringExtensions(basename string, i int, atom *Atom) []Extension {
	if len(atom.Ring) != 0 {
		return nil
	}
	if atom.RegRing.Set && len(atom.RegRing.Any) < 2 {
		return nil
	}
	grp, gm := g.Copy()
	gm[atom].Ring = []bool{true}
	comp, cm := g.Copy()
	cm[atom].Ring = []bool{false}
	return []Extension{{
		Group:      grp,
		Complement: comp,
		Name:       fmt.Sprintf("%s_%dring", basename, i+1),
		Kind:       RingExt,
		Atom1:      i,
		Atom2:      -1,
	}}
}

// bondOrderExtensions fixes the order of a multi-order bond.
func (g *Graph) bondOrderExtensions(basename string, i, j int, bond *Bond) []Extension {
	explore := bond.Orders
	if len(explore) < 2 {
		return nil
	}
	if bond.RegOrd.Set {
		explore = intersectOrders(explore, bond.RegOrd.Any)
		if len(explore) < 2 {
			return nil
		}
	}

	var out []Extension
	for _, o := range explore {
		grp, gm := g.Copy()
		a1 := gm[g.Atoms[i]]
		a2 := gm[g.Atoms[j]]
		a1.Bonds[a2].Orders = []float64{o}

		rest := make([]float64, 0, len(explore)-1)
		for _, other := range explore {
			if !orderEqual(other, o) {
				rest = append(rest, other)
			}
		}
		comp, cm := g.Copy()
		c1 := cm[g.Atoms[i]]
		c2 := cm[g.Atoms[j]]
		c1.Bonds[c2].Orders = rest

		letter, err := orderLetter(o)
		if err != nil {
			letter = "?"
		}
		out = append(out, Extension{
			Group:      grp,
			Complement: comp,
			Name:       fmt.Sprintf("%s_Sp-%d%s%d", basename, i+1, letter, j+1),
			Kind:       BondExt,
			Atom1:      i,
			Atom2:      j,
		})
	}
	return out
}

// internalNewBondExtensions bonds two existing unbonded atoms of the same
// component.  Joining distinct components would change how many molecules the
// pattern spans, so cross-component pairs are skipped.  No complement exists:
// "these two atoms are not bonded" is not expressible as a pattern.
func (g *Graph) internalNewBondExtensions(basename string, rBonds []float64, components map[*Atom]int) []Extension {
	var out []Extension
	for i, a1 := range g.Atoms {
		for j := i + 1; j < len(g.Atoms); j++ {
			a2 := g.Atoms[j]
			if components[a1] != components[a2] {
				continue
			}
			if _, bonded := a1.Bonds[a2]; bonded {
				continue
			}
			grp, gm := g.Copy()
			b := NewBond(rBonds...)
			gm[a1].Bonds[gm[a2]] = b
			gm[a2].Bonds[gm[a1]] = b
			grp.InvalidateCache()
			out = append(out, Extension{
				Group: grp,
				Name:  fmt.Sprintf("%s_Int-%d-%d", basename, i+1, j+1),
				Kind:  IntNewBondExt,
				Atom1: i,
				Atom2: j,
			})
		}
	}
	return out
}

// externalNewBondExtensions attaches a fresh atom to each existing atom.
func (g *Graph) externalNewBondExtensions(basename string, r []AtomType, rBonds []float64, rUn []int) []Extension {
	var out []Extension
	for i, atom := range g.Atoms {
		if atom.IsSurfaceSite() {
			continue
		}
		for _, t := range r {
			grp, gm := g.Copy()
			fresh := NewAtom(t)
			fresh.Radicals = append([]int(nil), rUn...)
			grp.AddAtom(fresh)
			b := NewBond(rBonds...)
			gm[atom].Bonds[fresh] = b
			fresh.Bonds[gm[atom]] = b
			out = append(out, Extension{
				Group: grp,
				Name:  fmt.Sprintf("%s_Ext-%d%s", basename, i+1, t),
				Kind:  ExtNewBondExt,
				Atom1: i,
				Atom2: len(grp.Atoms) - 1,
			})
		}
	}
	return out
}

func intersectTypes(a, b []AtomType) []AtomType {
	if len(b) == 0 {
		return a
	}
	var out []AtomType
	for _, x := range a {
		for _, y := range b {
			if x == y {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

func intersectInts(a, b []int) []int {
	if len(b) == 0 {
		return a
	}
	var out []int
	for _, x := range a {
		if intMember(x, b) {
			out = append(out, x)
		}
	}
	return out
}

func intersectOrders(a, b []float64) []float64 {
	if len(b) == 0 {
		return a
	}
	var out []float64
	for _, x := range a {
		for _, y := range b {
			if orderEqual(x, y) {
				out = append(out, x)
				break
			}
		}
	}
	return out
}
