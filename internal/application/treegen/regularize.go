package treegen

import (
	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
)

// elementTypes are the element-level specializations a wildcard atom type can
// be tightened to.
var elementTypes = []molecule.AtomType{
	molecule.TypeH, molecule.TypeC, molecule.TypeN, molecule.TypeO,
	molecule.TypeSi, molecule.TypeS, molecule.TypeCl,
}

var heavyElementTypes = elementTypes[1:]

// Regularize tightens every node's open dimensions to the values its
// descendant reactions actually exhibit, so structures outside the training
// data fall through to more general nodes instead of hitting a misleadingly
// specific one.  With keepRoot the top entries are left untouched.
func (b *Builder) Regularize(rxnMap map[string][]*reaction.TemplateReaction,
	keepRoot bool) error {
	arena := b.family.Groups
	for _, top := range arena.Top() {
		if keepRoot {
			for _, label := range top.Children {
				child, err := arena.Get(label)
				if err != nil {
					return err
				}
				if err := b.SimpleRegularization(child, rxnMap, true); err != nil {
					return err
				}
			}
			continue
		}
		if err := b.SimpleRegularization(top, rxnMap, true); err != nil {
			return err
		}
	}
	return nil
}

// SimpleRegularization makes the node as specific as its descendant
// reactions, depth-first so children are final before their parent is
// examined.  A dimension is tightened only when every child is contained in
// the tightened value set and, with test, when every reaction under the node
// still matches afterwards.
func (b *Builder) SimpleRegularization(node *tree.Entry,
	rxnMap map[string][]*reaction.TemplateReaction, test bool) error {
	arena := b.family.Groups
	children := make([]*tree.Entry, 0, len(node.Children))
	for _, label := range node.Children {
		child, err := arena.Get(label)
		if err != nil {
			return err
		}
		children = append(children, child)
		if err := b.SimpleRegularization(child, rxnMap, test); err != nil {
			return err
		}
	}

	grp := node.Group
	if grp == nil {
		return nil
	}
	rxns := rxnMap[node.Label]
	skip := indistinguishableAtoms(node, grp)

	for i, atm := range grp.Atoms {
		if skip[i] {
			continue
		}
		b.tightenAtomType(node, grp, i, atm, children, rxns, test)
		b.tightenRadicals(node, grp, i, atm, children, rxns, test)
		b.tightenRing(node, grp, i, atm, children, rxns, test)
		b.tightenBonds(node, grp, i, atm, children, rxns, test, skip)
	}
	return nil
}

// indistinguishableAtoms flags atoms of a childless node that are graphically
// interchangeable with another atom; tightening one of them would break the
// symmetry the reactions rely on.
func indistinguishableAtoms(node *tree.Entry, grp *molecule.Graph) map[int]bool {
	skip := make(map[int]bool)
	if len(node.Children) != 0 {
		return skip
	}
	type bondSig struct {
		other *molecule.Atom
		ords  string
	}
	sigs := func(a *molecule.Atom) map[bondSig]bool {
		out := make(map[bondSig]bool, len(a.Bonds))
		for n, bd := range a.Bonds {
			out[bondSig{other: n, ords: ordersKey(bd.Orders)}] = true
		}
		return out
	}
	for i, a1 := range grp.Atoms {
		s1 := sigs(a1)
		for _, a2 := range grp.Atoms {
			if a1 == a2 || !sameTypes(a1.Types, a2.Types) || len(a1.Bonds) != len(a2.Bonds) {
				continue
			}
			if sameBondSigs(s1, sigs(a2)) {
				skip[i] = true
				break
			}
		}
	}
	return skip
}

func ordersKey(orders []float64) string {
	key := ""
	for _, o := range orders {
		key += string(rune('0' + int(o*2)))
	}
	return key
}

func sameBondSigs[T comparable](a, b map[T]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func (b *Builder) tightenAtomType(node *tree.Entry, grp *molecule.Graph, i int,
	atm *molecule.Atom, children []*tree.Entry,
	rxns []*reaction.TemplateReaction, test bool) {
	bound := atm.RegType
	if !bound.Set || len(bound.All) == 0 || sameTypes(bound.All, atm.Types) {
		return
	}
	explore := atm.Types
	if len(explore) == 1 {
		switch explore[0] {
		case molecule.TypeR:
			explore = elementTypes
		case molecule.TypeRnotH:
			explore = heavyElementTypes
		default:
			if containsType(elementTypes, explore[0]) {
				return
			}
		}
	}
	vals := intersectAtomTypes(explore, bound.All)
	if len(vals) == 0 {
		b.log.Warn("atom-type bound shares no value with the pattern, skipping",
			logging.String("node", node.Label), logging.Int("atom", i))
		return
	}
	for _, child := range children {
		if child.Group == nil || i >= len(child.Group.Atoms) ||
			!typesSubset(child.Group.Atoms[i].Types, vals) {
			return
		}
	}
	old := atm.Types
	atm.Types = vals
	if test && !b.rxnsMatchNode(node, rxns) {
		atm.Types = old
	}
}

func (b *Builder) tightenRadicals(node *tree.Entry, grp *molecule.Graph, i int,
	atm *molecule.Atom, children []*tree.Entry,
	rxns []*reaction.TemplateReaction, test bool) {
	bound := atm.RegRad
	if !bound.Set || len(bound.All) == 0 || sameInts(bound.All, atm.Radicals) {
		return
	}
	if len(atm.Radicals) == 1 {
		return
	}
	relist := atm.Radicals
	if len(relist) == 0 {
		relist = molecule.DefaultRadicalRange
	}
	vals := intersectIntSets(relist, bound.All)
	if len(vals) == 0 {
		return
	}
	for _, child := range children {
		if child.Group == nil || i >= len(child.Group.Atoms) {
			return
		}
		cr := child.Group.Atoms[i].Radicals
		if len(cr) == 0 || !intsSubset(cr, vals) {
			return
		}
	}
	old := atm.Radicals
	atm.Radicals = vals
	if test && !b.rxnsMatchNode(node, rxns) {
		atm.Radicals = old
	}
}

func (b *Builder) tightenRing(node *tree.Entry, grp *molecule.Graph, i int,
	atm *molecule.Atom, children []*tree.Entry,
	rxns []*reaction.TemplateReaction, test bool) {
	bound := atm.RegRing
	if !bound.Set || len(bound.All) != 1 || len(atm.Ring) != 0 {
		return
	}
	for _, child := range children {
		if child.Group == nil || i >= len(child.Group.Atoms) {
			return
		}
		cr := child.Group.Atoms[i].Ring
		if len(cr) != 1 || cr[0] != bound.All[0] {
			return
		}
	}
	atm.Ring = []bool{bound.All[0]}
	if test && !b.rxnsMatchNode(node, rxns) {
		atm.Ring = nil
	}
}

func (b *Builder) tightenBonds(node *tree.Entry, grp *molecule.Graph, i int,
	atm *molecule.Atom, children []*tree.Entry,
	rxns []*reaction.TemplateReaction, test bool, skip map[int]bool) {
	pos := make(map[*molecule.Atom]int, len(grp.Atoms))
	for p, a := range grp.Atoms {
		pos[a] = p
	}
	for other, bd := range atm.Bonds {
		j := pos[other]
		if j >= i || skip[j] {
			continue
		}
		if len(bd.Orders) <= 1 || !bd.RegOrd.Set || len(bd.RegOrd.All) == 0 {
			continue
		}
		vals := intersectFloat64(bd.Orders, bd.RegOrd.All)
		if len(vals) == 0 {
			continue
		}
		contained := true
		for _, child := range children {
			cb := childBond(child, i, j)
			if cb == nil || !float64sSubset(cb.Orders, vals) {
				contained = false
				break
			}
		}
		if !contained {
			continue
		}
		old := bd.Orders
		bd.Orders = vals
		if test && !b.rxnsMatchNode(node, rxns) {
			bd.Orders = old
		}
	}
}

func childBond(child *tree.Entry, i, j int) *molecule.Bond {
	if child.Group == nil || i >= len(child.Group.Atoms) || j >= len(child.Group.Atoms) {
		return nil
	}
	bd, ok := child.Group.Atoms[i].Bonds[child.Group.Atoms[j]]
	if !ok {
		return nil
	}
	return bd
}

func containsType(ts []molecule.AtomType, t molecule.AtomType) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

func intersectAtomTypes(a, b []molecule.AtomType) []molecule.AtomType {
	var out []molecule.AtomType
	for _, x := range a {
		if containsType(b, x) {
			out = append(out, x)
		}
	}
	return out
}

func intersectIntSets(a, b []int) []int {
	var out []int
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

func typesSubset(sub, super []molecule.AtomType) bool {
	for _, x := range sub {
		if !containsType(super, x) {
			return false
		}
	}
	return true
}

func intsSubset(sub, super []int) bool {
	for _, x := range sub {
		found := false
		for _, y := range super {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func float64sSubset(sub, super []float64) bool {
	for _, x := range sub {
		found := false
		for _, y := range super {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
