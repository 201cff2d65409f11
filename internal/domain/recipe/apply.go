package recipe

import (
	"fmt"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// ApplyForward executes the recipe on a merged reactant structure in place.
// The structure may be a concrete molecule or a group pattern; candidate sets
// shift element-wise.
func (r *Recipe) ApplyForward(g *molecule.Graph) error {
	return r.apply(g, true)
}

// ApplyReverse executes the inverse of each action, in the original order.
func (r *Recipe) ApplyReverse(g *molecule.Graph) error {
	return r.apply(g, false)
}

func (r *Recipe) apply(g *molecule.Graph, forward bool) error {
	for _, a := range r.actions {
		if !forward {
			a = a.reverse()
		}
		var err error
		switch a.Kind {
		case ChangeBond:
			err = applyChangeBond(g, a)
		case FormBond:
			err = applyFormBond(g, a)
		case BreakBond:
			err = applyBreakBond(g, a)
		case GainRadical, LoseRadical:
			err = applyRadical(g, a)
		case GainPair, LosePair:
			err = applyPair(g, a)
		default:
			err = errors.New(errors.ErrCodeRecipeUnknownAction, "unknown action kind "+string(a.Kind))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// bondCenters resolves the two endpoint atoms of a bond action.  When both
// centers carry the same label the label must resolve to exactly two atoms;
// otherwise each label must resolve to exactly one.
func bondCenters(g *molecule.Graph, a Action) (*molecule.Atom, *molecule.Atom, error) {
	labeled := g.LabeledAtoms()
	if a.Center1 == a.Center2 {
		atoms := labeled[a.Center1]
		if len(atoms) != 2 {
			return nil, nil, errors.InvalidAction(fmt.Sprintf(
				"%s: label %s resolves to %d atoms, need exactly 2", a.Kind, a.Center1, len(atoms)))
		}
		return atoms[0], atoms[1], nil
	}
	a1, err := resolveOne(labeled, a, a.Center1)
	if err != nil {
		return nil, nil, err
	}
	a2, err := resolveOne(labeled, a, a.Center2)
	if err != nil {
		return nil, nil, err
	}
	if a1 == a2 {
		return nil, nil, errors.InvalidAction(fmt.Sprintf(
			"%s: centers %s and %s are the same atom", a.Kind, a.Center1, a.Center2))
	}
	return a1, a2, nil
}

func resolveOne(labeled map[string][]*molecule.Atom, a Action, label string) (*molecule.Atom, error) {
	atoms := labeled[label]
	switch len(atoms) {
	case 0:
		return nil, errors.InvalidAction(fmt.Sprintf("%s: unresolved label %s", a.Kind, label))
	case 1:
		return atoms[0], nil
	}
	return nil, errors.New(errors.ErrCodeRecipeAmbiguousLabel,
		fmt.Sprintf("%s: label %s resolves to %d atoms", a.Kind, label, len(atoms)))
}

func applyChangeBond(g *molecule.Graph, a Action) error {
	a1, a2, err := bondCenters(g, a)
	if err != nil {
		return err
	}
	bond := g.GetBond(a1, a2)
	if bond == nil {
		return errors.InvalidAction(fmt.Sprintf(
			"CHANGE_BOND: no bond between %s and %s", a.Center1, a.Center2))
	}
	g.InvalidateCache()
	if bond.HasOrder(molecule.OrderAromatic) {
		g.MarkAromaticInvalid()
	}
	if len(bond.Orders) == 0 {
		return nil // wildcard order stays wildcard
	}
	next := make([]float64, len(bond.Orders))
	for i, o := range bond.Orders {
		v := o + a.Order
		if !validBondOrder(v) || v <= 0 {
			return errors.InvalidAction(fmt.Sprintf(
				"CHANGE_BOND: order %g%+g is not a bond order", o, a.Order))
		}
		next[i] = v
	}
	bond.Orders = next
	return nil
}

func validBondOrder(v float64) bool {
	for _, o := range molecule.AllBondOrders {
		if o == v {
			return true
		}
	}
	return false
}

func applyFormBond(g *molecule.Graph, a Action) error {
	if a.Order != molecule.OrderSingle && a.Order != molecule.OrderVdW {
		return errors.InvalidAction(fmt.Sprintf(
			"FORM_BOND: order %g not allowed, only single or vdW bonds can form", a.Order))
	}
	a1, a2, err := bondCenters(g, a)
	if err != nil {
		return err
	}
	if g.HasBond(a1, a2) {
		return errors.InvalidAction(fmt.Sprintf(
			"FORM_BOND: bond between %s and %s already exists", a.Center1, a.Center2))
	}
	g.InvalidateCache()
	return g.AddBond(a1, a2, molecule.NewBond(a.Order))
}

func applyBreakBond(g *molecule.Graph, a Action) error {
	a1, a2, err := bondCenters(g, a)
	if err != nil {
		return err
	}
	bond := g.GetBond(a1, a2)
	if bond == nil {
		return errors.InvalidAction(fmt.Sprintf(
			"BREAK_BOND: no bond between %s and %s", a.Center1, a.Center2))
	}
	g.InvalidateCache()
	if bond.HasOrder(molecule.OrderAromatic) {
		g.MarkAromaticInvalid()
	}
	return g.RemoveBond(a1, a2)
}

// applyRadical adjusts unpaired-electron counts on every atom bearing the
// label; wildcard candidate sets stay wildcard.
func applyRadical(g *molecule.Graph, a Action) error {
	delta := a.Change
	if a.Kind == LoseRadical {
		delta = -delta
	}
	atoms := g.LabeledAtoms()[a.Center1]
	if len(atoms) == 0 {
		return errors.InvalidAction(fmt.Sprintf("%s: unresolved label %s", a.Kind, a.Center1))
	}
	for _, atom := range atoms {
		next, err := shiftCounts(atom.Radicals, delta, g.Pattern)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeRecipeInvalidAction,
				fmt.Sprintf("%s on %s", a.Kind, a.Center1))
		}
		atom.Radicals = next
	}
	return nil
}

func applyPair(g *molecule.Graph, a Action) error {
	delta := a.Change
	if a.Kind == LosePair {
		delta = -delta
	}
	atoms := g.LabeledAtoms()[a.Center1]
	if len(atoms) == 0 {
		return errors.InvalidAction(fmt.Sprintf("%s: unresolved label %s", a.Kind, a.Center1))
	}
	for _, atom := range atoms {
		next, err := shiftCounts(atom.LonePairs, delta, g.Pattern)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeRecipeInvalidAction,
				fmt.Sprintf("%s on %s", a.Kind, a.Center1))
		}
		atom.LonePairs = next
	}
	return nil
}

// shiftCounts moves every candidate count by delta.  On patterns, values
// pushed below zero are dropped; on molecules they are an invalid action.
func shiftCounts(vals []int, delta int, pattern bool) ([]int, error) {
	if len(vals) == 0 {
		if pattern {
			return vals, nil
		}
		return nil, errors.InvalidAction("electron count unspecified")
	}
	next := make([]int, 0, len(vals))
	for _, v := range vals {
		nv := v + delta
		if nv < 0 {
			if pattern {
				continue
			}
			return nil, errors.InvalidAction(fmt.Sprintf("count %d%+d below zero", v, delta))
		}
		next = append(next, nv)
	}
	if len(next) == 0 {
		return nil, errors.InvalidAction("no electron count survives the change")
	}
	return next, nil
}
