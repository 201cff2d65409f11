package family

import (
	"fmt"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// expandAlternatives resolves an entry to the concrete Group entries it
// stands for, descending through LogicOr unions.
func expandAlternatives(arena *tree.Tree, e *tree.Entry) []*tree.Entry {
	if !e.IsLogicOr() {
		return []*tree.Entry{e}
	}
	var out []*tree.Entry
	for _, alt := range e.LogicOr {
		if child, err := arena.Get(alt); err == nil {
			out = append(out, expandAlternatives(arena, child)...)
		}
	}
	return out
}

// GenerateProductTemplate applies the forward recipe to every combination of
// template-reactant alternatives and synthesizes the product-side template:
// one Group entry per product slot when a single distinct pattern results, a
// LogicOr over numbered children otherwise.  It runs once at load time and
// fixes the reverse template; own-reverse families skip it.
func (f *KineticsFamily) GenerateProductTemplate() error {
	if f.OwnReverse {
		return nil
	}
	entries, err := f.templateEntries(true)
	if err != nil {
		return err
	}

	slots := make([][]*tree.Entry, len(entries))
	for i, e := range entries {
		slots[i] = expandAlternatives(f.Groups, e)
		if len(slots[i]) == 0 {
			return errors.DatabaseConsistency("template entry " + e.Label + " expands to nothing")
		}
	}

	var productSets [][]*molecule.Graph
	for _, combo := range crossEntries(slots) {
		pats := make([]*molecule.Graph, len(combo))
		for i, e := range combo {
			if e.Group == nil {
				return errors.DatabaseConsistency("template alternative " + e.Label + " has no group")
			}
			pats[i] = e.Group
		}
		prods, err := f.ApplyRecipe(pats, true)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeFamilyLoadFailed,
				"forward recipe failed on template combination")
		}
		if len(productSets) > 0 && len(prods) != len(productSets[0]) {
			return errors.DatabaseConsistency(
				"template combinations disagree on product count")
		}
		productSets = append(productSets, prods)
	}
	if len(productSets) == 0 {
		return errors.DatabaseConsistency("template has no reactant combinations")
	}

	f.ProductGroups = tree.New()
	labels := make([]string, 0, len(productSets[0]))
	for slot := range productSets[0] {
		var distinct []*molecule.Graph
		for _, set := range productSets {
			p := set[slot]
			dup := false
			for _, seen := range distinct {
				if p.IsIdentical(seen) {
					dup = true
					break
				}
			}
			if !dup {
				distinct = append(distinct, p)
			}
		}

		label := fmt.Sprintf("%s_prod%d", f.Label, slot+1)
		if len(distinct) == 1 {
			if err := f.ProductGroups.AddEntry(&tree.Entry{
				Index: -1, Label: label, Group: distinct[0],
			}); err != nil {
				return err
			}
		} else {
			alts := make([]string, len(distinct))
			for k := range distinct {
				alts[k] = fmt.Sprintf("%s_%d", label, k+1)
			}
			if err := f.ProductGroups.AddEntry(&tree.Entry{
				Index: -1, Label: label, LogicOr: alts,
			}); err != nil {
				return err
			}
			for k, p := range distinct {
				if err := f.ProductGroups.AddEntry(&tree.Entry{
					Index: -1, Label: alts[k], Parent: label, Group: p,
				}); err != nil {
					return err
				}
			}
		}
		labels = append(labels, label)
	}

	f.ReverseTemplate = Template{
		Reactants: labels,
		Products:  f.ForwardTemplate.Reactants,
	}
	return nil
}

// crossEntries enumerates one pick per slot, first slot varying slowest.
func crossEntries(slots [][]*tree.Entry) [][]*tree.Entry {
	out := [][]*tree.Entry{{}}
	for _, slot := range slots {
		var next [][]*tree.Entry
		for _, prefix := range out {
			for _, e := range slot {
				combo := make([]*tree.Entry, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, e))
			}
		}
		out = next
	}
	return out
}
