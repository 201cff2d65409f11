package family

import (
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// ApplyRecipe merges copies of the given structures, runs the family's
// relabel hooks and recipe in the requested direction, kekulizes perturbed
// aromatic systems, and splits the result into ordered product structures.
//
// A kekulization failure means the template produced a chemically unsound
// aromatic system; it surfaces as a TemplateMismatch so callers can decline
// the mapping silently.
func (f *KineticsFamily) ApplyRecipe(structures []*molecule.Graph, forward bool) ([]*molecule.Graph, error) {
	copies := make([]*molecule.Graph, len(structures))
	for i, s := range structures {
		c, _ := s.Copy()
		copies[i] = c
	}
	merged := molecule.Merge(copies...)

	hook, hasHook := lookupRelabelHook(f.Label)
	if hasHook && hook.Before != nil {
		if err := hook.Before(merged); err != nil {
			return nil, err
		}
	}

	r := f.ForwardRecipe
	if !forward {
		r = f.reverseRecipe
	}
	if err := r.ApplyForward(merged); err != nil {
		return nil, err
	}

	if hasHook && hook.After != nil {
		if err := hook.After(merged); err != nil {
			return nil, err
		}
	}

	if merged.AromaticInvalid() {
		if err := merged.Kekulize(); err != nil {
			return nil, errors.TemplateMismatch("product aromatic system cannot be kekulized").
				WithCause(err)
		}
	}

	products := merged.Split()
	OrderProducts(products)
	return products, nil
}

// OrderProducts puts split product structures into canonical order: with two
// products the one holding label *1 comes first; with three or more they
// sort by their lowest numeric atom label.
func OrderProducts(products []*molecule.Graph) {
	switch {
	case len(products) == 2:
		if _, err := products[1].GetLabeledAtom("*1"); err == nil {
			if _, err := products[0].GetLabeledAtom("*1"); err != nil {
				products[0], products[1] = products[1], products[0]
			}
		}
	case len(products) > 2:
		sort.SliceStable(products, func(i, j int) bool {
			return lowestLabelNumber(products[i]) < lowestLabelNumber(products[j])
		})
	}
}

// lowestLabelNumber extracts the smallest numeric suffix among *N labels.
func lowestLabelNumber(g *molecule.Graph) int {
	low := 1 << 30
	for label := range g.LabeledAtoms() {
		n, err := strconv.Atoi(strings.TrimPrefix(label, "*"))
		if err == nil && n < low {
			low = n
		}
	}
	return low
}
