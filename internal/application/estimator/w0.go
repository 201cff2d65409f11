package estimator

import (
	"fmt"
	"math"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/recipe"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// bondWells tabulates representative bond dissociation energies in J/mol,
// keyed by the alphabetically ordered element pair and the bond order.
var bondWells = map[string]float64{
	"H-H|1": 436e3,
	"C-H|1": 411e3,
	"C-C|1": 346e3,
	"C-C|2": 602e3,
	"C-C|3": 835e3,
	"C-O|1": 358e3,
	"C-O|2": 799e3,
	"H-O|1": 459e3,
	"O-O|1": 142e3,
	"O-O|2": 494e3,
	"H-N|1": 386e3,
	"C-N|1": 305e3,
	"C-N|2": 615e3,
	"C-N|3": 887e3,
	"N-N|1": 167e3,
	"N-N|2": 418e3,
	"N-N|3": 942e3,
	"N-O|1": 201e3,
	"N-O|2": 607e3,
	"H-S|1": 363e3,
	"C-S|1": 272e3,
}

func wellFor(a, b *molecule.Atom, order float64) (float64, error) {
	e1 := string(a.Types[0].Element())
	e2 := string(b.Types[0].Element())
	if e1 > e2 {
		e1, e2 = e2, e1
	}
	key := fmt.Sprintf("%s-%s|%g", e1, e2, order)
	w, ok := bondWells[key]
	if !ok {
		return 0, errors.New(errors.ErrCodeKineticsFitFailed, "no bond well for "+key)
	}
	return w, nil
}

// bondWell derives the Blowers-Masel well depth w0 for a reaction: the
// average of the total bond energy broken on the reactant side and formed on
// the product side, read off the recipe's bond actions against the labeled
// reactant structures.
func bondWell(rec *recipe.Recipe, rxn *reaction.Reaction) (float64, error) {
	labeled := map[string]*molecule.Atom{}
	graphOf := map[*molecule.Atom]*molecule.Graph{}
	for _, sp := range rxn.Reactants {
		for label, atoms := range sp.Molecule.LabeledAtoms() {
			if _, ok := labeled[label]; !ok {
				labeled[label] = atoms[0]
				graphOf[atoms[0]] = sp.Molecule
			}
		}
	}
	center := func(label string) (*molecule.Atom, error) {
		a, ok := labeled[label]
		if !ok {
			return nil, errors.New(errors.ErrCodeKineticsFitFailed,
				"reaction carries no labeled atom "+label)
		}
		return a, nil
	}

	var broken, formed float64
	for _, act := range rec.Actions() {
		if act.Kind != recipe.BreakBond && act.Kind != recipe.FormBond &&
			act.Kind != recipe.ChangeBond {
			continue
		}
		a1, err := center(act.Center1)
		if err != nil {
			return 0, err
		}
		a2, err := center(act.Center2)
		if err != nil {
			return 0, err
		}
		switch act.Kind {
		case recipe.BreakBond:
			w, err := wellFor(a1, a2, act.Order)
			if err != nil {
				return 0, err
			}
			broken += w
		case recipe.FormBond:
			w, err := wellFor(a1, a2, act.Order)
			if err != nil {
				return 0, err
			}
			formed += w
		case recipe.ChangeBond:
			g := graphOf[a1]
			if g == nil || g.GetBond(a1, a2) == nil {
				return 0, errors.New(errors.ErrCodeKineticsFitFailed,
					"change-bond centers are not bonded in the reactants")
			}
			old := g.GetBond(a1, a2).Order()
			wOld, err := wellFor(a1, a2, old)
			if err != nil {
				return 0, err
			}
			wNew, err := wellFor(a1, a2, old+act.Order)
			if err != nil {
				return 0, err
			}
			broken += wOld
			formed += wNew
		}
	}
	w0 := (broken + formed) / 2
	if w0 <= 0 || math.IsNaN(w0) {
		return 0, errors.New(errors.ErrCodeKineticsFitFailed,
			"recipe has no bond actions to derive a well depth from")
	}
	return w0, nil
}
