package family

import (
	"time"

	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// FindDegenerateReactions collapses candidates describing the same
// transformation into one reaction each, summing their multiplicities, then
// divides out the double counting introduced by permuting isomorphic
// reactants over the template slots.
func FindDegenerateReactions(rxns []*reaction.TemplateReaction) []*reaction.TemplateReaction {
	var out []*reaction.TemplateReaction
	for _, cand := range rxns {
		merged := false
		for _, kept := range out {
			if kept.Family == cand.Family && kept.IsForward == cand.IsForward &&
				sameTemplate(kept.Template, cand.Template) &&
				kept.Reaction.IsIsomorphic(&cand.Reaction, false) {
				kept.Degeneracy += cand.Degeneracy
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, cand)
		}
	}
	for _, r := range out {
		// The permutation double count happened over the generation input,
		// which for reverse-expressed reactions is the product side.
		side := r.Reactants
		if !r.IsForward {
			side = r.Products
		}
		switch identicalReactantCount(side) {
		case 2:
			r.Degeneracy /= 2
		case 3:
			r.Degeneracy /= 6
		}
	}
	return out
}

func sameTemplate(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// identicalReactantCount reports the size of the largest group of mutually
// isomorphic reactants: 0 when all differ, 2 for one identical pair, 3 when
// all three coincide.
func identicalReactantCount(sps []*reaction.Species) int {
	switch len(sps) {
	case 2:
		if sps[0].IsIsomorphic(sps[1]) {
			return 2
		}
	case 3:
		s01 := sps[0].IsIsomorphic(sps[1])
		s02 := sps[0].IsIsomorphic(sps[2])
		if s01 && s02 {
			return 3
		}
		if s01 || s02 || sps[1].IsIsomorphic(sps[2]) {
			return 2
		}
	}
	return 0
}

// CalculateDegeneracy regenerates the reaction from its own reactants and
// returns the multiplicity of the pathway producing its products.  Exactly
// one collapsed candidate must survive the product filter.
func (f *KineticsFamily) CalculateDegeneracy(rxn *reaction.TemplateReaction) (float64, error) {
	start := time.Now()
	// Pointer-identical reactants get independent copies so slot orderings
	// enumerate them separately.
	reactants := append([]*reaction.Species(nil), rxn.Reactants...)
	for i := 1; i < len(reactants); i++ {
		for j := 0; j < i; j++ {
			if reactants[i] == reactants[j] {
				g, _ := reactants[i].Molecule.Copy()
				reactants[i] = reaction.NewSpecies(g, reactants[i].Label)
				break
			}
		}
	}
	cands, err := f.GenerateReactions(reactants, rxn.Products, false)
	if err != nil {
		return 0, err
	}
	if f.metrics != nil {
		f.metrics.DegeneracyCalcDuration.WithLabelValues(f.Label).Observe(time.Since(start).Seconds())
	}
	if len(cands) != 1 {
		for _, sp := range rxn.Reactants {
			f.log.Error("degeneracy reactant", logging.String("adjacency", sp.Molecule.ToAdjacencyList()))
		}
		for _, sp := range rxn.Products {
			f.log.Error("degeneracy product", logging.String("adjacency", sp.Molecule.ToAdjacencyList()))
		}
		return 0, errors.Newf(errors.ErrCodeFamilyProductMismatch,
			"expected 1 collapsed reaction for %s in family %s, generated %d",
			rxn.String(), f.Label, len(cands))
	}
	return cands[0].Degeneracy, nil
}

// AddReverseAttribute generates the reverse reaction of an own-reverse
// family's forward reaction and attaches it, so the reverse multiplicity is
// available without regenerating.  Returns false when the reverse direction
// is blocked by a forbidden structure, meaning the forward reaction should
// be dropped as well.
func (f *KineticsFamily) AddReverseAttribute(rxn *reaction.TemplateReaction) (bool, error) {
	if !f.OwnReverse {
		return false, errors.New(errors.ErrCodeFamilyNotReversible,
			"reverse attribute only applies to own-reverse families")
	}
	cands, err := f.GenerateReactions(rxn.Products, rxn.Reactants, false)
	if err != nil {
		return false, err
	}
	if len(cands) == 0 {
		// Probe without the forbidden filter.  A product that is forbidden
		// as a reverse reactant means the forward reaction is one-way into
		// a dead end and should be dropped.
		saved := f.Forbidden
		f.Forbidden = nil
		cands, err = f.GenerateReactions(rxn.Products, rxn.Reactants, false)
		f.Forbidden = saved
		if err != nil {
			return false, err
		}
		if len(cands) > 0 {
			f.log.Warn("reverse direction forbidden, dropping forward reaction",
				logging.String("reaction", rxn.String()))
			return false, nil
		}
		for _, sp := range rxn.Reactants {
			f.log.Error("reverse-search reactant", logging.String("adjacency", sp.Molecule.ToAdjacencyList()))
		}
		for _, sp := range rxn.Products {
			f.log.Error("reverse-search product", logging.String("adjacency", sp.Molecule.ToAdjacencyList()))
		}
		return false, errors.Newf(errors.ErrCodeFamilyProductMismatch,
			"no reverse reaction found for %s in family %s", rxn.String(), f.Label)
	}
	if len(cands) > 1 {
		for _, c := range cands[1:] {
			if !cands[0].Reaction.IsIsomorphic(&c.Reaction, false) {
				return false, errors.Newf(errors.ErrCodeFamilyProductMismatch,
					"expected one reverse reaction for %s in family %s, found %d non-isomorphic",
					rxn.String(), f.Label, len(cands))
			}
		}
	}
	rev := cands[0]
	rev.IsForward = false
	rxn.Reverse = rev
	return true, nil
}
