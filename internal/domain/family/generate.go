package family

import (
	"time"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// genStats counts per-direction outcomes of one generation pass.
type genStats struct {
	forbidden int
}

// GenerateReactions enumerates every reaction this family produces from the
// given reactants, in the forward direction and, for reversible
// non-own-reverse families, the reverse direction.  A non-nil products list
// filters the output to reactions whose product side matches it.
//
// Template mismatches (wrong product count, charge imbalance, unsound
// aromatic products, forbidden structures) decline silently per mapping;
// only recipe corruption propagates as an error.
func (f *KineticsFamily) GenerateReactions(reactants, products []*reaction.Species,
	prodResonance bool) ([]*reaction.TemplateReaction, error) {
	start := time.Now()

	var stats genStats
	out, err := f.generateDirection(reactants, true, prodResonance, &stats)
	if err != nil {
		return nil, err
	}
	prometheus.RecordGeneration(f.metrics, f.Label, "forward",
		len(out), stats.forbidden, time.Since(start))
	if !f.OwnReverse && f.Reversible && f.ProductGroups != nil {
		revStart := time.Now()
		stats = genStats{}
		rev, err := f.generateDirection(reactants, false, prodResonance, &stats)
		if err != nil {
			return nil, err
		}
		prometheus.RecordGeneration(f.metrics, f.Label, "reverse",
			len(rev), stats.forbidden, time.Since(revStart))
		out = append(out, rev...)
	}
	out = FindDegenerateReactions(out)

	if products != nil {
		kept := out[:0]
		for _, r := range out {
			// Reverse-direction hits are stored forward-expressed, so the
			// caller's desired products sit on the reactant side there.
			side := r.Products
			if !r.IsForward {
				side = r.Reactants
			}
			if reaction.SameSpeciesLists(side, products) {
				kept = append(kept, r)
			}
		}
		out = kept
	}

	for _, r := range out {
		f.generatePairs(r)
	}
	return out, nil
}

func (f *KineticsFamily) generateDirection(reactants []*reaction.Species,
	forward, prodResonance bool, stats *genStats) ([]*reaction.TemplateReaction, error) {
	entries, err := f.templateEntries(forward)
	if err != nil {
		return nil, err
	}
	arena := f.Groups
	if !forward {
		arena = f.ProductGroups
	}

	var out []*reaction.TemplateReaction
	for _, assign := range f.slotAssignments(reactants, entries) {
		slotMatches := make([][]*molecule.Graph, len(entries))
		for i, sp := range assign {
			slotMatches[i] = matchSlot(sp, entries[i], arena)
		}
		for _, combo := range crossGraphs(slotMatches) {
			rxn, ok, err := f.reactFromMapping(assign, combo, entries, forward, prodResonance, stats)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, rxn)
			}
		}
	}
	return out, nil
}

// slotAssignments enumerates orderings of the reactants over the template
// slots.  Two reactants against a three-slot template with two surface-site
// slots get the bare site duplicated.
func (f *KineticsFamily) slotAssignments(reactants []*reaction.Species,
	entries []*tree.Entry) [][]*reaction.Species {
	if len(reactants) == len(entries) {
		return permuteSpecies(reactants)
	}
	if len(reactants) == 2 && len(entries) == 3 && countSurfaceSlots(entries) == 2 {
		for _, sp := range reactants {
			if sp.Molecule.IsSurfaceSite() {
				dupGraph, _ := sp.Molecule.Copy()
				dup := reaction.NewSpecies(dupGraph, sp.Label)
				expanded := append(append([]*reaction.Species(nil), reactants...), dup)
				return permuteSpecies(expanded)
			}
		}
	}
	return nil
}

func countSurfaceSlots(entries []*tree.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Group != nil && e.Group.IsSurfaceSite() {
			n++
		}
	}
	return n
}

func permuteSpecies(sps []*reaction.Species) [][]*reaction.Species {
	if len(sps) == 1 {
		return [][]*reaction.Species{{sps[0]}}
	}
	var out [][]*reaction.Species
	var rec func(rest, acc []*reaction.Species)
	rec = func(rest, acc []*reaction.Species) {
		if len(rest) == 0 {
			out = append(out, append([]*reaction.Species(nil), acc...))
			return
		}
		for i := range rest {
			next := make([]*reaction.Species, 0, len(rest)-1)
			next = append(next, rest[:i]...)
			next = append(next, rest[i+1:]...)
			rec(next, append(acc, rest[i]))
		}
	}
	rec(sps, nil)
	return out
}

// matchSlot maps one species onto one template slot: every subgraph embedding
// of every alternative pattern into every resonance form yields a labeled
// copy of that form.
func matchSlot(sp *reaction.Species, e *tree.Entry, arena *tree.Tree) []*molecule.Graph {
	var out []*molecule.Graph
	for _, alt := range expandAlternatives(arena, e) {
		if alt.Group == nil {
			continue
		}
		for _, form := range sp.ResonanceStructures() {
			for _, m := range form.FindSubgraphIsomorphisms(alt.Group, nil) {
				c, amap := form.Copy()
				c.ClearLabels()
				for patAtom, molAtom := range m {
					if patAtom.Label != "" {
						amap[molAtom].Label = patAtom.Label
					}
				}
				out = append(out, c)
			}
		}
	}
	return out
}

func crossGraphs(slots [][]*molecule.Graph) [][]*molecule.Graph {
	out := [][]*molecule.Graph{{}}
	for _, slot := range slots {
		var next [][]*molecule.Graph
		for _, prefix := range out {
			for _, g := range slot {
				combo := make([]*molecule.Graph, len(prefix), len(prefix)+1)
				copy(combo, prefix)
				next = append(next, append(combo, g))
			}
		}
		out = next
	}
	return out
}

// reactFromMapping runs one labeled reactant combination through the recipe
// and validation pipeline.  ok=false declines the mapping silently.
func (f *KineticsFamily) reactFromMapping(assign []*reaction.Species,
	structures []*molecule.Graph, entries []*tree.Entry,
	forward, prodResonance bool, stats *genStats) (*reaction.TemplateReaction, bool, error) {

	for _, s := range structures {
		if f.IsMoleculeForbidden(s) {
			stats.forbidden++
			return nil, false, nil
		}
	}

	prods, err := f.ApplyRecipe(structures, forward)
	if err != nil {
		if code := errors.GetCode(err); errors.IsSoftCode(code) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if len(prods) != f.expectedProductCount(forward) {
		return nil, false, nil
	}
	for _, p := range prods {
		if p.HasVdWBond() {
			return nil, false, nil
		}
	}

	var reactantCharge, productCharge int
	for _, s := range structures {
		reactantCharge += s.NetCharge()
	}
	for _, p := range prods {
		productCharge += p.NetCharge()
	}
	if reactantCharge != productCharge {
		f.log.Debug("declining charge-imbalanced mapping",
			logging.String("family", f.Label),
			logging.Int("reactant_charge", reactantCharge),
			logging.Int("product_charge", productCharge))
		return nil, false, nil
	}

	for _, p := range prods {
		if f.IsMoleculeForbidden(p) {
			stats.forbidden++
			return nil, false, nil
		}
	}

	inputSpecies := make([]*reaction.Species, len(structures))
	for i, s := range structures {
		inputSpecies[i] = reaction.NewSpecies(s, assign[i].Label)
	}
	producedSpecies := make([]*reaction.Species, len(prods))
	for i, p := range prods {
		producedSpecies[i] = reaction.NewSpecies(p, "")
	}
	// A transformation back onto itself is not a reaction.
	if reaction.SameSpeciesLists(inputSpecies, producedSpecies) {
		return nil, false, nil
	}
	if prodResonance {
		for _, ps := range producedSpecies {
			ps.ResonanceStructures()
		}
	}

	// Reactions always read in the family's forward orientation, so a
	// reverse-direction hit stores the produced structures as reactants.
	rxnReactants, rxnProducts := inputSpecies, producedSpecies
	if !forward {
		rxnReactants, rxnProducts = producedSpecies, inputSpecies
	}

	var tmpl []string
	if forward {
		tmpl = make([]string, len(entries))
		for i, e := range entries {
			tmpl[i] = deepestMatch(f.Groups, e, structures[i])
		}
	} else {
		var err error
		tmpl, err = f.forwardTemplateFor(prods)
		if err != nil {
			return nil, false, err
		}
	}

	r := &reaction.TemplateReaction{
		Reaction:  *reaction.NewReaction(rxnReactants, rxnProducts),
		Family:    f.Label,
		Template:  tmpl,
		Estimator: "rate rules",
		IsForward: forward,
	}
	r.Reversible = f.Reversible
	return r, true, nil
}

// ReactionTemplate matches a reaction's reactants against the forward
// template and returns the deepest tree-node label per slot.  Reactions whose
// reactants do not cover the template yield a consistency error; callers
// importing training sets treat that as a cue to try the reverse direction.
func (f *KineticsFamily) ReactionTemplate(rxn *reaction.Reaction) ([]string, error) {
	structures := make([]*molecule.Graph, 0, len(rxn.Reactants))
	for _, s := range rxn.Reactants {
		structures = append(structures, s.Molecule)
	}
	return f.forwardTemplateFor(structures)
}

// forwardTemplateFor maps reverse-generated forward-side structures onto the
// forward template slots and descends to the deepest matching nodes, so
// template labels always name kinetics-bearing tree nodes.
func (f *KineticsFamily) forwardTemplateFor(structures []*molecule.Graph) ([]string, error) {
	entries, err := f.templateEntries(true)
	if err != nil {
		return nil, err
	}
	used := make([]bool, len(structures))
	tmpl := make([]string, len(entries))
	for i, e := range entries {
		found := false
		for j, g := range structures {
			if used[j] || !f.Groups.EntryMatches(g, e, false) {
				continue
			}
			tmpl[i] = deepestMatch(f.Groups, e, g)
			used[j] = true
			found = true
			break
		}
		if !found {
			return nil, errors.DatabaseConsistency(
				"reverse-generated structures do not match the forward template of " + f.Label)
		}
	}
	return tmpl, nil
}

func (f *KineticsFamily) expectedProductCount(forward bool) int {
	if forward {
		if !f.OwnReverse && len(f.ReverseTemplate.Reactants) > 0 {
			return len(f.ReverseTemplate.Reactants)
		}
		return len(f.ForwardTemplate.Products)
	}
	return len(f.ForwardTemplate.Reactants)
}

// deepestMatch descends from a template entry to the most specific tree node
// still matching the labeled structure.
func deepestMatch(arena *tree.Tree, e *tree.Entry, g *molecule.Graph) string {
	for {
		descended := false
		for _, c := range e.Children {
			child, err := arena.Get(c)
			if err != nil {
				continue
			}
			if arena.EntryMatches(g, child, false) {
				e = child
				descended = true
				break
			}
		}
		if !descended {
			return e.Label
		}
	}
}
