package family

import (
	"sort"
	"sync"

	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
)

// pairLabelsMu guards the per-family pairing tables, registered at package
// init alongside relabel hooks.
var (
	pairLabelsMu sync.RWMutex
	pairLabels   = map[string][][2]string{}
)

// RegisterPairLabels installs a fixed atom-label pairing table for a family:
// each entry names the labeled atom identifying the reactant and the labeled
// atom identifying the product it feeds.
func RegisterPairLabels(family string, pairs [][2]string) {
	pairLabelsMu.Lock()
	defer pairLabelsMu.Unlock()
	pairLabels[family] = pairs
}

func lookupPairLabels(family string) [][2]string {
	pairLabelsMu.RLock()
	defer pairLabelsMu.RUnlock()
	return pairLabels[family]
}

// generatePairs fills the reaction's reactant-to-product pairs for flux
// bookkeeping.  One-sided reactions pair the lone species with everything on
// the other side; otherwise the family's label table decides; when neither
// applies the species are zipped by size.
func (f *KineticsFamily) generatePairs(r *reaction.TemplateReaction) {
	r.Pairs = nil
	if len(r.Reactants) == 1 {
		for _, p := range r.Products {
			r.Pairs = append(r.Pairs, [2]*reaction.Species{r.Reactants[0], p})
		}
		return
	}
	if len(r.Products) == 1 {
		for _, rc := range r.Reactants {
			r.Pairs = append(r.Pairs, [2]*reaction.Species{rc, r.Products[0]})
		}
		return
	}
	if table := lookupPairLabels(f.Label); table != nil {
		pairs := make([][2]*reaction.Species, 0, len(table))
		for _, lbls := range table {
			rc := speciesWithLabel(r.Reactants, lbls[0])
			pd := speciesWithLabel(r.Products, lbls[1])
			if rc == nil || pd == nil {
				pairs = nil
				break
			}
			pairs = append(pairs, [2]*reaction.Species{rc, pd})
		}
		if pairs != nil {
			r.Pairs = pairs
			return
		}
	}
	f.log.Debug("no pairing rule applies, zipping species by size",
		logging.String("reaction", r.String()))
	r.Pairs = genericPairs(r.Reactants, r.Products)
}

func speciesWithLabel(side []*reaction.Species, label string) *reaction.Species {
	for _, sp := range side {
		if _, err := sp.Molecule.GetLabeledAtom(label); err == nil {
			return sp
		}
	}
	return nil
}

// genericPairs matches the largest reactant with the largest product and so
// on down, recycling the shorter side when the counts differ.
func genericPairs(reactants, products []*reaction.Species) [][2]*reaction.Species {
	rs := append([]*reaction.Species(nil), reactants...)
	ps := append([]*reaction.Species(nil), products...)
	bySize := func(side []*reaction.Species) {
		sort.SliceStable(side, func(i, j int) bool {
			return len(side[i].Molecule.Atoms) > len(side[j].Molecule.Atoms)
		})
	}
	bySize(rs)
	bySize(ps)
	n := len(rs)
	if len(ps) > n {
		n = len(ps)
	}
	pairs := make([][2]*reaction.Species, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, [2]*reaction.Species{rs[i%len(rs)], ps[i%len(ps)]})
	}
	return pairs
}
