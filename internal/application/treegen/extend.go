package treegen

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/prometheus"
)

// ExtendNode finds the best split of the parent node, adds the resulting
// child (and its complement when one exists) to the arena, and repartitions
// the node's reactions in rxnMap.  It reports whether anything changed: false
// means the node is terminal, holding reactions no pattern specialization can
// tell apart.
//
// When the extension search comes back empty but the node still holds
// distinct reactions, the recorded regularization bounds have over-pruned the
// search.  The bounds are cleared and the node is left for another attempt.
func (b *Builder) ExtendNode(parent *tree.Entry, arena *tree.Tree,
	rxnMap map[string][]*reaction.TemplateReaction, T float64) (bool, error) {
	start := time.Now()
	rxns := rxnMap[parent.Label]

	// Bounds present now restricted the search width; a failed search can be
	// retried at full width after clearing them, but only once.
	hadBounds := hasRegBounds(parent.Group)

	exts := b.ExtensionEdge(parent, rxns, T)

	// Cascade passes can regenerate a specialization that already became a
	// child in an earlier batch; those labels are taken.
	kept := exts[:0]
	for _, ext := range exts {
		if !arena.Has(ext.Name) {
			kept = append(kept, ext)
		}
	}
	exts = kept

	if len(exts) == 0 {
		for q := 1; q < len(rxns); q++ {
			for j := 0; j < q; j++ {
				if reaction.SameSpeciesLists(rxns[q].Reactants, rxns[j].Reactants) {
					continue
				}
				if !hadBounds {
					// The search already ran at full width; the reactions
					// genuinely cannot be told apart by any specialization.
					b.log.Warn("distinct reactions share every explorable pattern dimension",
						logging.String("node", parent.Label),
						logging.Int("reactions", len(rxns)))
					return false, nil
				}
				b.logRegViolations(parent, rxns)
				parent.Group.ClearRegDims()
				return true, nil
			}
		}
		return false, nil
	}

	best := exts[0]
	bestVal, _ := b.evalExtension(rxns, best.Group, T)
	for _, ext := range exts[1:] {
		val, _ := b.evalExtension(rxns, ext.Group, T)
		if val < bestVal {
			best, bestVal = ext, val
		}
	}

	// The chosen dimension is now fixed in the child; pin its bound so
	// regularization cannot reopen it.
	switch best.Kind {
	case molecule.AtomExt:
		a := best.Group.Atoms[best.Atom1]
		a.RegType.Record(a.Types, a.Types)
	case molecule.ElExt:
		a := best.Group.Atoms[best.Atom1]
		a.RegRad.Record(a.Radicals, a.Radicals)
	}

	child := &tree.Entry{Index: -1, Label: best.Name, Parent: parent.Label, Group: best.Group}
	if err := arena.AddEntry(child); err != nil {
		return false, err
	}

	complementLabel := ""
	if best.Complement != nil {
		if cl := complementName(best.Name); !arena.Has(cl) {
			complementLabel = cl
			comp := &tree.Entry{Index: -1, Label: cl, Parent: parent.Label, Group: best.Complement}
			if err := arena.AddEntry(comp); err != nil {
				return false, err
			}
		}
	}

	matched, rest := splitReactions(rxns, best.Group)
	rxnMap[best.Name] = matched
	if complementLabel != "" {
		rxnMap[parent.Label] = nil
		rxnMap[complementLabel] = rest
	} else {
		rxnMap[parent.Label] = rest
	}

	prometheus.RecordNodeSplit(b.metrics, b.family.Label, time.Since(start))
	b.log.Debug("node split",
		logging.String("parent", parent.Label),
		logging.String("child", best.Name),
		logging.String("kind", string(best.Kind)),
		logging.Int("matched", len(matched)),
		logging.Int("rest", len(rest)))
	return true, nil
}

// hasRegBounds reports whether any dimension of the pattern carries a
// recorded bound.
func hasRegBounds(g *molecule.Graph) bool {
	for _, a := range g.Atoms {
		if a.RegType.Set || a.RegRad.Set || a.RegRing.Set {
			return true
		}
		for _, bd := range a.Bonds {
			if bd.RegOrd.Set {
				return true
			}
		}
	}
	return false
}

// complementName derives the sibling label for a complement pattern:
// the final name fragment gains an "N-" prefix.
func complementName(name string) string {
	frags := strings.Split(name, "_")
	frags[len(frags)-1] = "N-" + frags[len(frags)-1]
	return strings.Join(frags, "_")
}

// logRegViolations dumps every dimension whose bounds claim the node could
// still be specialized, together with the reactions involved.  This state
// usually means a split broke a symmetry the bounds were recorded under.
func (b *Builder) logRegViolations(parent *tree.Entry, rxns []*reaction.TemplateReaction) {
	for i, atm := range parent.Group.Atoms {
		if atm.RegType.Set && !sameTypes(atm.RegType.All, atm.RegType.Any) {
			b.log.Error("atom-type bound claims an unexplored split",
				logging.String("node", parent.Label),
				logging.Int("atom", i))
		}
		if atm.RegRad.Set && !sameInts(atm.RegRad.All, atm.RegRad.Any) {
			b.log.Error("radical bound claims an unexplored split",
				logging.String("node", parent.Label),
				logging.Int("atom", i))
		}
	}
	pos := make(map[*molecule.Atom]int, len(parent.Group.Atoms))
	for i, a := range parent.Group.Atoms {
		pos[a] = i
	}
	for i, a := range parent.Group.Atoms {
		for n, bd := range a.Bonds {
			if pos[n] < i {
				continue
			}
			if bd.RegOrd.Set && !sameFloat64s(bd.RegOrd.All, bd.RegOrd.Any) {
				b.log.Error("bond-order bound claims an unexplored split",
					logging.String("node", parent.Label),
					logging.String("bond", fmt.Sprintf("%d-%d", i, pos[n])))
			}
		}
	}
	b.log.Error("distinct reactions with no usable extension, clearing bounds and retrying",
		logging.String("node", parent.Label),
		logging.String("pattern", parent.Group.ToAdjacencyList()),
		logging.Int("reactions", len(rxns)))
	for _, rxn := range rxns {
		for _, sp := range rxn.Reactants {
			b.log.Debug("reactant structure",
				logging.String("node", parent.Label),
				logging.String("adjacency", sp.Molecule.ToAdjacencyList()))
		}
	}
}

func sameTypes(a, b []molecule.AtomType) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
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

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
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

func sameFloat64s(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
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
