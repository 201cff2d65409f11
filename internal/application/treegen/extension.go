package treegen

import (
	"math"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/prometheus"
)

// evalExtension scores one candidate child pattern against the reactions
// matching the parent.  The score is +Inf when the pattern does not split the
// set; matchedAny is false only when no reaction matches the pattern at all.
func (b *Builder) evalExtension(rxns []*reaction.TemplateReaction,
	grp *molecule.Graph, T float64) (val float64, matchedAny bool) {
	matched, rest := splitReactions(rxns, grp)
	if len(matched) == 0 {
		return math.Inf(1), false
	}
	if len(rest) == 0 {
		return math.Inf(1), true
	}
	return b.obj(logRates(matched, T), logRates(rest, T)), true
}

// regKey identifies one explorable dimension of the parent pattern.
type regKey struct {
	kind molecule.ExtensionKind
	a1   int
	a2   int
}

// regAccum collects the observed values of a dimension: anything seen in a
// splitting or all-matching extension, and the subset seen in all-matching
// extensions only.
type regAccum struct {
	anyTypes, allTypes []molecule.AtomType
	anyRads, allRads   []int
	anyOrds, allOrds   []float64
	anyRing, allRing   []bool
}

func (r *regAccum) empty() bool {
	return len(r.anyTypes) == 0 && len(r.allTypes) == 0 &&
		len(r.anyRads) == 0 && len(r.allRads) == 0 &&
		len(r.anyOrds) == 0 && len(r.allOrds) == 0 &&
		len(r.anyRing) == 0 && len(r.allRing) == 0
}

// apply stamps the accumulated bound onto a pattern's touched atom or bond.
// Bond bounds are intersected with the target bond's own candidate orders.
// Empty accumulators are skipped so unexplored dimensions stay open.
func (r *regAccum) apply(kind molecule.ExtensionKind, key regKey, grp *molecule.Graph) {
	if grp == nil || r.empty() {
		return
	}
	switch kind {
	case molecule.AtomExt:
		grp.Atoms[key.a1].RegType.Record(r.allTypes, r.anyTypes)
	case molecule.ElExt:
		grp.Atoms[key.a1].RegRad.Record(r.allRads, r.anyRads)
	case molecule.RingExt:
		grp.Atoms[key.a1].RegRing.Record(r.allRing, r.anyRing)
	case molecule.BondExt:
		a := grp.Atoms[key.a1]
		bd, ok := a.Bonds[grp.Atoms[key.a2]]
		if !ok {
			return
		}
		bd.RegOrd.Record(intersectFloat64(bd.Orders, r.allOrds),
			intersectFloat64(bd.Orders, r.anyOrds))
	}
}

func intersectFloat64(a, b []float64) []float64 {
	var out []float64
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

func isNewBond(kind molecule.ExtensionKind) bool {
	return kind == molecule.IntNewBondExt || kind == molecule.ExtNewBondExt
}

// ExtensionEdge finds every specialization of the parent pattern that splits
// the parent's reactions and cannot be generalized without losing the split.
// New-bond extensions that match all reactions are expanded recursively until
// they split or the configured caps stop the search.  Regularization bounds
// observed along the way are recorded on the parent and on every returned
// pattern.
func (b *Builder) ExtensionEdge(parent *tree.Entry,
	rxns []*reaction.TemplateReaction, T float64) []molecule.Extension {
	type stackItem struct {
		grp   *molecule.Graph
		name  string
		depth int
	}
	stack := []stackItem{{grp: parent.Group, name: parent.Label}}

	var out []molecule.Extension
	firstTime := true

	for len(stack) > 0 {
		if b.cfg.ExtensionIterItemCap > 0 && len(out)+len(stack) > b.cfg.ExtensionIterItemCap {
			b.log.Warn("extension search exceeded item cap, truncating",
				logging.String("node", parent.Label),
				logging.Int("items", len(out)+len(stack)))
			break
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		exts := item.grp.Extensions(item.name, -1, -1, nil, nil, nil)

		reg := make(map[regKey]*regAccum)
		var roundOut []molecule.Extension
		var expand []molecule.Extension

		for _, ext := range exts {
			key := regKey{kind: ext.Kind, a1: ext.Atom1, a2: ext.Atom2}
			if !isNewBond(ext.Kind) {
				if _, ok := reg[key]; !ok {
					reg[key] = &regAccum{}
				}
			}
			val, matchedAny := b.evalExtension(rxns, ext.Group, T)
			prometheus.RecordExtensionsEvaluated(b.metrics, b.family.Label, string(ext.Kind), 1)

			switch {
			case !math.IsInf(val, 1):
				// Splits the reactions: an optimization dimension.
				roundOut = append(roundOut, ext)
				switch ext.Kind {
				case molecule.AtomExt:
					reg[key].anyTypes = append(reg[key].anyTypes, ext.Group.Atoms[ext.Atom1].Types...)
				case molecule.ElExt:
					reg[key].anyRads = append(reg[key].anyRads, ext.Group.Atoms[ext.Atom1].Radicals...)
				case molecule.BondExt:
					reg[key].anyOrds = append(reg[key].anyOrds, extBondOrders(ext)...)
				}
			case matchedAny:
				// Matches every reaction: a regularization dimension, except
				// new bonds which may still split after further growth.
				switch ext.Kind {
				case molecule.IntNewBondExt, molecule.ExtNewBondExt:
					expand = append(expand, ext)
				case molecule.AtomExt:
					ts := ext.Group.Atoms[ext.Atom1].Types
					reg[key].anyTypes = append(reg[key].anyTypes, ts...)
					reg[key].allTypes = append(reg[key].allTypes, ts...)
				case molecule.ElExt:
					rs := ext.Group.Atoms[ext.Atom1].Radicals
					reg[key].anyRads = append(reg[key].anyRads, rs...)
					reg[key].allRads = append(reg[key].allRads, rs...)
				case molecule.BondExt:
					os := extBondOrders(ext)
					reg[key].anyOrds = append(reg[key].anyOrds, os...)
					reg[key].allOrds = append(reg[key].allOrds, os...)
				case molecule.RingExt:
					reg[key].allRing = append(reg[key].allRing, true)
				}
			default:
				// Matches nothing.
				if ext.Kind == molecule.RingExt {
					reg[key].anyRing = append(reg[key].anyRing, false)
					reg[key].allRing = append(reg[key].allRing, false)
				}
			}
		}

		for key, acc := range reg {
			if firstTime && len(parent.Children) == 0 {
				acc.apply(key.kind, key, parent.Group)
			}
			for _, ext := range roundOut {
				acc.apply(key.kind, key, ext.Group)
				acc.apply(key.kind, key, ext.Complement)
			}
			for _, ext := range expand {
				acc.apply(key.kind, key, ext.Group)
			}
		}

		out = append(out, roundOut...)
		if b.cfg.ExtensionIterMax > 0 && item.depth >= b.cfg.ExtensionIterMax {
			if len(expand) > 0 {
				b.log.Warn("new-bond expansion exceeded depth bound, truncating search",
					logging.String("node", parent.Label),
					logging.Int("depth", item.depth))
			}
		} else {
			for _, ext := range expand {
				stack = append(stack, stackItem{grp: ext.Group, name: ext.Name, depth: item.depth + 1})
			}
		}
		firstTime = false
	}
	return out
}

func extBondOrders(ext molecule.Extension) []float64 {
	a := ext.Group.Atoms[ext.Atom1]
	bd, ok := a.Bonds[ext.Group.Atoms[ext.Atom2]]
	if !ok {
		return nil
	}
	return bd.Orders
}
