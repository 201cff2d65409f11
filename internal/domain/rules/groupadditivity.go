package rules

import (
	"fmt"

	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// EstimateGroupAdditivity estimates kinetics as the root-template rule
// corrected multiplicatively, slot by slot, along each slot's root-to-node
// chain.  Each chain node whose template (the node with every other slot at
// its root) carries a rule contributes the rule's ratio to the root rule.
// Without a root rule the template is undeterminable.
func (t *Table) EstimateGroupAdditivity(arena *tree.Tree, template []string,
	degeneracy float64) (*kinetics.Arrhenius, error) {
	roots := make([]string, len(template))
	for i, label := range template {
		r, err := arena.RootOf(label)
		if err != nil {
			return nil, err
		}
		roots[i] = r.Label
	}
	base := t.Get(roots)
	if base == nil || base.Kinetics == nil {
		return nil, errors.New(errors.ErrCodeKineticsUndeterminable,
			"no root rule ["+Key(roots)+"] in "+t.family)
	}

	k := base.Kinetics.Copy()
	k.Uncertainty = nil
	corrections := 0
	for i, label := range template {
		for _, node := range rootChain(arena, label) {
			probe := append([]string(nil), roots...)
			probe[i] = node
			e := t.Get(probe)
			if e == nil || e.Kinetics == nil {
				continue
			}
			k.A *= e.Kinetics.A / base.Kinetics.A
			k.N += e.Kinetics.N - base.Kinetics.N
			k.Ea += e.Kinetics.Ea - base.Kinetics.Ea
			corrections++
		}
	}
	k.ChangeRate(degeneracy)
	k.Comment = fmt.Sprintf("group additivity from [%s] with %d correction(s) in %s",
		Key(template), corrections, t.family)
	return k, nil
}

// rootChain lists the nodes from just below the root down to label itself,
// empty when label is a root.
func rootChain(arena *tree.Tree, label string) []string {
	anc := arena.Ancestors(label)
	out := make([]string, 0, len(anc))
	// Ancestors runs parent-to-root; rebuild top-down and append the node.
	for i := len(anc) - 1; i > 0; i-- {
		out = append(out, anc[i-1].Label)
	}
	if len(anc) > 0 {
		out = append(out, label)
	}
	return out
}
