package treegen

import (
	"context"
	"fmt"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// TrainingSet turns the training depository into forward-direction reactions
// carrying degeneracy-normalized kinetics, ready for tree generation and rule
// fitting.  Entries whose reactants do not match the root template are
// reversed with a thermodynamically derived rate.  For own-reverse families
// withReverse additionally appends the reversed form of every reaction, so
// both directions inform the tree.
func (b *Builder) TrainingSet(ctx context.Context, training *rules.Depository,
	withReverse bool) ([]*reaction.TemplateReaction, error) {
	roots, err := b.family.RootTemplate()
	if err != nil {
		return nil, err
	}

	var out []*reaction.TemplateReaction
	var reversed []*reaction.TemplateReaction

	for _, entry := range training.Entries() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src := entry.Reaction
		if entry.Kinetics == nil {
			b.log.Warn("training reaction lacks kinetics, skipping",
				logging.Int("entry", entry.Index))
			continue
		}

		k := entry.Kinetics.Copy()
		if src.Degeneracy > 0 {
			k.ChangeRate(1 / src.Degeneracy)
		}
		rxn := &reaction.TemplateReaction{
			Reaction:  src.Reaction,
			Family:    b.family.Label,
			Template:  src.Template,
			IsForward: true,
		}
		rxn.Kinetics = k
		rxn.Degeneracy = 1

		if matchesRootSlots(mergedReactants(rxn), roots) {
			out = append(out, rxn)
			if withReverse && b.family.OwnReverse && b.thermo != nil {
				rev, err := b.reverseTraining(rxn)
				if err != nil {
					b.log.Warn("could not reverse training reaction",
						logging.Int("entry", entry.Index), logging.Err(err))
					continue
				}
				reversed = append(reversed, rev)
			}
			continue
		}

		if b.family.OwnReverse {
			return nil, errors.DatabaseConsistency(fmt.Sprintf(
				"training reaction %s does not match the root template of own-reverse family %s",
				rxn.String(), b.family.Label))
		}
		rev, err := b.reverseTraining(rxn)
		if err != nil {
			return nil, err
		}
		if !matchesRootSlots(mergedReactants(rev), roots) {
			return nil, errors.DatabaseConsistency(fmt.Sprintf(
				"training reaction %s matches the root template in neither direction", rxn.String()))
		}
		out = append(out, rev)
	}
	return append(out, reversed...), nil
}

// reverseTraining builds the opposite-direction reaction with kinetics
// derived through the equilibrium constant.
func (b *Builder) reverseTraining(rxn *reaction.TemplateReaction) (*reaction.TemplateReaction, error) {
	if b.thermo == nil {
		return nil, errors.New(errors.ErrCodeKineticsUndeterminable,
			"reversing a training reaction requires a thermo estimator")
	}
	revKin, err := rxn.GenerateReverseRate(b.thermo)
	if err != nil {
		return nil, err
	}
	rev := &reaction.TemplateReaction{
		Reaction:  *rxn.Reversed(),
		Family:    b.family.Label,
		IsForward: false,
	}
	rev.Kinetics = revKin
	rev.Degeneracy = 1
	return rev, nil
}

// matchesRootSlots reports whether the merged structure matches every slot
// pattern of the root template.
func matchesRootSlots(mol *molecule.Graph, roots []*tree.Entry) bool {
	for _, root := range roots {
		if root.Group == nil {
			return false
		}
		if !mol.IsSubgraphIsomorphic(root.Group, nil) {
			return false
		}
	}
	return true
}

// ReactionMatches maps every tree node label to the reactions whose descent
// path passes through it.  Each reaction starts at a root entry it matches
// (trying resonance forms there only) and then follows the first matching
// child at every level.  With exactOnly, reactions are kept only at the
// deepest node of their path.
func (b *Builder) ReactionMatches(rxns []*reaction.TemplateReaction,
	exactOnly bool) (map[string][]*reaction.TemplateReaction, error) {
	arena := b.family.Groups
	matches := make(map[string][]*reaction.TemplateReaction, arena.Len())
	for _, e := range arena.Entries() {
		matches[e.Label] = nil
	}

	for _, rxn := range rxns {
		mol := mergedReactants(rxn)
		for _, top := range arena.Top() {
			if !arena.EntryMatches(mol, top, true) {
				b.log.Error("reaction does not match a root template entry",
					logging.String("reaction", rxn.String()),
					logging.String("root", top.Label),
					logging.String("structure", mol.ToAdjacencyList()))
				return nil, errors.DatabaseConsistency(fmt.Sprintf(
					"reaction %s does not match root %s in family %s",
					rxn.String(), top.Label, b.family.Label))
			}
			matches[top.Label] = append(matches[top.Label], rxn)

			entry := top
			for len(entry.Children) > 0 {
				descended := false
				for _, label := range entry.Children {
					child, err := arena.Get(label)
					if err != nil {
						return nil, err
					}
					if arena.EntryMatches(mol, child, false) {
						matches[child.Label] = append(matches[child.Label], rxn)
						entry = child
						descended = true
						break
					}
				}
				if !descended {
					break
				}
			}
		}
	}

	if exactOnly {
		for _, e := range arena.Entries() {
			kept := matches[e.Label]
			for _, label := range e.Children {
				kept = subtractReactions(kept, matches[label])
			}
			matches[e.Label] = kept
		}
	}
	return matches, nil
}

func subtractReactions(from, remove []*reaction.TemplateReaction) []*reaction.TemplateReaction {
	if len(remove) == 0 {
		return from
	}
	drop := make(map[*reaction.TemplateReaction]bool, len(remove))
	for _, r := range remove {
		drop[r] = true
	}
	var out []*reaction.TemplateReaction
	for _, r := range from {
		if !drop[r] {
			out = append(out, r)
		}
	}
	return out
}

// rxnsMatchNode reports whether every reaction still matches the node's
// pattern, the guard used when tightening a dimension during regularization.
func (b *Builder) rxnsMatchNode(e *tree.Entry,
	rxns []*reaction.TemplateReaction) bool {
	for _, rxn := range rxns {
		if !b.family.Groups.EntryMatches(mergedReactants(rxn), e, false) {
			return false
		}
	}
	return true
}
