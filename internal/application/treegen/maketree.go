package treegen

import (
	"context"
	"time"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// CheckTree verifies the grown tree's structural invariants: every child
// pattern contained in its parent and every entry reachable from a top.
func (b *Builder) CheckTree() error {
	return b.family.Groups.CheckConsistency()
}

// CleanTree resets the family for automatic tree generation: the rule table
// is emptied and the template's slot patterns are merged into a single Root
// entry the generated tree grows from.
func (b *Builder) CleanTree(table *rules.Table) error {
	roots, err := b.family.RootTemplate()
	if err != nil {
		return err
	}
	groups := make([]*molecule.Graph, 0, len(roots))
	for _, root := range roots {
		if root.Group == nil {
			return errors.DatabaseConsistency(
				"template entry " + root.Label + " is a logic node, cannot build a tree root from it")
		}
		groups = append(groups, root.Group)
	}
	merged := molecule.MergeGroups(groups...)

	if table != nil {
		for _, e := range table.Entries() {
			table.Remove(e.Template)
		}
	}

	arena := tree.New()
	if err := arena.AddEntry(&tree.Entry{Label: "Root", Group: merged}); err != nil {
		return err
	}
	b.family.Groups = arena
	b.family.ForwardTemplate.Reactants = []string{"Root"}
	b.log.Info("tree reset to merged root",
		logging.Int("slots", len(groups)),
		logging.Int("atoms", len(merged.Atoms)))
	return nil
}

// MakeTree runs the full pipeline: grow the tree from the training
// reactions, regularize it, fit a rate rule to every node, and verify the
// result.  Rule fitting is skipped when no estimation service is attached.
func (b *Builder) MakeTree(ctx context.Context, training *rules.Depository) error {
	start := time.Now()

	rxns, err := b.TrainingSet(ctx, training, true)
	if err != nil {
		return err
	}
	if err := b.GenerateTree(ctx, rxns); err != nil {
		return err
	}

	matches, err := b.ReactionMatches(rxns, false)
	if err != nil {
		return err
	}
	if err := b.Regularize(matches, true); err != nil {
		return err
	}

	if b.est != nil {
		// Regularization may have tightened patterns; re-map before fitting.
		matches, err = b.ReactionMatches(rxns, false)
		if err != nil {
			return err
		}
		if err := b.est.MakeBMRules(ctx, matches); err != nil {
			return err
		}
	}

	if err := b.CheckTree(); err != nil {
		return err
	}

	prometheus.RecordTreeBuild(b.metrics, b.family.Label, time.Since(start))
	b.log.Info("tree build finished",
		logging.Int("nodes", b.family.Groups.Len()),
		logging.Int("reactions", len(rxns)),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}
