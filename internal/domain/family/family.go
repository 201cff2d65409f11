package family

import (
	"sync"

	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/recipe"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// Template names the tree entries a reaction must match, one label per
// reactant or product slot.
type Template struct {
	Reactants []string
	Products  []string
}

// KineticsFamily is the aggregate tying together a template, a recipe, the
// group tree and the family's forbidden structures.  Rate data hangs off the
// rules table and depositories owned by the estimation layer.
type KineticsFamily struct {
	Label string

	ForwardTemplate Template
	ForwardRecipe   *recipe.Recipe

	// ReverseTemplate is synthesized from the product template at load time;
	// own-reverse families leave it empty and derive everything structurally.
	ReverseTemplate Template
	reverseRecipe   *recipe.Recipe

	OwnReverse bool
	Reversible bool

	// BoundaryAtoms names the atom-type ceiling for species this family
	// applies to, empty for none.
	BoundaryAtoms string

	// TreeDistances carries per-tree default nodal distances.
	TreeDistances map[string]float64

	Groups *tree.Tree

	// ProductGroups holds the synthesized product-template entries, kept out
	// of the main tree so they never count as tree tops.
	ProductGroups *tree.Tree

	Forbidden []*molecule.Graph

	log     logging.Logger
	metrics *prometheus.EngineMetrics
}

// Option configures a family.
type Option func(*KineticsFamily)

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(f *KineticsFamily) { f.log = l.Named("family").With(logging.String("family", f.Label)) }
}

// WithMetrics attaches engine metrics.
func WithMetrics(m *prometheus.EngineMetrics) Option {
	return func(f *KineticsFamily) { f.metrics = m }
}

// New assembles a family.  The reverse recipe is derived from the forward
// one; non-own-reverse families get their reverse template from
// GenerateProductTemplate during load.
func New(label string, fwdTemplate Template, fwdRecipe *recipe.Recipe,
	groups *tree.Tree, opts ...Option) *KineticsFamily {
	f := &KineticsFamily{
		Label:           label,
		ForwardTemplate: fwdTemplate,
		ForwardRecipe:   fwdRecipe,
		reverseRecipe:   fwdRecipe.Reverse(),
		Reversible:      true,
		Groups:          groups,
		log:             logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// ReverseRecipe returns the structural inversion of the forward recipe.
func (f *KineticsFamily) ReverseRecipe() *recipe.Recipe { return f.reverseRecipe }

// IsMoleculeForbidden reports whether any forbidden pattern matches.
func (f *KineticsFamily) IsMoleculeForbidden(g *molecule.Graph) bool {
	for _, pat := range f.Forbidden {
		if g.IsSubgraphIsomorphic(pat, nil) {
			return true
		}
	}
	return false
}

// IsEntryMatch reports whether the structure matches a tree entry, with
// optional resonance expansion.
func (f *KineticsFamily) IsEntryMatch(g *molecule.Graph, e *tree.Entry, resonance bool) bool {
	return f.Groups.EntryMatches(g, e, resonance)
}

// RootTemplate returns the entries every reaction must match: the template
// reactants when they outnumber the tree tops, the tops otherwise.
func (f *KineticsFamily) RootTemplate() ([]*tree.Entry, error) {
	tops := f.Groups.Top()
	if len(f.ForwardTemplate.Reactants) > len(tops) {
		out := make([]*tree.Entry, 0, len(f.ForwardTemplate.Reactants))
		for _, label := range f.ForwardTemplate.Reactants {
			e, err := f.Groups.Get(label)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeFamilyInconsistent,
					"template names a missing entry")
			}
			out = append(out, e)
		}
		return out, nil
	}
	return tops, nil
}

// templateEntries resolves one direction's reactant-slot entries.
func (f *KineticsFamily) templateEntries(forward bool) ([]*tree.Entry, error) {
	labels := f.ForwardTemplate.Reactants
	arena := f.Groups
	if !forward {
		labels = f.ReverseTemplate.Reactants
		arena = f.ProductGroups
	}
	if len(labels) == 0 || arena == nil {
		return nil, errors.New(errors.ErrCodeFamilyNotReversible,
			"family "+f.Label+" has no template for this direction")
	}
	out := make([]*tree.Entry, 0, len(labels))
	for _, l := range labels {
		e, err := arena.Get(l)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFamilyInconsistent,
				"template names a missing entry")
		}
		out = append(out, e)
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Relabel hooks
//
// A handful of families need hardcoded label surgery around recipe
// application (a second occurrence of a label promoted to a fresh one before
// the recipe runs, undone afterwards).  They register here by family label;
// the mechanism is deliberately not generic.
// ─────────────────────────────────────────────────────────────────────────────

// RelabelHook adjusts the merged structure around recipe application.
type RelabelHook struct {
	Before func(*molecule.Graph) error
	After  func(*molecule.Graph) error
}

var (
	relabelMu    sync.RWMutex
	relabelHooks = map[string]RelabelHook{}
)

// RegisterRelabelHook installs the pre/post relabeling for a family label.
func RegisterRelabelHook(family string, h RelabelHook) {
	relabelMu.Lock()
	defer relabelMu.Unlock()
	relabelHooks[family] = h
}

func lookupRelabelHook(family string) (RelabelHook, bool) {
	relabelMu.RLock()
	defer relabelMu.RUnlock()
	h, ok := relabelHooks[family]
	return h, ok
}

// PromoteSecondLabel builds the standard hook pair: before the recipe, the
// second atom carrying `from` is renamed to `to`; afterwards the rename is
// undone.
func PromoteSecondLabel(from, to string) RelabelHook {
	return RelabelHook{
		Before: func(g *molecule.Graph) error {
			atoms := g.LabeledAtoms()[from]
			if len(atoms) != 2 {
				return errors.InvalidAction("label " + from + " does not occur exactly twice")
			}
			atoms[1].Label = to
			return nil
		},
		After: func(g *molecule.Graph) error {
			atoms := g.LabeledAtoms()[to]
			for _, a := range atoms {
				a.Label = from
			}
			return nil
		},
	}
}
