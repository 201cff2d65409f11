// Package treegen grows a family's group tree from its training reactions.
// Nodes are split greedily: every elementary specialization of a node's
// pattern is scored against the reactions matching the node, the best split
// becomes a child, and the loop restarts until every node holds a single
// distinct reaction.  Regularization bounds recorded during the search are
// tightened afterwards so the finished tree stays as general as the data
// allows.
package treegen

import (
	"math"

	"github.com/turtacn/ReactKin/internal/application/estimator"
	"github.com/turtacn/ReactKin/internal/config"
	"github.com/turtacn/ReactKin/internal/domain/family"
	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/thermo"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/prometheus"
)

// Builder grows and maintains the group tree of one family.
type Builder struct {
	family *family.KineticsFamily
	thermo thermo.Estimator
	est    *estimator.Service

	cfg config.TreeConfig
	obj Objective

	log     logging.Logger
	metrics *prometheus.EngineMetrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(b *Builder) {
		b.log = l.Named("treegen").With(logging.String("family", b.family.Label))
	}
}

// WithMetrics attaches engine metrics.
func WithMetrics(m *prometheus.EngineMetrics) Option {
	return func(b *Builder) { b.metrics = m }
}

// WithEstimator attaches the estimation service used to fit rules after the
// tree is grown.  Without it MakeTree stops after regularization.
func WithEstimator(s *estimator.Service) Option {
	return func(b *Builder) { b.est = s }
}

// WithObjective overrides the splitting objective selected by configuration.
func WithObjective(obj Objective) Option {
	return func(b *Builder) { b.obj = obj }
}

// NewBuilder assembles a tree builder for a family.  The thermo estimator is
// needed to orient training reactions; pass nil when every training reaction
// is known to be forward.
func NewBuilder(f *family.KineticsFamily, th thermo.Estimator,
	cfg config.TreeConfig, opts ...Option) *Builder {
	b := &Builder{
		family: f,
		thermo: th,
		cfg:    cfg,
		obj:    objectiveFor(cfg.Objective),
		log:    logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// mergedReactants joins a reaction's reactant structures into one host graph
// for template matching.  Atoms are shared with the sources; callers must not
// mutate the result.
func mergedReactants(rxn *reaction.TemplateReaction) *molecule.Graph {
	graphs := make([]*molecule.Graph, 0, len(rxn.Reactants))
	for _, s := range rxn.Reactants {
		graphs = append(graphs, s.Molecule)
	}
	return molecule.Merge(graphs...)
}

// logRates evaluates ln k(T) for each reaction, the quantity the splitting
// objectives compare.
func logRates(rxns []*reaction.TemplateReaction, T float64) []float64 {
	out := make([]float64, 0, len(rxns))
	for _, rxn := range rxns {
		k := rxn.Kinetics.Rate(T)
		if k <= 0 || math.IsNaN(k) {
			continue
		}
		out = append(out, math.Log(k))
	}
	return out
}

// splitReactions partitions rxns by whether their merged reactants match the
// candidate pattern.
func splitReactions(rxns []*reaction.TemplateReaction,
	grp *molecule.Graph) (matched, rest []*reaction.TemplateReaction) {
	for _, rxn := range rxns {
		if mergedReactants(rxn).IsSubgraphIsomorphic(grp, nil) {
			matched = append(matched, rxn)
		} else {
			rest = append(rest, rxn)
		}
	}
	return matched, rest
}
