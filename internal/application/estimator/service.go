// Package estimator orchestrates kinetics resolution for generated
// reactions: literal depository matches first, rate rules next, group
// additivity as the fallback.  It also imports training sets into the rule
// table and fits Blowers-Masel rules per tree node.
package estimator

import (
	"context"
	"sort"
	"time"

	"github.com/turtacn/ReactKin/internal/config"
	"github.com/turtacn/ReactKin/internal/domain/family"
	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/internal/domain/thermo"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// Estimator source names carried on results and reaction tags.
const (
	SourceRateRules       = "rate rules"
	SourceGroupAdditivity = "group additivity"
)

// Result is one resolved kinetics candidate for a queried reaction.
type Result struct {
	Kinetics *kinetics.Arrhenius

	// Source names where the kinetics came from: a depository label, or one
	// of the estimator source constants.
	Source string

	// Entry is the exact rule behind the result, nil for averaged estimates.
	Entry *rules.Entry

	// Match carries the depository hit for depository-sourced results.
	Match *rules.DepositoryMatch
}

// Service resolves kinetics for one family.
type Service struct {
	family       *family.KineticsFamily
	rules        *rules.Table
	depositories []*rules.Depository
	thermo       thermo.Estimator

	cfg    config.EstimationConfig
	worker config.WorkerConfig

	log     logging.Logger
	metrics *prometheus.EngineMetrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		s.log = l.Named("estimator").With(logging.String("family", s.family.Label))
	}
}

// WithMetrics attaches engine metrics.
func WithMetrics(m *prometheus.EngineMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithWorkerConfig sets the worker-pool parameters for batch fitting.
func WithWorkerConfig(w config.WorkerConfig) Option {
	return func(s *Service) { s.worker = w }
}

// NewService assembles an estimation service around a family, its rule table
// and its depositories.  The thermo estimator may be nil when no
// reverse-direction processing is needed.
func NewService(f *family.KineticsFamily, table *rules.Table,
	depositories []*rules.Depository, th thermo.Estimator,
	cfg config.EstimationConfig, opts ...Option) *Service {
	s := &Service{
		family:       f,
		rules:        table,
		depositories: depositories,
		thermo:       th,
		cfg:          cfg,
		worker:       config.WorkerConfig{Concurrency: 1},
		log:          logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetKinetics resolves kinetics for a template reaction.  Depositories are
// searched first when enabled, each contributing its best literal match;
// template estimation follows.  With returnAll every candidate is returned;
// otherwise the list holds the single preferred result and an empty outcome
// is an undeterminable-kinetics error.
func (s *Service) GetKinetics(ctx context.Context, rxn *reaction.TemplateReaction,
	returnAll bool) ([]*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeKineticsUndeterminable, "estimation cancelled")
	}
	start := time.Now()

	var results []*Result
	if s.cfg.UseDepository {
		for _, d := range s.depositories {
			if m := bestDepositoryMatch(d.Match(&rxn.Reaction)); m != nil {
				results = append(results, &Result{
					Kinetics: m.Kinetics,
					Source:   d.Label,
					Entry:    nil,
					Match:    m,
				})
			}
		}
	}

	if est, err := s.estimate(rxn); err == nil {
		results = append(results, est)
	} else if !errors.IsSoftCode(errors.GetCode(err)) {
		return nil, err
	}

	if len(results) == 0 {
		prometheus.RecordUndeterminable(s.metrics, s.family.Label)
		if returnAll {
			return nil, nil
		}
		return nil, errors.Newf(errors.ErrCodeKineticsUndeterminable,
			"no kinetics for %s in %s", rxn.String(), s.family.Label)
	}

	prometheus.RecordEstimate(s.metrics, s.family.Label, results[0].Source,
		len(rxn.Template), time.Since(start))
	if returnAll {
		return results, nil
	}
	return results[:1], nil
}

// estimate runs the template-based estimators: the reaction's Estimator tag
// selects group additivity explicitly, everything else goes through rate
// rules with a group-additivity fallback.
func (s *Service) estimate(rxn *reaction.TemplateReaction) (*Result, error) {
	if rxn.Estimator == SourceGroupAdditivity {
		k, err := s.rules.EstimateGroupAdditivity(s.family.Groups, rxn.Template, rxn.Degeneracy)
		if err != nil {
			return nil, err
		}
		return &Result{Kinetics: k, Source: SourceGroupAdditivity}, nil
	}

	k, entry, err := s.rules.EstimateKinetics(s.family.Groups, rxn.Template, rxn.Degeneracy)
	if err == nil {
		return &Result{Kinetics: k, Source: SourceRateRules, Entry: entry}, nil
	}
	if !errors.IsSoftCode(errors.GetCode(err)) {
		return nil, err
	}
	k, gaErr := s.rules.EstimateGroupAdditivity(s.family.Groups, rxn.Template, rxn.Degeneracy)
	if gaErr != nil {
		return nil, err
	}
	s.log.Debug("rate rules undeterminable, fell back to group additivity",
		logging.String("template", rules.Key(rxn.Template)))
	return &Result{Kinetics: k, Source: SourceGroupAdditivity}, nil
}

// bestDepositoryMatch picks the preferred literal hit: unranked entries lose
// to ranked ones, then the lowest rank wins, then the lowest index.
func bestDepositoryMatch(ms []*rules.DepositoryMatch) *rules.DepositoryMatch {
	if len(ms) == 0 {
		return nil
	}
	pool := make([]*rules.DepositoryMatch, 0, len(ms))
	for _, m := range ms {
		if m.Entry.Rank > 0 {
			pool = append(pool, m)
		}
	}
	if len(pool) == 0 {
		pool = ms
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Entry.Rank != pool[j].Entry.Rank {
			return pool[i].Entry.Rank < pool[j].Entry.Rank
		}
		return pool[i].Entry.Index < pool[j].Entry.Index
	})
	return pool[0]
}
