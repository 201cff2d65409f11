package estimator

import (
	"context"
	"math"
	"math/rand"

	"github.com/turtacn/ReactKin/internal/config"
	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// ValidationReport carries per-reaction cross-validation outcomes.
type ValidationReport struct {
	// Errors maps each held-out reaction to ln(k_estimated / k_known) at the
	// evaluation temperature.
	Errors map[*reaction.TemplateReaction]float64

	// Uncertainties maps reactions to the fitted uncertainty of the node
	// their estimate came from, when a fitted rule exists there.
	Uncertainties map[*reaction.TemplateReaction]*kinetics.RateUncertainty
}

// CrossValidate runs K-fold cross validation over the reactions matched at
// the tree root.  Each held-out reaction descends to its deepest matching
// node, walks up until more than one reaction outside the test fold remains,
// then a Blowers-Masel expression is refit without the fold and compared
// against the known rate.  Fold assignment is reproducible for a fixed
// RandomState; Folds of zero (or beyond the corpus size) means
// leave-one-out.
func (s *Service) CrossValidate(ctx context.Context,
	templateRxnMap map[string][]*reaction.TemplateReaction,
	vcfg config.ValidationConfig) (*ValidationReport, error) {
	roots, err := s.family.RootTemplate()
	if err != nil {
		return nil, err
	}
	root := roots[0]
	rxns := templateRxnMap[root.Label]
	if len(rxns) < 2 {
		return nil, errors.Newf(errors.ErrCodeKineticsFitFailed,
			"cross validation needs at least two reactions at %s, have %d",
			root.Label, len(rxns))
	}

	T := vcfg.EvalTemp
	if T <= 0 {
		T = 1000
	}
	folds := vcfg.Folds
	if folds <= 0 || folds > len(rxns) {
		folds = len(rxns)
	}

	perm := rand.New(rand.NewSource(vcfg.RandomState)).Perm(len(rxns))
	report := &ValidationReport{
		Errors:        map[*reaction.TemplateReaction]float64{},
		Uncertainties: map[*reaction.TemplateReaction]*kinetics.RateUncertainty{},
	}
	for fold := 0; fold < folds; fold++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeKineticsFitFailed,
				"cross validation cancelled")
		}
		test := map[*reaction.TemplateReaction]bool{}
		for i := fold; i < len(perm); i += folds {
			test[rxns[perm[i]]] = true
		}
		for rxn := range test {
			if err := s.validateOne(rxn, test, root.Label, templateRxnMap, T,
				vcfg.Iters, report); err != nil {
				return nil, err
			}
		}
	}
	return report, nil
}

func (s *Service) validateOne(rxn *reaction.TemplateReaction,
	test map[*reaction.TemplateReaction]bool, rootLabel string,
	templateRxnMap map[string][]*reaction.TemplateReaction, T float64,
	iters int, report *ValidationReport) error {
	if rxn.Kinetics == nil {
		return errors.Newf(errors.ErrCodeKineticsFitFailed,
			"reaction %s has no kinetics to validate against", rxn.String())
	}
	known := rxn.Kinetics.Rate(T)

	// Deepest node whose match list still contains the reaction.
	label := rootLabel
descend:
	for {
		e, err := s.family.Groups.Get(label)
		if err != nil {
			return err
		}
		for _, child := range e.Children {
			if containsReaction(templateRxnMap[child], rxn) {
				label = child
				continue descend
			}
		}
		break
	}

	// Generalize until enough reactions outside the fold remain.
	for {
		e, err := s.family.Groups.Get(label)
		if err != nil {
			return err
		}
		if e.Parent == "" || countOutside(templateRxnMap[label], test) > 1 {
			break
		}
		label = e.Parent
	}
	for q := 0; q < iters; q++ {
		e, err := s.family.Groups.Get(label)
		if err != nil || e.Parent == "" {
			break
		}
		label = e.Parent
	}

	if rule := s.rules.Get([]string{label}); rule != nil && rule.BM != nil &&
		rule.BM.Uncertainty != nil {
		report.Uncertainties[rxn] = rule.BM.Uncertainty
	}

	var train []*reaction.TemplateReaction
	for _, r := range templateRxnMap[label] {
		if !test[r] {
			train = append(train, r)
		}
	}
	if len(train) == 0 {
		return errors.New(errors.ErrCodeKineticsFitFailed,
			"only one rate expression reachable in the tree at "+label)
	}

	bm, err := s.fitNode(label, train)
	if err != nil {
		return err
	}
	dh, err := rxn.Enthalpy(s.thermo, T)
	if err != nil {
		return err
	}
	estimated := bm.ToArrhenius(dh).Rate(T)
	report.Errors[rxn] = math.Log(estimated / known)
	s.log.Debug("cross-validated reaction",
		logging.String("node", label),
		logging.Float64("ln_ratio", report.Errors[rxn]))
	return nil
}

func containsReaction(list []*reaction.TemplateReaction, rxn *reaction.TemplateReaction) bool {
	for _, r := range list {
		if r == rxn {
			return true
		}
	}
	return false
}

func countOutside(list []*reaction.TemplateReaction,
	test map[*reaction.TemplateReaction]bool) int {
	n := 0
	for _, r := range list {
		if !test[r] {
			n++
		}
	}
	return n
}
