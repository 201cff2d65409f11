package estimator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/turtacn/ReactKin/internal/domain/kinetics"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/pkg/errors"
)

// AddKineticsRulesFromTrainingSet turns a training depository into rate
// rules.  Entries whose reactants match the forward template become rules
// directly, with the rate divided by the reaction-path degeneracy.  Entries
// that only match in reverse are re-expressed through the thermo estimator:
// the reverse rate is derived from equilibrium, the reversed reaction is
// re-templated and its degeneracy recomputed.
func (s *Service) AddKineticsRulesFromTrainingSet(ctx context.Context,
	training *rules.Depository) error {
	var reversed []*rules.DepositoryEntry
	for _, e := range training.Entries() {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCodeKineticsUndeterminable,
				"training import cancelled")
		}
		tmpl, err := s.family.ReactionTemplate(&e.Reaction.Reaction)
		if err != nil {
			s.log.Debug("training reaction does not match forward template, queued for reverse",
				logging.Int("entry", e.Index), logging.Err(err))
			reversed = append(reversed, e)
			continue
		}
		data := e.Kinetics.Copy()
		if deg := e.Reaction.Degeneracy; deg > 0 {
			data.ChangeRate(1 / deg)
		}
		s.addOrMerge(&rules.Entry{
			Label:    rules.Key(tmpl),
			Template: tmpl,
			Kinetics: data,
			Rank:     e.Rank,
			Provenance: []rules.Provenance{
				{Source: fmt.Sprintf("%s/%d", training.Label, e.Index), Weight: 1},
			},
			Comment: fmt.Sprintf("from training reaction %d used for [%s]",
				e.Index, rules.Key(tmpl)),
		})
	}

	for _, e := range reversed {
		if s.thermo == nil {
			return errors.New(errors.ErrCodeKineticsUndeterminable,
				"reverse training entries need a thermo estimator")
		}
		fwd := e.Reaction.Reaction
		fwd.Kinetics = e.Kinetics
		revKinetics, err := fwd.GenerateReverseRate(s.thermo)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeKineticsFitFailed,
				fmt.Sprintf("reversing training reaction %d", e.Index))
		}
		rev := &reaction.TemplateReaction{
			Reaction: *fwd.Reversed(),
			Family:   s.family.Label,
		}
		tmpl, err := s.family.ReactionTemplate(&rev.Reaction)
		if err != nil {
			s.log.Error("training reaction matches the template in neither direction",
				logging.Int("entry", e.Index), logging.Err(err))
			return err
		}
		deg, err := s.family.CalculateDegeneracy(rev)
		if err != nil {
			return err
		}
		if deg > 0 {
			revKinetics.ChangeRate(1 / deg)
		}
		s.addOrMerge(&rules.Entry{
			Label:    rules.Key(tmpl),
			Template: tmpl,
			Kinetics: revKinetics,
			Rank:     e.Rank,
			Provenance: []rules.Provenance{
				{Source: fmt.Sprintf("%s/%d", training.Label, e.Index), Weight: 1},
			},
			Comment: fmt.Sprintf("from training reaction %d (reversed) used for [%s]",
				e.Index, rules.Key(tmpl)),
		})
	}
	return nil
}

// addOrMerge inserts a rule, resolving template collisions by keeping the
// better (lower) rank; ties keep the earlier entry.
func (s *Service) addOrMerge(e *rules.Entry) {
	err := s.rules.Add(e)
	if err == nil {
		return
	}
	if !errors.IsCode(err, errors.ErrCodeConflict) {
		s.log.Error("adding rate rule", logging.Err(err),
			logging.String("template", rules.Key(e.Template)))
		return
	}
	existing := s.rules.Get(e.Template)
	if existing != nil && effectiveRank(e.Rank) < effectiveRank(existing.Rank) {
		s.rules.Remove(e.Template)
		if err := s.rules.Add(e); err != nil {
			s.log.Error("replacing rate rule", logging.Err(err),
				logging.String("template", rules.Key(e.Template)))
			return
		}
		s.log.Debug("rate rule replaced by better-ranked training entry",
			logging.String("template", rules.Key(e.Template)),
			logging.Int("rank", e.Rank))
		return
	}
	s.log.Debug("rate rule collision kept the existing entry",
		logging.String("template", rules.Key(e.Template)))
}

// effectiveRank orders ranks with 0 (unranked) as the worst.
func effectiveRank(rank int) int {
	if rank <= 0 {
		return int(^uint(0) >> 1)
	}
	return rank
}

// MakeBMRules fits a Blowers-Masel rule for every tree node that has
// matching training reactions, writing rank-11 entries keyed by the node
// label.  Fits run on a worker pool in randomized order; results are
// reassembled in tree order so indices stay deterministic.
func (s *Service) MakeBMRules(ctx context.Context,
	templateRxnMap map[string][]*reaction.TemplateReaction) error {
	type job struct {
		idx   int
		label string
		rxns  []*reaction.TemplateReaction
	}
	var jobs []job
	for _, e := range s.family.Groups.Entries() {
		if rxns := templateRxnMap[e.Label]; len(rxns) > 0 {
			jobs = append(jobs, job{idx: len(jobs), label: e.Label, rxns: rxns})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	order := rand.New(rand.NewSource(s.cfg.Seed)).Perm(len(jobs))
	tasks := make(chan job)
	fitted := make([]*kinetics.ArrheniusBM, len(jobs))
	fitErrs := make([]error, len(jobs))

	workers := s.worker.Concurrency
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range tasks {
				fitted[j.idx], fitErrs[j.idx] = s.fitNode(j.label, j.rxns)
			}
		}()
	}
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			break
		}
		tasks <- jobs[i]
	}
	close(tasks)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeKineticsFitFailed, "rule fitting cancelled")
	}

	for i, j := range jobs {
		if fitErrs[i] != nil {
			s.log.Warn("skipping unfittable node", logging.String("node", j.label),
				logging.Err(fitErrs[i]))
			continue
		}
		bm := fitted[i]
		prov := make([]rules.Provenance, len(j.rxns))
		for k, rxn := range j.rxns {
			prov[k] = rules.Provenance{Source: rxn.String(), Weight: 1 / float64(len(j.rxns))}
		}
		comment := fmt.Sprintf("BM rule fitted to %d training reactions at node %s",
			len(j.rxns), j.label)
		if bm.Uncertainty != nil {
			comment += fmt.Sprintf("; total standard deviation in ln(k): %.4g",
				bm.Uncertainty.ExpectedLogUncertainty()/0.398)
		}
		bm.Comment = comment
		s.addOrMerge(&rules.Entry{
			Label:      j.label,
			Template:   []string{j.label},
			BM:         bm,
			Rank:       rules.AveragedRank,
			Provenance: prov,
			Comment:    comment,
		})
	}
	return nil
}

// fitNode fits one node's Blowers-Masel expression from its matching
// training reactions.
func (s *Service) fitNode(label string, rxns []*reaction.TemplateReaction) (*kinetics.ArrheniusBM, error) {
	if s.thermo == nil {
		return nil, errors.New(errors.ErrCodeKineticsFitFailed,
			"fitting needs a thermo estimator for reaction enthalpies")
	}
	data := make([]kinetics.FitDatum, 0, len(rxns))
	for _, rxn := range rxns {
		if rxn.Kinetics == nil {
			return nil, errors.Newf(errors.ErrCodeKineticsFitFailed,
				"training reaction %s has no kinetics", rxn.String())
		}
		dh, err := rxn.Enthalpy(s.thermo, 298.15)
		if err != nil {
			return nil, err
		}
		data = append(data, kinetics.FitDatum{Kinetics: rxn.Kinetics, DHrxn: dh})
	}
	w0, err := bondWell(s.family.ForwardRecipe, &rxns[0].Reaction)
	if err != nil {
		return nil, err
	}
	return kinetics.FitToReactions(data, w0, label)
}
