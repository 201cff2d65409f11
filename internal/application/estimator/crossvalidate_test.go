package estimator

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ReactKin/internal/config"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/rules"
)

func TestCrossValidate_LeaveOneOut(t *testing.T) {
	f := abstractionFamily(t, "cv_loo")
	table := rules.NewTable(f.Label)
	th := abstractionThermo(t)
	svc := NewService(f, table, nil, th, config.EstimationConfig{})

	r1 := abstractionReaction(t, f, 1e10)
	r2 := abstractionReaction(t, f, 2e10)
	r3 := abstractionReaction(t, f, 4e10)
	templateRxnMap := map[string][]*reaction.TemplateReaction{
		"X_H": {r1, r2, r3},
	}
	require.NoError(t, svc.MakeBMRules(context.Background(), templateRxnMap))

	vcfg := config.ValidationConfig{Folds: 0, EvalTemp: 1000, RandomState: 7}
	report, err := svc.CrossValidate(context.Background(), templateRxnMap, vcfg)
	require.NoError(t, err)

	require.Len(t, report.Errors, 3)
	for rxn, lnRatio := range report.Errors {
		assert.False(t, math.IsNaN(lnRatio) || math.IsInf(lnRatio, 0), rxn.String())
		// Held-out rates span a factor of four, so no estimate can be more
		// than that far off in either direction.
		assert.Less(t, math.Abs(lnRatio), math.Log(10.0))
	}
	// The fitted root rule supplies every reaction's uncertainty.
	assert.Len(t, report.Uncertainties, 3)
}

func TestCrossValidate_Reproducible(t *testing.T) {
	f := abstractionFamily(t, "cv_seeded")
	table := rules.NewTable(f.Label)
	th := abstractionThermo(t)
	svc := NewService(f, table, nil, th, config.EstimationConfig{})

	rxns := []*reaction.TemplateReaction{
		abstractionReaction(t, f, 1e10),
		abstractionReaction(t, f, 3e10),
		abstractionReaction(t, f, 5e10),
		abstractionReaction(t, f, 8e10),
	}
	templateRxnMap := map[string][]*reaction.TemplateReaction{"X_H": rxns}

	vcfg := config.ValidationConfig{Folds: 2, EvalTemp: 1000, RandomState: 42}
	first, err := svc.CrossValidate(context.Background(), templateRxnMap, vcfg)
	require.NoError(t, err)
	second, err := svc.CrossValidate(context.Background(), templateRxnMap, vcfg)
	require.NoError(t, err)

	require.Len(t, first.Errors, 4)
	for rxn, v := range first.Errors {
		assert.InDelta(t, v, second.Errors[rxn], 1e-12)
	}
}

func TestCrossValidate_FoldPerReaction(t *testing.T) {
	f := abstractionFamily(t, "cv_folds")
	svc := NewService(f, rules.NewTable(f.Label), nil, abstractionThermo(t),
		config.EstimationConfig{})

	rxns := []*reaction.TemplateReaction{
		abstractionReaction(t, f, 1e10),
		abstractionReaction(t, f, 2e10),
		abstractionReaction(t, f, 4e10),
		abstractionReaction(t, f, 8e10),
	}
	templateRxnMap := map[string][]*reaction.TemplateReaction{"X_H": rxns}

	// Folds equal to the corpus size degenerates to leave-one-out: every
	// reaction is held out exactly once and gets exactly one log-ratio error.
	vcfg := config.ValidationConfig{Folds: 4, EvalTemp: 1000, RandomState: 3}
	report, err := svc.CrossValidate(context.Background(), templateRxnMap, vcfg)
	require.NoError(t, err)

	require.Len(t, report.Errors, 4)
	for _, rxn := range rxns {
		lnRatio, ok := report.Errors[rxn]
		require.True(t, ok, rxn.String())
		assert.False(t, math.IsNaN(lnRatio) || math.IsInf(lnRatio, 0), rxn.String())
	}
}

func TestCrossValidate_NeedsCorpus(t *testing.T) {
	f := abstractionFamily(t, "cv_small")
	svc := NewService(f, rules.NewTable(f.Label), nil, abstractionThermo(t),
		config.EstimationConfig{})

	one := map[string][]*reaction.TemplateReaction{
		"X_H": {abstractionReaction(t, f, 1e10)},
	}
	_, err := svc.CrossValidate(context.Background(), one, config.ValidationConfig{})
	assert.Error(t, err)
}
