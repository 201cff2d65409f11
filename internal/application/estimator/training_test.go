package estimator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ReactKin/internal/config"
	"github.com/turtacn/ReactKin/internal/domain/family"
	"github.com/turtacn/ReactKin/internal/domain/molecule"
	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/recipe"
	"github.com/turtacn/ReactKin/internal/domain/rules"
	"github.com/turtacn/ReactKin/internal/domain/tree"
)

// fissionTestFamily breaks one single bond homolytically; its reverse
// direction is radical recombination.
func fissionTestFamily(t *testing.T, label string) *family.KineticsFamily {
	t.Helper()
	rcp, err := recipe.New(
		recipe.Action{Kind: recipe.BreakBond, Center1: "*1", Center2: "*2", Order: 1},
		recipe.Action{Kind: recipe.GainRadical, Center1: "*1", Change: 1},
		recipe.Action{Kind: recipe.GainRadical, Center1: "*2", Change: 1},
	)
	require.NoError(t, err)

	groups := tree.New()
	require.NoError(t, groups.AddEntry(&tree.Entry{Label: "R_bond", Group: molecule.MustFromAdjacencyList(`
1 *1 R u0 {2,S}
2 *2 R u0 {1,S}
`, true)}))

	f := family.New(label, family.Template{Reactants: []string{"R_bond"}}, rcp, groups)
	require.NoError(t, f.GenerateProductTemplate())
	return f
}

func TestAddKineticsRulesFromTrainingSet_Forward(t *testing.T) {
	f := abstractionFamily(t, "training_forward")
	table := rules.NewTable(f.Label)
	svc := NewService(f, table, nil, nil, config.EstimationConfig{})

	training := rules.NewDepository("training")
	rxn := queryReaction(t, f)
	rxn.Degeneracy = 4
	training.Add(&rules.DepositoryEntry{
		Label:    "CH4+OH",
		Reaction: rxn,
		Kinetics: arr(4e10),
		Rank:     3,
	})

	require.NoError(t, svc.AddKineticsRulesFromTrainingSet(context.Background(), training))

	rule := table.Get([]string{"C_H", "O_rad"})
	require.NotNil(t, rule)
	assert.Equal(t, 3, rule.Rank)
	// The stored rate is per reaction path.
	assert.InDelta(t, 1e10, rule.Kinetics.A, 1e-3)
	assert.Contains(t, rule.Comment, "training reaction")
	require.Len(t, rule.Provenance, 1)
	assert.Equal(t, "training/1", rule.Provenance[0].Source)
}

func TestAddKineticsRulesFromTrainingSet_KeepsBetterRank(t *testing.T) {
	f := abstractionFamily(t, "training_collision")
	table := rules.NewTable(f.Label)
	svc := NewService(f, table, nil, nil, config.EstimationConfig{})

	training := rules.NewDepository("training")
	worse := queryReaction(t, f)
	training.Add(&rules.DepositoryEntry{Label: "worse", Reaction: worse, Kinetics: arr(1e9), Rank: 5})
	better := queryReaction(t, f)
	training.Add(&rules.DepositoryEntry{Label: "better", Reaction: better, Kinetics: arr(7e10), Rank: 2})
	unranked := queryReaction(t, f)
	training.Add(&rules.DepositoryEntry{Label: "unranked", Reaction: unranked, Kinetics: arr(5e12), Rank: 0})

	require.NoError(t, svc.AddKineticsRulesFromTrainingSet(context.Background(), training))

	require.Equal(t, 1, table.Len())
	rule := table.Get([]string{"C_H", "O_rad"})
	require.NotNil(t, rule)
	assert.Equal(t, 2, rule.Rank)
	assert.InDelta(t, 7e10, rule.Kinetics.A, 1e-3)
}

func TestAddKineticsRulesFromTrainingSet_ReverseEntry(t *testing.T) {
	f := fissionTestFamily(t, "training_reverse")
	table := rules.NewTable(f.Label)
	th := abstractionThermo(t)
	svc := NewService(f, table, nil, th, config.EstimationConfig{})

	// Recombination direction: does not match the forward (fission)
	// template, so the rule must come from the reversed reaction.
	recombination := &reaction.TemplateReaction{
		Reaction: *reaction.NewReaction(
			[]*reaction.Species{estSp(t, estMethylAdj, "CH3"), estSp(t, estHAtomAdj, "H")},
			[]*reaction.Species{estSp(t, estMethaneAdj, "CH4")}),
		Family: f.Label,
	}
	training := rules.NewDepository("training")
	training.Add(&rules.DepositoryEntry{
		Label:    "CH3+H",
		Reaction: recombination,
		Kinetics: arr(1e13),
		Rank:     4,
	})

	require.NoError(t, svc.AddKineticsRulesFromTrainingSet(context.Background(), training))

	rule := table.Get([]string{"R_bond"})
	require.NotNil(t, rule)
	assert.Equal(t, 4, rule.Rank)
	assert.Contains(t, rule.Comment, "reversed")
	assert.Greater(t, rule.Kinetics.A, 0.0)
}

func TestMakeBMRules(t *testing.T) {
	f := abstractionFamily(t, "bm_rules")
	table := rules.NewTable(f.Label)
	th := abstractionThermo(t)
	svc := NewService(f, table, nil, th, config.EstimationConfig{},
		WithWorkerConfig(config.WorkerConfig{Concurrency: 4}))

	r1 := abstractionReaction(t, f, 1e10)
	r2 := abstractionReaction(t, f, 4e10)
	templateRxnMap := map[string][]*reaction.TemplateReaction{
		"X_H": {r1, r2},
		"C_H": {r1, r2},
	}

	require.NoError(t, svc.MakeBMRules(context.Background(), templateRxnMap))

	for _, label := range []string{"X_H", "C_H"} {
		rule := table.Get([]string{label})
		require.NotNil(t, rule, label)
		assert.Equal(t, rules.AveragedRank, rule.Rank)
		require.NotNil(t, rule.BM)
		assert.Greater(t, rule.BM.A, 0.0)
		assert.True(t, strings.Contains(rule.Comment, "fitted to 2 training reactions"))
		require.Len(t, rule.Provenance, 2)
		assert.InDelta(t, 0.5, rule.Provenance[0].Weight, 1e-12)
	}
	require.NoError(t, table.Validate())

	// Nodes without matches stay empty.
	assert.Nil(t, table.Get([]string{"O_rad"}))
}

func TestMakeBMRules_SeededRunsIdentical(t *testing.T) {
	f := abstractionFamily(t, "bm_seeded")
	th := abstractionThermo(t)
	r1 := abstractionReaction(t, f, 1e10)
	r2 := abstractionReaction(t, f, 4e10)
	templateRxnMap := map[string][]*reaction.TemplateReaction{
		"X_H": {r1, r2},
		"C_H": {r1, r2},
	}

	fit := func() *rules.Table {
		table := rules.NewTable(f.Label)
		svc := NewService(f, table, nil, th,
			config.EstimationConfig{Seed: 17},
			WithWorkerConfig(config.WorkerConfig{Concurrency: 4}))
		require.NoError(t, svc.MakeBMRules(context.Background(), templateRxnMap))
		return table
	}

	first, second := fit(), fit()
	require.Equal(t, first.Len(), second.Len())
	for _, label := range []string{"X_H", "C_H"} {
		a, b := first.Get([]string{label}), second.Get([]string{label})
		require.NotNil(t, a, label)
		require.NotNil(t, b, label)
		assert.Equal(t, a.Index, b.Index, label)
		assert.Equal(t, a.BM.A, b.BM.A, label)
		assert.Equal(t, a.BM.E0, b.BM.E0, label)
	}
}
