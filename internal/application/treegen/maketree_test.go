package treegen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/rules"
)

func TestReactionBatches_PreservesAndIsolatesOutliers(t *testing.T) {
	f := fissionFamily(t)
	cfg := tgConfig()
	cfg.MaxBatchSize = 4
	cfg.OutlierFraction = 0.4
	cfg.StratumNum = 2
	cfg.Seed = 7
	b := NewBuilder(f, nil, cfg)

	var rxns []*reaction.TemplateReaction
	for i := 1; i <= 10; i++ {
		rxns = append(rxns, tgRxn(t, tgMethaneAdj, float64(i)*1e3))
	}

	batches := b.ReactionBatches(rxns)
	require.GreaterOrEqual(t, len(batches), 2)

	var flat []*reaction.TemplateReaction
	for _, batch := range batches {
		flat = append(flat, batch...)
	}
	assert.ElementsMatch(t, rxns, flat, "no reaction lost or duplicated")

	assert.Contains(t, batches[0], rxns[0], "slowest outlier in first batch")
	assert.Contains(t, batches[0], rxns[9], "fastest outlier in first batch")
}

func TestReactionBatches_Reproducible(t *testing.T) {
	f := fissionFamily(t)
	cfg := tgConfig()
	cfg.MaxBatchSize = 3
	cfg.Seed = 42
	b := NewBuilder(f, nil, cfg)

	var rxns []*reaction.TemplateReaction
	for i := 1; i <= 9; i++ {
		rxns = append(rxns, tgRxn(t, tgMethaneAdj, float64(i)*1e3))
	}
	first := b.ReactionBatches(rxns)
	second := b.ReactionBatches(rxns)
	require.Equal(t, first, second)
}

func TestPruneTree_RemovesSmallNodes(t *testing.T) {
	f := fissionFamily(t)
	cfg := tgConfig()
	cfg.NewFractionThreshold = 1.0
	cfg.MaxBatchSize = 10
	b := NewBuilder(f, nil, cfg)

	rxns := []*reaction.TemplateReaction{
		tgRxn(t, tgMethaneAdj, 1e10),
		tgRxn(t, tgWaterAdj, 1e14),
	}
	rxnMap := map[string][]*reaction.TemplateReaction{"X_H": rxns}
	require.NoError(t, b.MakeTreeNodes(context.Background(), rxnMap))
	require.Greater(t, f.Groups.Len(), 1)

	require.NoError(t, b.PruneTree(context.Background(), rxns))
	assert.Equal(t, 1, f.Groups.Len(), "under-populated children removed")

	xh, err := f.Groups.Get("X_H")
	require.NoError(t, err)
	assert.False(t, xh.Group.Atoms[0].RegType.Set, "parent bounds cleared for regrowth")
}

func TestCleanTree_ResetsToMergedRoot(t *testing.T) {
	f := fissionFamily(t)
	b := NewBuilder(f, nil, tgConfig())

	table := rules.NewTable(f.Label)
	require.NoError(t, table.Add(&rules.Entry{
		Label:    "X_H",
		Template: []string{"X_H"},
		Kinetics: tgArr(1e10),
		Rank:     5,
	}))

	require.NoError(t, b.CleanTree(table))
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, 1, f.Groups.Len())
	assert.True(t, f.Groups.Has("Root"))
	assert.Equal(t, []string{"Root"}, f.ForwardTemplate.Reactants)

	root, err := f.Groups.Get("Root")
	require.NoError(t, err)
	assert.Len(t, root.Group.Atoms, 2)
}

func TestMakeTree_EndToEnd(t *testing.T) {
	f := fissionFamily(t)
	b := NewBuilder(f, nil, tgConfig())

	forward := func(reactantAdj string, a float64) *rules.DepositoryEntry {
		rxn := tgRxn(t, reactantAdj, a)
		return &rules.DepositoryEntry{Reaction: rxn, Kinetics: tgArr(a), Rank: 3}
	}
	dep := rules.NewDepository("training")
	dep.Add(forward(tgMethaneAdj, 1e10))
	dep.Add(forward(tgWaterAdj, 1e14))

	require.NoError(t, b.MakeTree(context.Background(), dep))
	assert.True(t, f.Groups.Has("X_H_1C"))
	assert.NoError(t, b.CheckTree())
}
