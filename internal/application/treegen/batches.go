package treegen

import (
	"context"
	"math/rand"
	"sort"

	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/prometheus"
)

// ReactionBatches splits the training reactions into batches for cascade
// tree generation.  The fastest and slowest outliers always land in the
// first batch; the remainder is sorted by rate, cut into strata, and each
// batch samples the strata round-robin with a seeded shuffle inside each
// stratum so runs are reproducible.
func (b *Builder) ReactionBatches(rxns []*reaction.TemplateReaction) [][]*reaction.TemplateReaction {
	if len(rxns) == 0 {
		return nil
	}
	maxBatch := b.cfg.MaxBatchSize
	if maxBatch <= 0 || maxBatch >= len(rxns) {
		return [][]*reaction.TemplateReaction{rxns}
	}
	T := b.evalTemp()

	sorted := make([]*reaction.TemplateReaction, len(rxns))
	copy(sorted, rxns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Kinetics.Rate(T) < sorted[j].Kinetics.Rate(T)
	})

	outlierNum := int(b.cfg.OutlierFraction * float64(len(sorted)) / 2)
	var first []*reaction.TemplateReaction
	body := sorted
	if outlierNum > 0 {
		first = append(first, sorted[len(sorted)-outlierNum:]...)
		first = append(first, sorted[:outlierNum]...)
		body = sorted[outlierNum : len(sorted)-outlierNum]
	}

	stratumNum := b.cfg.StratumNum
	if stratumNum < 1 {
		stratumNum = 1
	}
	rng := rand.New(rand.NewSource(b.cfg.Seed))
	strata := make([][]*reaction.TemplateReaction, 0, stratumNum)
	interval := len(body) / stratumNum
	for i := 0; i < stratumNum; i++ {
		lo := interval * i
		hi := interval * (i + 1)
		if i == stratumNum-1 {
			hi = len(body)
		}
		stratum := make([]*reaction.TemplateReaction, hi-lo)
		copy(stratum, body[lo:hi])
		rng.Shuffle(len(stratum), func(a, c int) {
			stratum[a], stratum[c] = stratum[c], stratum[a]
		})
		strata = append(strata, stratum)
	}

	batches := [][]*reaction.TemplateReaction{first}
	cur := 0
	for {
		drained := true
		for i := range strata {
			if len(strata[i]) == 0 {
				continue
			}
			drained = false
			last := len(strata[i]) - 1
			batches[cur] = append(batches[cur], strata[i][last])
			strata[i] = strata[i][:last]
			if len(batches[cur]) >= maxBatch {
				cur++
				batches = append(batches, nil)
			}
		}
		if drained {
			break
		}
	}

	var out [][]*reaction.TemplateReaction
	for _, batch := range batches {
		if len(batch) > 0 {
			out = append(out, batch)
		}
	}
	return out
}

// PruneTree removes nodes that collect too few of the current reactions and
// clears their parent's recorded bounds, so the next growth pass can
// re-optimize those regions with the newly arrived data.  The retention
// limit is the configured new-arrival fraction of a full batch.
func (b *Builder) PruneTree(ctx context.Context,
	rxns []*reaction.TemplateReaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	matches, err := b.ReactionMatches(rxns, false)
	if err != nil {
		return err
	}
	limit := int(b.cfg.NewFractionThreshold * float64(b.cfg.MaxBatchSize))
	if limit < 1 {
		limit = 1
	}

	arena := b.family.Groups
	pruned := 0
	for _, e := range arena.Entries() {
		if !arena.Has(e.Label) || e.Parent == "" {
			continue
		}
		parent, err := arena.Get(e.Parent)
		if err != nil || parent.Group == nil {
			continue
		}
		if len(matches[parent.Label]) < limit {
			if err := arena.RemoveSubtree(e.Label); err != nil {
				return err
			}
			parent.Group.ClearRegDims()
			pruned++
		}
	}
	if pruned > 0 {
		prometheus.RecordPruned(b.metrics, b.family.Label, pruned)
		b.log.Info("pruned under-populated nodes before next batch",
			logging.Int("nodes", pruned),
			logging.Int("limit", limit))
	}
	return nil
}

// GenerateTree grows the tree from the given reactions.  Small sets are
// grown in one pass; larger sets are introduced batch by batch, pruning
// volatile nodes between batches so early splits can be revisited with more
// data.
func (b *Builder) GenerateTree(ctx context.Context,
	rxns []*reaction.TemplateReaction) error {
	if b.cfg.MaxBatchSize <= 0 || len(rxns) <= b.cfg.MaxBatchSize {
		matches, err := b.ReactionMatches(rxns, true)
		if err != nil {
			return err
		}
		return b.MakeTreeNodes(ctx, matches)
	}

	batches := b.ReactionBatches(rxns)
	var active []*reaction.TemplateReaction
	for i, batch := range batches {
		active = append(active, batch...)
		b.log.Info("growing tree from batch",
			logging.Int("batch", i+1),
			logging.Int("batches", len(batches)),
			logging.Int("reactions", len(active)))
		matches, err := b.ReactionMatches(active, true)
		if err != nil {
			return err
		}
		if err := b.MakeTreeNodes(ctx, matches); err != nil {
			return err
		}
		if i != len(batches)-1 {
			if err := b.PruneTree(ctx, active); err != nil {
				return err
			}
		}
	}
	return nil
}
