package treegen

import (
	"context"
	"sync"

	"github.com/turtacn/ReactKin/internal/domain/reaction"
	"github.com/turtacn/ReactKin/internal/domain/tree"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/prometheus"
)

// subtreeResult carries one finished parallel subtree back for merging.
// entries is in insertion order so parents always precede children; the
// first entry is the detached node itself, holding any bounds recorded
// while growing.
type subtreeResult struct {
	root    string
	entries []*tree.Entry
	rxnMap  map[string][]*reaction.TemplateReaction
	err     error
}

// MakeTreeNodes grows the family tree until every node's reactions are
// indistinguishable.  Each pass scans the arena for a splitable node, splits
// it, and restarts; nodes with enough reactions are detached into
// goroutine-local arenas and grown concurrently, then merged back by label.
func (b *Builder) MakeTreeNodes(ctx context.Context,
	rxnMap map[string][]*reaction.TemplateReaction) error {
	arena := b.family.Groups
	T := b.evalTemp()
	workers := b.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []*subtreeResult
	)
	sem := make(chan struct{}, workers)
	terminal := make(map[string]bool)
	detached := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		extended := false
		for _, e := range arena.Entries() {
			if e.IsLogicOr() || e.Group == nil || terminal[e.Label] || detached[e.Label] {
				continue
			}
			rxns := rxnMap[e.Label]
			if len(rxns) < 2 {
				continue
			}

			if workers > 1 && len(rxns) >= b.cfg.MinRxnsToSpawn &&
				b.splitableCount(arena, rxnMap, terminal, detached) > b.cfg.MinSplitableEntryNum {
				if b.spawnSubtree(ctx, e, rxns, T, sem, &wg, &mu, &results) {
					detached[e.Label] = true
					extended = true
					continue
				}
			}

			changed, err := b.ExtendNode(e, arena, rxnMap, T)
			if err != nil {
				wg.Wait()
				return err
			}
			if changed {
				extended = true
				break
			}
			terminal[e.Label] = true
		}
		if !extended {
			break
		}
	}

	wg.Wait()
	prometheus.SetActiveTreeWorkers(b.metrics, b.family.Label, 0)

	for _, res := range results {
		if res.err != nil {
			return res.err
		}
		for i, e := range res.entries {
			if i == 0 {
				orig, err := arena.Get(res.root)
				if err != nil {
					return err
				}
				orig.Group = e.Group
				continue
			}
			if err := arena.AddEntry(e); err != nil {
				return err
			}
		}
		for label, rxns := range res.rxnMap {
			rxnMap[label] = rxns
		}
	}

	arena.RenumberIndices()
	b.recordNodeCounts()
	return nil
}

// spawnSubtree detaches the node into a private arena and grows it on a
// worker goroutine.  It reports false when no worker slot is free, in which
// case the caller splits the node inline instead.
func (b *Builder) spawnSubtree(ctx context.Context, e *tree.Entry,
	rxns []*reaction.TemplateReaction, T float64, sem chan struct{},
	wg *sync.WaitGroup, mu *sync.Mutex, results *[]*subtreeResult) bool {
	select {
	case sem <- struct{}{}:
	default:
		return false
	}

	groupCopy, _ := e.Group.Copy()
	local := tree.New()
	seed := &tree.Entry{Index: -1, Label: e.Label, Group: groupCopy}
	if err := local.AddEntry(seed); err != nil {
		<-sem
		return false
	}
	localMap := map[string][]*reaction.TemplateReaction{e.Label: rxns}

	b.log.Info("growing subtree on worker",
		logging.String("node", e.Label),
		logging.Int("reactions", len(rxns)))
	prometheus.SetActiveTreeWorkers(b.metrics, b.family.Label, len(sem))

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() { <-sem }()
		res := &subtreeResult{root: seed.Label, rxnMap: localMap}
		res.err = b.growSequential(ctx, local, localMap, T)
		res.entries = local.Entries()
		mu.Lock()
		*results = append(*results, res)
		mu.Unlock()
	}()
	return true
}

// growSequential splits every splitable node of the arena until none remain.
func (b *Builder) growSequential(ctx context.Context, arena *tree.Tree,
	rxnMap map[string][]*reaction.TemplateReaction, T float64) error {
	terminal := make(map[string]bool)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		extended := false
		for _, e := range arena.Entries() {
			if e.IsLogicOr() || e.Group == nil || terminal[e.Label] {
				continue
			}
			if len(rxnMap[e.Label]) < 2 {
				continue
			}
			changed, err := b.ExtendNode(e, arena, rxnMap, T)
			if err != nil {
				return err
			}
			if changed {
				extended = true
				break
			}
			terminal[e.Label] = true
		}
		if !extended {
			return nil
		}
	}
}

func (b *Builder) splitableCount(arena *tree.Tree,
	rxnMap map[string][]*reaction.TemplateReaction,
	terminal, detached map[string]bool) int {
	n := 0
	for _, e := range arena.Entries() {
		if e.IsLogicOr() || e.Group == nil || terminal[e.Label] || detached[e.Label] {
			continue
		}
		if len(rxnMap[e.Label]) > 1 {
			n++
		}
	}
	return n
}

func (b *Builder) evalTemp() float64 {
	if b.cfg.EvalTemp > 0 {
		return b.cfg.EvalTemp
	}
	return 1000
}

func (b *Builder) recordNodeCounts() {
	groups, logic := 0, 0
	for _, e := range b.family.Groups.Entries() {
		if e.IsLogicOr() {
			logic++
		} else {
			groups++
		}
	}
	prometheus.SetTreeNodes(b.metrics, b.family.Label, "group", groups)
	prometheus.SetTreeNodes(b.metrics, b.family.Label, "logic", logic)
}
