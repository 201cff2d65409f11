package prometheus

import (
	"time"
)

// EngineMetrics holds all metrics recorded by the kinetics engine.
type EngineMetrics struct {
	// Reaction generation
	ReactionsGeneratedTotal  CounterVec
	ReactionsForbiddenTotal  CounterVec
	GenerationDuration       HistogramVec
	DegeneracyCalcDuration   HistogramVec

	// Rate estimation
	RuleLookupsTotal       CounterVec
	RuleAveragingDepth     HistogramVec
	UndeterminableTotal    CounterVec
	EstimationDuration     HistogramVec

	// Tree construction
	TreeNodesTotal         GaugeVec
	ExtensionsEvaluated    CounterVec
	NodeSplitDuration      HistogramVec
	ActiveTreeWorkers      GaugeVec
	ReactionsPrunedTotal   CounterVec
	TreeBuildDuration      HistogramVec

	// Persistence
	FamilyLoadDuration HistogramVec
	FamilySaveDuration HistogramVec

	// Health
	ErrorsTotal CounterVec
}

// Default buckets
var (
	DefaultOpDurationBuckets    = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultBuildDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600}
	DefaultDepthBuckets         = []float64{0, 1, 2, 3, 4, 5, 6, 8, 10, 15}
)

// NewEngineMetrics registers all engine metrics on the collector.
func NewEngineMetrics(collector MetricsCollector) *EngineMetrics {
	m := &EngineMetrics{}

	// Generation
	m.ReactionsGeneratedTotal = collector.RegisterCounter("reactions_generated_total", "Reactions produced by template application", "family", "direction")
	m.ReactionsForbiddenTotal = collector.RegisterCounter("reactions_forbidden_total", "Candidate reactions rejected by forbidden structures", "family")
	m.GenerationDuration = collector.RegisterHistogram("generation_duration_seconds", "Reaction generation duration per reactant set", DefaultOpDurationBuckets, "family")
	m.DegeneracyCalcDuration = collector.RegisterHistogram("degeneracy_calc_duration_seconds", "Degeneracy calculation duration", DefaultOpDurationBuckets, "family")

	// Estimation
	m.RuleLookupsTotal = collector.RegisterCounter("rule_lookups_total", "Rate rule lookups", "family", "source")
	m.RuleAveragingDepth = collector.RegisterHistogram("rule_averaging_depth", "Tree levels climbed during rule averaging", DefaultDepthBuckets, "family")
	m.UndeterminableTotal = collector.RegisterCounter("kinetics_undeterminable_total", "Estimates that found no usable kinetics", "family")
	m.EstimationDuration = collector.RegisterHistogram("estimation_duration_seconds", "Kinetics estimation duration", DefaultOpDurationBuckets, "family")

	// Tree construction
	m.TreeNodesTotal = collector.RegisterGauge("tree_nodes_total", "Nodes in the group tree", "family", "kind")
	m.ExtensionsEvaluated = collector.RegisterCounter("extensions_evaluated_total", "Candidate group extensions evaluated", "family", "kind")
	m.NodeSplitDuration = collector.RegisterHistogram("node_split_duration_seconds", "Duration of a single node extension", DefaultOpDurationBuckets, "family")
	m.ActiveTreeWorkers = collector.RegisterGauge("active_tree_workers", "Goroutines building subtrees", "family")
	m.ReactionsPrunedTotal = collector.RegisterCounter("reactions_pruned_total", "Training reactions removed during pruning", "family")
	m.TreeBuildDuration = collector.RegisterHistogram("tree_build_duration_seconds", "Full tree construction duration", DefaultBuildDurationBuckets, "family")

	// Persistence
	m.FamilyLoadDuration = collector.RegisterHistogram("family_load_duration_seconds", "Family load duration", DefaultOpDurationBuckets, "family")
	m.FamilySaveDuration = collector.RegisterHistogram("family_save_duration_seconds", "Family save duration", DefaultOpDurationBuckets, "family")

	// Health
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// RecordGeneration records the outcome of one reactant-set generation pass.
func RecordGeneration(m *EngineMetrics, family, direction string, produced, forbidden int, duration time.Duration) {
	if m == nil {
		return
	}
	m.ReactionsGeneratedTotal.WithLabelValues(family, direction).Add(float64(produced))
	if forbidden > 0 {
		m.ReactionsForbiddenTotal.WithLabelValues(family).Add(float64(forbidden))
	}
	m.GenerationDuration.WithLabelValues(family).Observe(duration.Seconds())
}

// RecordEstimate records one kinetics estimation, including the lookup source
// ("depository" or "rules") and how many levels of averaging were needed.
func RecordEstimate(m *EngineMetrics, family, source string, depth int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RuleLookupsTotal.WithLabelValues(family, source).Inc()
	m.RuleAveragingDepth.WithLabelValues(family).Observe(float64(depth))
	m.EstimationDuration.WithLabelValues(family).Observe(duration.Seconds())
}

// RecordUndeterminable records an estimation that yielded no usable kinetics.
func RecordUndeterminable(m *EngineMetrics, family string) {
	if m == nil {
		return
	}
	m.UndeterminableTotal.WithLabelValues(family).Inc()
}

// RecordError records an error by component and code label.
func RecordError(m *EngineMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

// RecordExtensionsEvaluated counts candidate extensions scored at a node.
func RecordExtensionsEvaluated(m *EngineMetrics, family string, kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ExtensionsEvaluated.WithLabelValues(family, kind).Add(float64(n))
}

// RecordNodeSplit records the duration of one node extension.
func RecordNodeSplit(m *EngineMetrics, family string, duration time.Duration) {
	if m == nil {
		return
	}
	m.NodeSplitDuration.WithLabelValues(family).Observe(duration.Seconds())
}

// SetTreeNodes publishes the current node count of a family's tree.
func SetTreeNodes(m *EngineMetrics, family, kind string, n int) {
	if m == nil {
		return
	}
	m.TreeNodesTotal.WithLabelValues(family, kind).Set(float64(n))
}

// SetActiveTreeWorkers publishes the number of goroutines growing subtrees.
func SetActiveTreeWorkers(m *EngineMetrics, family string, n int) {
	if m == nil {
		return
	}
	m.ActiveTreeWorkers.WithLabelValues(family).Set(float64(n))
}

// RecordPruned counts tree nodes removed between cascade batches.
func RecordPruned(m *EngineMetrics, family string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ReactionsPrunedTotal.WithLabelValues(family).Add(float64(n))
}

// RecordTreeBuild records a full tree-construction pass.
func RecordTreeBuild(m *EngineMetrics, family string, duration time.Duration) {
	if m == nil {
		return
	}
	m.TreeBuildDuration.WithLabelValues(family).Observe(duration.Seconds())
}
