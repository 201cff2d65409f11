package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultDataRoot = "data/families"

	DefaultReferenceTemp = 1000.0

	DefaultTreeObjective            = "information"
	DefaultTreeEvalTemp             = 1000.0
	DefaultTreeWorkers              = 1
	DefaultMinSplitableEntryNum     = 2
	DefaultMinRxnsToSpawn           = 20
	DefaultMaxBatchSize             = 800
	DefaultOutlierFraction          = 0.02
	DefaultStratumNum               = 8
	DefaultNewFractionThreshold     = 0.25
	DefaultExtensionIterMax         = 2
	DefaultExtensionIterItemCap     = 100
	DefaultTreeSeed             int64 = 1

	DefaultValidationFolds       = 5
	DefaultValidationRandomState int64 = 1

	DefaultWorkerConcurrency = 4
	DefaultWorkerQueueDepth  = 64

	DefaultMetricsNamespace = "reactkin"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the engine default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.  It must be called after unmarshalling and
// before Validate so defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Data ──────────────────────────────────────────────────────────────────
	if cfg.Data.Root == "" {
		cfg.Data.Root = DefaultDataRoot
	}

	// ── Estimation ────────────────────────────────────────────────────────────
	if cfg.Estimation.ReferenceTemp == 0 {
		cfg.Estimation.ReferenceTemp = DefaultReferenceTemp
	}

	// ── Tree ──────────────────────────────────────────────────────────────────
	if cfg.Tree.Objective == "" {
		cfg.Tree.Objective = DefaultTreeObjective
	}
	if cfg.Tree.EvalTemp == 0 {
		cfg.Tree.EvalTemp = DefaultTreeEvalTemp
	}
	if cfg.Tree.Workers == 0 {
		cfg.Tree.Workers = DefaultTreeWorkers
	}
	if cfg.Tree.MinSplitableEntryNum == 0 {
		cfg.Tree.MinSplitableEntryNum = DefaultMinSplitableEntryNum
	}
	if cfg.Tree.MinRxnsToSpawn == 0 {
		cfg.Tree.MinRxnsToSpawn = DefaultMinRxnsToSpawn
	}
	if cfg.Tree.MaxBatchSize == 0 {
		cfg.Tree.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.Tree.OutlierFraction == 0 {
		cfg.Tree.OutlierFraction = DefaultOutlierFraction
	}
	if cfg.Tree.StratumNum == 0 {
		cfg.Tree.StratumNum = DefaultStratumNum
	}
	if cfg.Tree.NewFractionThreshold == 0 {
		cfg.Tree.NewFractionThreshold = DefaultNewFractionThreshold
	}
	if cfg.Tree.ExtensionIterMax == 0 {
		cfg.Tree.ExtensionIterMax = DefaultExtensionIterMax
	}
	if cfg.Tree.ExtensionIterItemCap == 0 {
		cfg.Tree.ExtensionIterItemCap = DefaultExtensionIterItemCap
	}
	if cfg.Tree.Seed == 0 {
		cfg.Tree.Seed = DefaultTreeSeed
	}

	// ── Validation ────────────────────────────────────────────────────────────
	// Folds is an int where 0 is a valid explicit value (leave-one-out), so it
	// is left untouched.
	if cfg.Validation.EvalTemp == 0 {
		cfg.Validation.EvalTemp = DefaultTreeEvalTemp
	}
	if cfg.Validation.RandomState == 0 {
		cfg.Validation.RandomState = DefaultValidationRandomState
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.QueueDepth == 0 {
		cfg.Worker.QueueDepth = DefaultWorkerQueueDepth
	}
	if cfg.Worker.TaskTimeout == 0 {
		cfg.Worker.TaskTimeout = 10 * time.Minute
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
