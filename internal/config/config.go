// Package config defines all configuration structures for the ReactKin
// kinetics engine.  No I/O or parsing logic lives here — only plain data
// types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// DataConfig locates the family database on disk.
type DataConfig struct {
	// Root is the directory containing one subdirectory per reaction family
	// (groups, rules, training files).
	Root string `mapstructure:"root"`

	// Families restricts loading to the named families.  Empty means all.
	Families []string `mapstructure:"families"`

	// ForbiddenPath points to the global forbidden-structures file shared by
	// every family.  Empty disables global forbidden filtering.
	ForbiddenPath string `mapstructure:"forbidden_path"`
}

// GenerationConfig holds reaction-generation tunables.
type GenerationConfig struct {
	// ProdResonance controls whether product structures are expanded to their
	// representative resonance form after generation.
	ProdResonance bool `mapstructure:"prod_resonance"`

	// DelocalizeAllowed permits charge-delocalised reactant matches for
	// families trained on charged species.
	DelocalizeAllowed bool `mapstructure:"delocalize_allowed"`

	// MaxProducts caps the product count accepted from a recipe application.
	// Zero means the family's own template decides.
	MaxProducts int `mapstructure:"max_products"`
}

// EstimationConfig holds rate-estimation tunables.
type EstimationConfig struct {
	// UseDepository searches the family depository for an exact isomorphic
	// match before falling back to rate rules.
	UseDepository bool `mapstructure:"use_depository"`

	// ReferenceTemp is the temperature in K used when comparing candidate
	// rates and when reporting uncertainty.
	ReferenceTemp float64 `mapstructure:"reference_temp"`

	// Seed seeds the rule-fitting dispatch order so runs are reproducible.
	Seed int64 `mapstructure:"seed"`
}

// TreeConfig holds group-tree construction tunables.
type TreeConfig struct {
	// Objective selects the node-splitting objective: "information" (default,
	// reaction-count weighted spread of log rates) or "split" (even split).
	Objective string `mapstructure:"objective"`

	// EvalTemp is the temperature in K at which training rates are evaluated
	// during splitting.
	EvalTemp float64 `mapstructure:"eval_temp"`

	// Workers bounds the number of goroutines growing subtrees in parallel.
	Workers int `mapstructure:"workers"`

	// MinSplitableEntryNum is the minimum number of splitable (multi-reaction,
	// non-terminal) nodes before new workers are spawned.
	MinSplitableEntryNum int `mapstructure:"min_splitable_entry_num"`

	// MinRxnsToSpawn is the minimum reaction count for a subtree to be worth
	// handing to a dedicated worker.
	MinRxnsToSpawn int `mapstructure:"min_rxns_to_spawn"`

	// MaxBatchSize caps the number of training reactions introduced per
	// outer iteration of tree growth.
	MaxBatchSize int `mapstructure:"max_batch_size"`

	// OutlierFraction is the fraction of isolated low-rate reactions placed
	// at the end of the batching order.
	OutlierFraction float64 `mapstructure:"outlier_fraction"`

	// StratumNum is the number of rate strata used when ordering batches.
	StratumNum int `mapstructure:"stratum_num"`

	// NewFractionThreshold bounds the fraction of a node's reactions that may
	// be new arrivals before the node is re-split.
	NewFractionThreshold float64 `mapstructure:"new_fraction_threshold"`

	// ExtensionIterMax bounds recursive expansion of new-bond extensions.
	ExtensionIterMax int `mapstructure:"extension_iter_max"`

	// ExtensionIterItemCap aborts recursive expansion once this many
	// candidate extensions have accumulated.
	ExtensionIterItemCap int `mapstructure:"extension_iter_item_cap"`

	// Seed seeds the batching shuffle so runs are reproducible.
	Seed int64 `mapstructure:"seed"`
}

// ValidationConfig holds cross-validation tunables.
type ValidationConfig struct {
	// Folds is the number of cross-validation folds; 0 means leave-one-out.
	Folds int `mapstructure:"folds"`

	// Iters is the number of extra generalization steps taken up the tree
	// after a matching node is found, 0 for none.
	Iters int `mapstructure:"iters"`

	// EvalTemp is the temperature in K at which estimated and known rates are
	// compared.
	EvalTemp float64 `mapstructure:"eval_temp"`

	// RandomState seeds fold assignment.
	RandomState int64 `mapstructure:"random_state"`
}

// MetricsConfig holds metrics exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// WorkerConfig holds shared worker-pool execution parameters used by rule
// fitting and degeneracy calculation.
type WorkerConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	QueueDepth  int           `mapstructure:"queue_depth"`
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the engine.  Every component
// reads its settings from the relevant sub-struct.
type Config struct {
	Data       DataConfig       `mapstructure:"data"`
	Generation GenerationConfig `mapstructure:"generation"`
	Estimation EstimationConfig `mapstructure:"estimation"`
	Tree       TreeConfig       `mapstructure:"tree"`
	Validation ValidationConfig `mapstructure:"validation"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	// Estimation
	if c.Estimation.ReferenceTemp <= 0 {
		return fmt.Errorf("config: estimation.reference_temp must be > 0 K, got %g", c.Estimation.ReferenceTemp)
	}

	// Tree
	switch c.Tree.Objective {
	case "information", "split":
	default:
		return fmt.Errorf("config: tree.objective %q is invalid; expected information|split", c.Tree.Objective)
	}
	if c.Tree.EvalTemp <= 0 {
		return fmt.Errorf("config: tree.eval_temp must be > 0 K, got %g", c.Tree.EvalTemp)
	}
	if c.Tree.Workers < 1 {
		return fmt.Errorf("config: tree.workers must be >= 1, got %d", c.Tree.Workers)
	}
	if c.Tree.MaxBatchSize < 1 {
		return fmt.Errorf("config: tree.max_batch_size must be >= 1, got %d", c.Tree.MaxBatchSize)
	}
	if c.Tree.OutlierFraction < 0 || c.Tree.OutlierFraction >= 1 {
		return fmt.Errorf("config: tree.outlier_fraction %g is out of range [0, 1)", c.Tree.OutlierFraction)
	}
	if c.Tree.StratumNum < 1 {
		return fmt.Errorf("config: tree.stratum_num must be >= 1, got %d", c.Tree.StratumNum)
	}
	if c.Tree.NewFractionThreshold <= 0 || c.Tree.NewFractionThreshold > 1 {
		return fmt.Errorf("config: tree.new_fraction_threshold %g is out of range (0, 1]", c.Tree.NewFractionThreshold)
	}

	// Validation
	if c.Validation.Folds < 0 {
		return fmt.Errorf("config: validation.folds must be >= 0, got %d", c.Validation.Folds)
	}
	if c.Validation.EvalTemp <= 0 {
		return fmt.Errorf("config: validation.eval_temp must be > 0 K, got %g", c.Validation.EvalTemp)
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
