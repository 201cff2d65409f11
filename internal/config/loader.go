// Package config provides configuration loading, defaults, and validation for
// the ReactKin kinetics engine.
package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all engine settings.
const envPrefix = "REACTKIN"

// newViper builds a pre-configured Viper instance with the engine's standard
// settings: YAML file type, REACTKIN_ env prefix, automatic env binding, and
// a key replacer that maps "." → "_" so that nested keys like "tree.workers"
// resolve to "REACTKIN_TREE_WORKERS".
// knownKeys lists every configuration key so that environment-only loading
// works: viper's Unmarshal only sees env values for keys it has been told
// about, so each key is bound explicitly in newViper.
var knownKeys = []string{
	"data.root", "data.families", "data.forbidden_path",
	"generation.prod_resonance", "generation.delocalize_allowed", "generation.max_products",
	"estimation.use_depository", "estimation.reference_temp", "estimation.seed",
	"tree.objective", "tree.eval_temp", "tree.workers",
	"tree.min_splitable_entry_num", "tree.min_rxns_to_spawn",
	"tree.max_batch_size", "tree.outlier_fraction", "tree.stratum_num",
	"tree.new_fraction_threshold", "tree.extension_iter_max",
	"tree.extension_iter_item_cap", "tree.seed",
	"validation.folds", "validation.iters", "validation.eval_temp", "validation.random_state",
	"worker.concurrency", "worker.queue_depth", "worker.task_timeout",
	"metrics.enabled", "metrics.namespace",
	"log.level", "log.format", "log.output",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range knownKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges any REACTKIN_* environment
// variable overrides, applies engine defaults for unset fields, and validates
// the result.  It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from REACTKIN_* environment variables,
// with no config file required.
//
// Environment variable naming convention:
//
//	REACTKIN_<SECTION>_<FIELD>   e.g.  REACTKIN_DATA_ROOT, REACTKIN_TREE_WORKERS
func LoadFromEnv() (*Config, error) {
	v := newViper()
	// No config file; rely solely on env vars and defaults.
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are ignored here because callers use Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			// A broken on-disk edit must not propagate a broken config.
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// Intended for use in main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
