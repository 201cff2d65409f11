package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate after defaults.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero reference temp", func(c *Config) { c.Estimation.ReferenceTemp = -1 }},
		{"bad objective", func(c *Config) { c.Tree.Objective = "entropy" }},
		{"zero eval temp", func(c *Config) { c.Tree.EvalTemp = 0; c.Tree.EvalTemp = -5 }},
		{"zero workers", func(c *Config) { c.Tree.Workers = 0 }},
		{"zero batch size", func(c *Config) { c.Tree.MaxBatchSize = 0 }},
		{"outlier fraction too big", func(c *Config) { c.Tree.OutlierFraction = 1.0 }},
		{"zero strata", func(c *Config) { c.Tree.StratumNum = 0 }},
		{"new fraction above one", func(c *Config) { c.Tree.NewFractionThreshold = 1.5 }},
		{"negative folds", func(c *Config) { c.Validation.Folds = -1 }},
		{"zero validation temp", func(c *Config) { c.Validation.EvalTemp = -1 }},
		{"zero worker concurrency", func(c *Config) { c.Worker.Concurrency = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_ZeroFoldsMeansLeaveOneOut(t *testing.T) {
	cfg := validConfig()
	cfg.Validation.Folds = 0
	assert.NoError(t, cfg.Validate())
}
