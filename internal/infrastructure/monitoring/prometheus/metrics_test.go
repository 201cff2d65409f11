package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
)

func TestNewEngineMetrics_AllMetricsRegistered(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "reactkin"}, logging.NewNopLogger())
	require.NoError(t, err)

	m := NewEngineMetrics(c)
	require.NotNil(t, m)

	assert.NotNil(t, m.ReactionsGeneratedTotal)
	assert.NotNil(t, m.ReactionsForbiddenTotal)
	assert.NotNil(t, m.RuleLookupsTotal)
	assert.NotNil(t, m.TreeNodesTotal)
	assert.NotNil(t, m.TreeBuildDuration)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestRecordHelpers_NilMetricsSafe(t *testing.T) {
	// All record helpers must tolerate a nil receiver so instrumentation can
	// be disabled by simply not constructing EngineMetrics.
	RecordGeneration(nil, "f", "forward", 1, 0, time.Millisecond)
	RecordEstimate(nil, "f", "rules", 2, time.Millisecond)
	RecordUndeterminable(nil, "f")
	RecordError(nil, "treegen", "TREE_004")
}

func TestRecordHelpers_WithNoopCollector(t *testing.T) {
	m := NewEngineMetrics(NewNoopCollector())

	RecordGeneration(m, "h_abstraction", "forward", 3, 1, 2*time.Millisecond)
	RecordEstimate(m, "h_abstraction", "depository", 0, time.Millisecond)
	RecordUndeterminable(m, "h_abstraction")
	RecordError(m, "estimator", "KIN_001")
}
