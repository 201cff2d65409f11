package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ReactKin/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "reactkin"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestRegisterCounter_IncAndAdd(t *testing.T) {
	c := newTestCollector(t)

	vec := c.RegisterCounter("test_total", "test counter", "label")
	require.NotNil(t, vec)

	// Must not panic on use.
	vec.WithLabelValues("a").Inc()
	vec.WithLabelValues("a").Add(2)
	vec.With(map[string]string{"label": "b"}).Inc()
}

func TestRegisterCounter_DuplicateReusesFirst(t *testing.T) {
	c := newTestCollector(t)

	first := c.RegisterCounter("dup_total", "dup", "l")
	second := c.RegisterCounter("dup_total", "dup", "l")
	require.NotNil(t, first)
	require.NotNil(t, second)
	// Registering the same name twice must not panic or return a noop.
	second.WithLabelValues("x").Inc()
}

func TestRegisterGaugeAndHistogram(t *testing.T) {
	c := newTestCollector(t)

	g := c.RegisterGauge("depth", "current depth", "family")
	g.WithLabelValues("h_abstraction").Set(3)
	g.WithLabelValues("h_abstraction").Inc()
	g.WithLabelValues("h_abstraction").Dec()

	h := c.RegisterHistogram("dur_seconds", "duration", nil, "family")
	h.WithLabelValues("h_abstraction").Observe(0.05)
}

func TestHandler_ServesRegistry(t *testing.T) {
	c := newTestCollector(t)
	assert.NotNil(t, c.Handler())
}

func TestNoopCollector_AllOperationsSafe(t *testing.T) {
	c := NewNoopCollector()

	c.RegisterCounter("x", "x").WithLabelValues().Inc()
	c.RegisterGauge("y", "y").WithLabelValues().Set(1)
	c.RegisterHistogram("z", "z", nil).WithLabelValues().Observe(1)
	assert.NotNil(t, c.Handler())
	assert.False(t, c.Unregister(nil))
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timer_seconds", "timer", nil).WithLabelValues()

	timer := NewTimer(h)
	time.Sleep(time.Millisecond)
	timer.ObserveDuration()

	// Nil histogram is tolerated.
	(&Timer{}).ObserveDuration()
}
