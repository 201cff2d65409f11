package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &zapLogger{z: zap.New(core)}, logs
}

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}

func TestLogger_EmitsFields(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Info("tree node created",
		String("label", "C_rad/H2/Cs"),
		Int("reactions", 42),
		Float64("objective", 1.25),
		Bool("terminal", false),
		Duration("elapsed", 3*time.Second),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tree node created", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "C_rad/H2/Cs", fields["label"])
	assert.EqualValues(t, 42, fields["reactions"])
	assert.Equal(t, 1.25, fields["objective"])
	assert.Equal(t, false, fields["terminal"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, logs := newObservedLogger(zapcore.WarnLevel)

	l.Debug("invisible")
	l.Info("invisible too")
	l.Warn("visible")
	l.Error("also visible")

	assert.Equal(t, 2, logs.Len())
}

func TestLogger_WithAddsPersistentFields(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	child := l.With(String("family", "H_Abstraction"))
	child.Info("first")
	child.Info("second")

	for _, e := range logs.All() {
		assert.Equal(t, "H_Abstraction", e.ContextMap()["family"])
	}
	// Parent remains unaffected.
	l.Info("bare")
	last := logs.All()[logs.Len()-1]
	assert.NotContains(t, last.ContextMap(), "family")
}

func TestLogger_Named(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Named("treegen").Info("hello")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "treegen", logs.All()[0].LoggerName)
}

func TestErrField(t *testing.T) {
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
	assert.Equal(t, Field{Key: "error", Value: "boom"}, Err(errors.New("boom")))
}

func TestNopLogger_AllMethodsNoOp(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.NotNil(t, l.With(String("k", "v")))
	assert.NotNil(t, l.Named("sub"))
}

func TestDefault_SetAndGet(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newObservedLogger(zapcore.DebugLevel)
	SetDefault(l)
	assert.Equal(t, l, Default())

	// nil is ignored.
	SetDefault(nil)
	assert.Equal(t, l, Default())
}
