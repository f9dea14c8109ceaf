package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(tt.level, "json")
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestWrapperFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"component": "test"})

	log.Info("hello", map[string]interface{}{"count": 3})
	log.WithError(errors.New("boom")).Error("failed", nil)
	log.Warn("fields", map[string]interface{}{"cause": errors.New("bad")})

	entries := logs.All()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, "test", first["component"])
	assert.EqualValues(t, 3, first["count"])

	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	assert.Equal(t, "bad", entries[2].ContextMap()["cause"])
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Debug("ignored", map[string]interface{}{"k": "v"})
	assert.NoError(t, log.Sync())
}
