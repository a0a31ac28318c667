package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"task-command-router/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewFromConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.log")

	log, err := NewFromConfig(config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.WithFields(map[string]interface{}{"component": "test"}).
		Info("command dispatched", map[string]interface{}{"operation": "list_tasks", "err": errors.New("boom")})
	Sync(log)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"command dispatched"`)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"err":"boom"`)
}

func TestNoOpLogger(t *testing.T) {
	l := NewNoOpLogger().WithError(errors.New("ignored")).With(nil)
	assert.NotPanics(t, func() {
		l.Debug("x", nil)
		l.Error("y", map[string]interface{}{"k": 1})
	})
}
