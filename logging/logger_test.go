package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"phishurl/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("unknown"))
}

func TestNewWritesToFile(t *testing.T) {
	cfg := config.Default().Log
	cfg.Format = "json"
	cfg.Level = "debug"
	cfg.File = filepath.Join(t.TempDir(), "phishurl.log")

	logger, err := New(cfg)
	require.NoError(t, err)
	logger.Debug("model loaded")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"model loaded"`)
}

func TestNewRespectsLevel(t *testing.T) {
	cfg := config.Default().Log
	cfg.Level = "error"
	logger, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
