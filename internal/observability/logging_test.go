package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/whatfools/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "json"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "console"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := config.LoggingConfig{Level: "trace", Format: "json"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "xml"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := config.LoggingConfig{Level: level, Format: "json"}
		logger, err := NewLogger(cfg)
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_TeesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whatfools.log")
	cfg := config.LoggingConfig{Level: "info", Format: "console", File: path, MaxSizeMB: 1}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("prayer answered")
	logger.Debug("below the level")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"prayer answered"`)
	assert.NotContains(t, string(data), "below the level")
}

func TestNewRotatingWriter_CopiesRotationSettings(t *testing.T) {
	w := NewRotatingWriter(config.LoggingConfig{File: "x.log", MaxSizeMB: 5, MaxBackups: 2, MaxAgeDays: 7, Compress: true})
	assert.Equal(t, "x.log", w.Filename)
	assert.Equal(t, 5, w.MaxSize)
	assert.Equal(t, 2, w.MaxBackups)
	assert.Equal(t, 7, w.MaxAge)
	assert.True(t, w.Compress)
}

func TestNewRotatingWriter_PanicsWithoutFile(t *testing.T) {
	assert.Panics(t, func() { NewRotatingWriter(config.LoggingConfig{}) })
}
