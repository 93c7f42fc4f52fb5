package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltasol/osboard/config"
	"github.com/voltasol/osboard/logger"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	app := &config.AppConfig{Name: "osboard", Environment: "development"}

	t.Run("debug level", func(t *testing.T) {
		l, err := logger.New(&config.LoggingConfig{Level: "debug", Format: "console"}, app)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		l, err := logger.New(&config.LoggingConfig{Level: "chatty", Format: "console"}, app)
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("production environment forces the json config", func(t *testing.T) {
		prod := &config.AppConfig{Name: "osboard", Environment: "production"}
		l, err := logger.New(&config.LoggingConfig{Level: "info", Format: "console"}, prod)
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})
}
