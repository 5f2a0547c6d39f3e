package logger

import (
	"testing"

	"github.com/danger-5344/templa-socialV2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestFromApp(t *testing.T) {
	cfg := FromApp(config.AppConfig{Env: "production", LogLevel: "warn"}, "api")
	assert.False(t, cfg.Development)
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, "api", cfg.Service)

	cfg = FromApp(config.AppConfig{Env: "development", LogEncoding: "console"}, "cli")
	assert.True(t, cfg.Development)
	assert.Equal(t, "console", cfg.Encoding)
}

func TestNew(t *testing.T) {
	l, err := New(Config{Level: "WARN", Encoding: "json"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}
