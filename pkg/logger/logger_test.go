package logger

import (
	"career_path_backend/internal/config"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestInitLogger_Level(t *testing.T) {
	defer func() { Log = zap.NewNop() }()

	InitLogger(&config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		Log:    config.LogConfig{Level: "warn"},
	})
	assert.False(t, Log.Core().Enabled(zap.InfoLevel))
	assert.True(t, Log.Core().Enabled(zap.WarnLevel))

	InitLogger(&config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		Log:    config.LogConfig{File: filepath.Join(t.TempDir(), "app.log")},
	})
	assert.True(t, Log.Core().Enabled(zap.DebugLevel))
}
