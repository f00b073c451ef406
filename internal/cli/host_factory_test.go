package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/scripthost/internal/config"
	"github.com/aretw0/scripthost/internal/metrics"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scripthost.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scripts_location: from-file\nframe_rate: 60\n"), 0o644))

	cfg, err := loadConfig(Options{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ScriptsLocation)
	assert.Equal(t, 60, cfg.FrameRate)

	cfg, err = loadConfig(Options{ConfigPath: path, ScriptsDir: "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.ScriptsLocation)
}

func TestCreateLogger(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		cfg := config.Default()
		cfg.LogDir = ""
		var console bytes.Buffer

		logger, closer, err := createLogger(cfg, false, &console)
		require.NoError(t, err)
		defer closer.Close()

		logger.Debug("hidden")
		logger.Info("shown")
		assert.NotContains(t, console.String(), "hidden")
		assert.Contains(t, console.String(), "shown")
	})

	t.Run("file sink", func(t *testing.T) {
		cfg := config.Default()
		cfg.LogDir = filepath.Join(t.TempDir(), "logs")
		require.NoError(t, os.MkdirAll(cfg.LogDir, 0o755))
		stale := filepath.Join(cfg.LogDir, cfg.LogName+"-2000-01-01.log")
		require.NoError(t, os.WriteFile(stale, []byte("stale\n"), 0o644))
		var console bytes.Buffer

		logger, closer, err := createLogger(cfg, true, &console)
		require.NoError(t, err)

		logger.Debug("to both")
		require.NoError(t, closer.Close())

		assert.Contains(t, console.String(), "to both")
		assert.NoFileExists(t, stale)
		assert.Contains(t, console.String(), "Old log files removed")
		files, err := filepath.Glob(filepath.Join(cfg.LogDir, "*"))
		require.NoError(t, err)
		require.Len(t, files, 1)
		data, err := os.ReadFile(files[0])
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), "to both"))
	})
}

func TestCreateHost_RunsScripts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sum.lua"), []byte(`
script {
  name = "sum",
  tick = function() host.call("print", "sum", host.call("add", 1, 2)) end,
}
`), 0o644))

	cfg := config.Default()
	cfg.ScriptsLocation = dir
	var console bytes.Buffer
	logger, closer, err := createLogger(config.Settings{LogLevel: "info"}, false, &console)
	require.NoError(t, err)
	defer closer.Close()

	host, err := createHost(cfg, logger, metrics.New(), true)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, host.Init(ctx))
	host.Tick(ctx)
	require.NoError(t, host.Shutdown(ctx))

	assert.Contains(t, console.String(), "sum 3")
	status := host.Status()
	assert.Empty(t, status)
}

func TestCreateHost_InvalidKey(t *testing.T) {
	cfg := config.Default()
	cfg.ReloadKey = "NoSuchKey"
	_, err := createHost(cfg, nil, nil, false)
	assert.Error(t, err)
}

func TestDebugHooks(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := createLogger(config.Settings{}, true, &console)
	require.NoError(t, err)
	defer closer.Close()

	hooks := createDebugHooks(logger)
	hooks.OnScriptStart(context.Background(), &domain.ScriptEvent{Script: "a", Module: "m.lua"})
	hooks.OnKeyEvent(context.Background(), domain.KeyEvent{Key: domain.KeyInsert, Down: true})
	assert.Contains(t, console.String(), "Script started")
	assert.Contains(t, console.String(), "Insert down")
}
