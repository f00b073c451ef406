package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/scripthost"
	"github.com/aretw0/scripthost/internal/config"
	"github.com/aretw0/scripthost/internal/metrics"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/observability"
)

// Options holds the flags shared by every command.
type Options struct {
	ConfigPath string
	ScriptsDir string // overrides scripts_location when set
	Debug      bool
}

// loadConfig reads the settings file and applies the command line overrides.
func loadConfig(opts Options) (config.Settings, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if opts.ScriptsDir != "" {
		cfg.ScriptsLocation = opts.ScriptsDir
	}
	return cfg, cfg.Validate()
}

// createHost initializes a script host with standard CLI conventions.
func createHost(cfg config.Settings, logger *slog.Logger, collector *metrics.Collector, debug bool) (*scripthost.Host, error) {
	key, err := cfg.Key()
	if err != nil {
		return nil, fmt.Errorf("invalid reload key: %w", err)
	}

	hooks := []domain.LifecycleHooks{collector.Hooks()}
	if debug {
		hooks = append(hooks, createDebugHooks(logger))
	}

	return scripthost.New(cfg.ScriptsLocation,
		scripthost.WithLogger(logger),
		scripthost.WithNatives(newNatives(logger)),
		scripthost.WithLifecycleHooks(observability.Combine(hooks...)),
		scripthost.WithReloadKey(key),
		scripthost.WithReloadCallback(collector.Reloaded),
	), nil
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnScriptStart: func(_ context.Context, e *domain.ScriptEvent) {
			logger.Debug("Script started", "script", e.Script, "module", e.Module)
		},
		OnScriptAbort: func(_ context.Context, e *domain.ScriptEvent) {
			logger.Debug("Script stopped", "script", e.Script, "reason", e.Reason)
		},
		OnKeyEvent: func(_ context.Context, ev domain.KeyEvent) {
			logger.Debug("Key", "event", ev.String())
		},
	}
}
