package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/aretw0/scripthost/internal/config"
	"github.com/aretw0/scripthost/internal/logging"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// createLogger builds the application logger: console on console, plus the
// daily log file under cfg.LogDir when set. Files past logging.Retention are
// removed first.
func createLogger(cfg config.Settings, debug bool, console io.Writer) (*slog.Logger, io.Closer, error) {
	level := logging.ParseLevel(cfg.LogLevel)
	if debug {
		level = slog.LevelDebug
	}
	if cfg.LogDir == "" {
		return logging.NewConsole(console, level, nil), nopCloser{}, nil
	}

	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	removed, err := logging.DeleteOld(cfg.LogDir, cfg.LogName, time.Now(), logging.Retention)
	sink, sinkErr := logging.NewFileSink(cfg.LogDir, cfg.LogName)
	if sinkErr != nil {
		return nil, nil, sinkErr
	}

	logger := logging.NewConsole(console, level, sink)
	if err != nil {
		logger.Warn("Failed to clean old log files", "dir", cfg.LogDir, "error", err)
	} else if removed > 0 {
		logger.Debug("Old log files removed", "count", removed)
	}
	logger.Debug("Logging to file", "path", filepath.Clean(sink.Path()))
	return logger, sink, nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\r\n", fmt.Sprintf(format, args...))
}
