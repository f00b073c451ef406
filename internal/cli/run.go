package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/scripthost"
	httpAdapter "github.com/aretw0/scripthost/internal/adapters/http"
	"github.com/aretw0/scripthost/internal/metrics"
	"github.com/aretw0/scripthost/internal/presentation/tui"
	"github.com/aretw0/scripthost/internal/watch"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// shutdownTimeout bounds the wait for scripts and HTTP connections on exit.
const shutdownTimeout = 5 * time.Second

// RunOptions configures the run command.
type RunOptions struct {
	Options
	Quiet      bool // no banner
	NoKeyboard bool
}

// Run hosts the scripts until SIGINT, SIGTERM or Ctrl+C.
func Run(opts RunOptions) error {
	cfg, err := loadConfig(opts.Options)
	if err != nil {
		return err
	}

	sc := NewSignalContext(context.Background())
	defer sc.Cancel()

	keyboard := !opts.NoKeyboard && term.IsTerminal(int(os.Stdin.Fd()))
	var console io.Writer = os.Stderr
	if keyboard {
		console = crlfWriter{w: os.Stderr}
	}
	logger, closer, err := createLogger(cfg, opts.Debug, console)
	if err != nil {
		return err
	}
	defer closer.Close()

	for _, key := range cfg.Unknown {
		logger.Warn("Unknown config key", "key", key)
	}
	if !opts.Quiet {
		tui.PrintBanner(os.Stdout, scripthost.Version)
	}

	collector := metrics.New()
	host, err := createHost(cfg, logger, collector, opts.Debug)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(sc)
	g.Go(func() error {
		return frameLoop(ctx, host, cfg.FrameRate, logger)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveHTTP(ctx, cfg.MetricsAddr, httpAdapter.NewHandler(host, collector.Handler(), logger), logger)
		})
	}
	if cfg.Watch {
		g.Go(func() error {
			return watchScripts(ctx, cfg.ScriptsLocation, host, logger)
		})
	}
	if keyboard {
		g.Go(func() error {
			return runKeyboard(ctx, os.Stdin, host, sc.Cancel, logger)
		})
	}

	err = g.Wait()
	if sig := sc.Signal(); sig != nil {
		printSystemMessage(os.Stderr, "Received %v, shutting down", sig)
	}
	return err
}

// frameLoop is the host goroutine: it owns Init, Tick and Shutdown.
func frameLoop(ctx context.Context, host *scripthost.Host, fps int, logger *slog.Logger) error {
	// A failed load is not fatal: the reload key or the watcher may fix it.
	if err := host.Init(ctx); err != nil {
		logger.Error("Failed to load scripts", "error", err)
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := host.Shutdown(sctx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		case <-ticker.C:
			host.Tick(ctx)
		}
	}
}

func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Event streams end with the run.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}

func watchScripts(ctx context.Context, root string, host *scripthost.Host, logger *slog.Logger) error {
	changes, err := watch.New(root, watch.WithLogger(logger)).Watch(ctx)
	if err != nil {
		logger.Warn("File watching disabled", "dir", root, "error", err)
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Info("Script change detected, reloading", "path", path)
			host.RequestReload()
		}
	}
}
