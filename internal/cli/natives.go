package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/scripthost/pkg/registry"
	"github.com/spf13/cast"
)

// newNatives is the function table of the standalone host. An embedding
// application would expose its own state here instead.
func newNatives(logger *slog.Logger) *registry.Registry {
	r := registry.NewRegistry()
	start := time.Now()

	r.Register("uptime_ms", func(context.Context, []any) (any, error) {
		return time.Since(start).Milliseconds(), nil
	})
	r.Register("print", func(_ context.Context, args []any) (any, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = cast.ToString(a)
		}
		logger.Info(strings.Join(parts, " "), "source", "script")
		return nil, nil
	})
	r.Register("add", func(_ context.Context, args []any) (any, error) {
		var sum float64
		for _, a := range args {
			f, err := cast.ToFloat64E(a)
			if err != nil {
				return nil, fmt.Errorf("add: %w", err)
			}
			sum += f
		}
		return sum, nil
	})
	r.Register("heartbeat", func(_ context.Context, args []any) (any, error) {
		logger.Debug("Heartbeat", "beats", args)
		return nil, nil
	})
	return r
}
