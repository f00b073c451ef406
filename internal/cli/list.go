package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/scripthost/internal/graph"
	"github.com/aretw0/scripthost/internal/loader"
	"github.com/aretw0/scripthost/internal/logging"
	graphPresenter "github.com/aretw0/scripthost/internal/presentation/graph"
	"github.com/aretw0/scripthost/internal/presentation/tui"
	"github.com/aretw0/scripthost/internal/providers/lua"
	"github.com/aretw0/scripthost/internal/providers/native"
	"github.com/aretw0/scripthost/internal/providers/process"
)

// ListOptions configures the list and graph commands.
type ListOptions struct {
	Options
	Raw bool // plain markdown, no terminal styling
}

// loadPlan discovers the scripts without starting any.
func loadPlan(ctx context.Context, opts Options) (*loader.Catalog, graph.Plan, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, graph.Plan{}, err
	}
	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	l := loader.New(
		loader.WithLogger(logger),
		loader.WithProvider(lua.New(lua.WithLogger(logger))),
		loader.WithProvider(process.New(process.WithLogger(logger))),
		loader.WithBuiltins(native.Default),
	)
	catalog, err := l.Load(ctx, cfg.ScriptsLocation)
	if err != nil {
		return nil, graph.Plan{}, err
	}
	return catalog, graph.Resolve(catalog.Descriptors()), nil
}

// List prints the discovered scripts in start order, followed by the
// excluded ones.
func List(ctx context.Context, w io.Writer, opts ListOptions) error {
	catalog, plan, err := loadPlan(ctx, opts.Options)
	if err != nil {
		return err
	}
	defer catalog.Close()

	md := tui.ScriptTable("Scripts", rows(catalog, plan))
	if opts.Raw {
		_, err = io.WriteString(w, md)
		return err
	}
	out, err := tui.NewRenderer()(md)
	if err != nil {
		out = md
	}
	_, err = io.WriteString(w, out)
	return err
}

func rows(catalog *loader.Catalog, plan graph.Plan) []tui.Row {
	out := make([]tui.Row, 0, len(plan.Order)+len(plan.Excluded))
	row := func(e loader.Entry) tui.Row {
		d := e.Type.Descriptor
		return tui.Row{
			Script:   d.ID(),
			Module:   displayModule(d.Module()),
			Kind:     e.Module.Kind.String(),
			Requires: d.Requires(),
		}
	}
	for i, d := range plan.Order {
		e, ok := catalog.Lookup(d)
		if !ok {
			continue
		}
		r := row(e)
		r.Order = i + 1
		r.Status = "ready"
		out = append(out, r)
	}
	for _, x := range plan.Excluded {
		e, ok := catalog.Lookup(x.Descriptor)
		if !ok {
			continue
		}
		r := row(e)
		r.Status = x.Err.Error()
		out = append(out, r)
	}
	return out
}

func displayModule(module string) string {
	if filepath.IsAbs(module) {
		return filepath.Base(module)
	}
	return module
}

// Graph prints the dependency graph as a Mermaid flowchart.
func Graph(ctx context.Context, w io.Writer, opts Options) error {
	catalog, plan, err := loadPlan(ctx, opts)
	if err != nil {
		return err
	}
	defer catalog.Close()

	overlay := &graphPresenter.Overlay{Excluded: make(map[string]bool)}
	for _, x := range plan.Excluded {
		overlay.Excluded[x.Descriptor.ID()] = true
	}
	_, err = fmt.Fprintln(w, graphPresenter.GenerateMermaid(catalog.Descriptors(), overlay))
	return err
}
