package tests

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/scripthost/internal/logging"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/aretw0/scripthost/pkg/settings"
)

// Call is one native call recorded by FakeRuntime.
type Call struct {
	Name string
	Args []any
}

// FakeRuntime is a single-goroutine ports.Runtime for provider tests.
// Tasks run inline; Call records the request and answers with Results[name]
// (or ErrCall when the name is "fail").
type FakeRuntime struct {
	ScriptName string
	Results    map[string]any
	Pressed    map[domain.Key]bool
	Store      *settings.Settings
	Log        *slog.Logger

	mu       sync.Mutex
	calls    []Call
	yields   int
	interval time.Duration
	paused   bool
	aborted  bool
}

// ErrCall is returned by FakeRuntime.Call for the native named "fail".
var ErrCall = errors.New("native failed")

// NewFakeRuntime returns a runtime named "fake" with empty settings.
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{
		ScriptName: "fake",
		Results:    map[string]any{},
		Pressed:    map[domain.Key]bool{},
		Store:      settings.New(""),
		Log:        logging.NewNop(),
	}
}

// Calls returns a copy of the recorded native calls.
func (f *FakeRuntime) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Yields counts Yield and Wait calls.
func (f *FakeRuntime) Yields() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.yields
}

// Aborted reports whether the script requested its own abort.
func (f *FakeRuntime) Aborted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted
}

func (f *FakeRuntime) Name() string                 { return f.ScriptName }
func (f *FakeRuntime) Filename() string             { return f.ScriptName }
func (f *FakeRuntime) Logger() *slog.Logger         { return f.Log }
func (f *FakeRuntime) Settings() *settings.Settings { return f.Store }

func (f *FakeRuntime) Yield(ctx context.Context) error {
	f.mu.Lock()
	f.yields++
	f.mu.Unlock()
	return ctx.Err()
}

func (f *FakeRuntime) Wait(ctx context.Context, _ time.Duration) error {
	return f.Yield(ctx)
}

func (f *FakeRuntime) ExecuteTask(ctx context.Context, task ports.Task) error {
	return task(ctx)
}

func (f *FakeRuntime) Call(_ context.Context, name string, args ...any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Name: name, Args: args})
	if name == "fail" {
		return nil, ErrCall
	}
	return f.Results[name], nil
}

func (f *FakeRuntime) Go(ctx context.Context, fn func(context.Context)) { go fn(ctx) }

func (f *FakeRuntime) IsKeyPressed(k domain.Key) bool { return f.Pressed[k] }

func (f *FakeRuntime) Interval() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

func (f *FakeRuntime) SetInterval(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interval = d
}

func (f *FakeRuntime) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
}

func (f *FakeRuntime) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
}

func (f *FakeRuntime) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *FakeRuntime) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted = true
}

var _ ports.Runtime = (*FakeRuntime)(nil)
