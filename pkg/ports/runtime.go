package ports

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/settings"
)

// Runtime is the scheduler handle given to each script instance.
//
// Blocking operations take the caller's context: the scheduler recognizes its
// own goroutines through markers installed in the contexts it hands out, so a
// script must pass along the ctx it received (or one derived from it).
//
// Goroutines a script starts must come from Go. A goroutine that keeps the
// worker's ctx instead is treated as foreign only while the worker does not
// hold the baton; calls it makes during the worker's slice cannot be told
// apart from the worker's own.
type Runtime interface {
	// Name returns the fully qualified script name.
	Name() string
	// Filename returns the module the script was loaded from.
	Filename() string
	Logger() *slog.Logger
	Settings() *settings.Settings

	// Yield hands control back to the host until the next frame.
	Yield(ctx context.Context) error
	// Wait yields repeatedly until d has elapsed.
	Wait(ctx context.Context, d time.Duration) error
	// ExecuteTask runs task on the host goroutine and blocks until it completes.
	ExecuteTask(ctx context.Context, task Task) error
	// Call invokes a function of the native table on the host goroutine.
	Call(ctx context.Context, name string, args ...any) (any, error)
	// Go runs fn on a new goroutine. Its ctx is cancelled when the script is
	// aborted, and ExecuteTask/Call made with it are queued for the next frame.
	Go(ctx context.Context, fn func(ctx context.Context))

	IsKeyPressed(k domain.Key) bool

	Interval() time.Duration
	SetInterval(d time.Duration)
	Pause()
	Resume()
	IsPaused() bool

	// Abort stops the script after the current slice.
	Abort()
}
