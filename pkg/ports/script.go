package ports

import (
	"context"

	"github.com/aretw0/scripthost/pkg/domain"
)

// Script is the capability every hosted script implements.
//
// Tick runs on the script's own worker goroutine once per frame. Returning an
// error (or panicking) aborts the script; other scripts keep running.
type Script interface {
	Tick(ctx context.Context, rt Runtime) error
}

// KeyHandler is implemented by scripts that want keyboard transitions.
// Handlers run on the worker goroutine before Tick. An error is logged and
// stops the current drain; the remaining events stay queued for the next frame.
type KeyHandler interface {
	KeyDown(ctx context.Context, rt Runtime, ev domain.KeyEvent) error
	KeyUp(ctx context.Context, rt Runtime, ev domain.KeyEvent) error
}

// AbortHandler is notified on the host goroutine after the scheduler aborted the
// script for any reason other than a hang.
type AbortHandler interface {
	Aborted(ctx context.Context, rt Runtime)
}

// Task is a unit of work that must run on the host goroutine.
type Task func(ctx context.Context) error

// Factory instantiates a script. It runs on the host goroutine during Start.
type Factory func(ctx context.Context, rt Runtime) (Script, error)

// ScriptType couples a descriptor with the factory able to instantiate it.
// A nil New means the type has no usable constructor.
type ScriptType struct {
	Descriptor domain.Descriptor
	New        Factory
}
