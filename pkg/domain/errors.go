package domain

import "errors"

// ErrAborted is returned to script code once its instance has been aborted.
var ErrAborted = errors.New("script aborted")

// ErrDomainUnloaded is returned by every scheduler operation after Unload.
var ErrDomainUnloaded = errors.New("script domain unloaded")

// ErrNotHost is returned when a host-only operation is invoked outside the host goroutine.
var ErrNotHost = errors.New("operation requires the host goroutine")

// ErrNoConstructor is returned when a script type has no factory to instantiate it.
var ErrNoConstructor = errors.New("script type has no constructor")

// ErrNativeNotFound is returned when a script calls an unregistered native function.
var ErrNativeNotFound = errors.New("native function not found")

// ErrNotWorker is returned when a worker-only operation (Yield, Wait) is
// invoked from a goroutine that is not the script's own worker.
var ErrNotWorker = errors.New("operation requires the script worker goroutine")

// ErrNotRunning is returned when an operation names a script with no running instance.
var ErrNotRunning = errors.New("script is not running")
