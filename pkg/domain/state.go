package domain

import "time"

// ScriptState is the lifecycle state of a running script instance.
//
// NotStarted -> Running -> (Aborted | Unloaded). Aborted and Unloaded are terminal.
type ScriptState int32

const (
	StateNotStarted ScriptState = iota
	StateRunning
	StateAborted
	StateUnloaded
)

func (s ScriptState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateAborted:
		return "aborted"
	case StateUnloaded:
		return "unloaded"
	default:
		return "unknown"
	}
}

// Terminal reports whether no transition can leave the state.
func (s ScriptState) Terminal() bool {
	return s == StateAborted || s == StateUnloaded
}

// AbortReason records why the scheduler stopped a script.
type AbortReason string

const (
	AbortRequested AbortReason = "requested" // Host or the script itself asked for it
	AbortError     AbortReason = "error"     // Tick returned an error or panicked
	AbortHang      AbortReason = "hang"      // Watchdog timeout
	AbortUnload    AbortReason = "unload"    // Domain teardown
)

// ScriptStatus is an immutable snapshot of one instance, published by the
// scheduler after every tick for introspection adapters.
type ScriptStatus struct {
	Name     string        `json:"name"`
	Module   string        `json:"module"`
	State    string        `json:"state"`
	Paused   bool          `json:"paused"`
	Interval time.Duration `json:"interval"`
}
