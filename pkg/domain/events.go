package domain

import (
	"context"
	"time"
)

// ScriptEvent describes a lifecycle change of a script instance.
type ScriptEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	Domain    string      `json:"domain"`
	Script    string      `json:"script"`
	Module    string      `json:"module"`
	Reason    AbortReason `json:"reason,omitempty"`
	Err       error       `json:"-"`
}

// TickEvent describes one completed scheduler tick.
type TickEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Domain    string        `json:"domain"`
	Duration  time.Duration `json:"duration"`
	Running   int           `json:"running"`
	Tasks     int           `json:"tasks"`
}

// LifecycleHooks defines callbacks for scheduler observability.
// Hooks run on the host goroutine and must not block.
type LifecycleHooks struct {
	OnScriptStart func(context.Context, *ScriptEvent)
	OnScriptAbort func(context.Context, *ScriptEvent)
	OnTick        func(context.Context, *TickEvent)
	OnKeyEvent    func(context.Context, KeyEvent)
}
