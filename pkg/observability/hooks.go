package observability

import (
	"context"

	"github.com/aretw0/scripthost/pkg/domain"
)

// Combine returns hooks that call every non-nil hook of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnScriptStart = chainScript(out.OnScriptStart, h.OnScriptStart)
		out.OnScriptAbort = chainScript(out.OnScriptAbort, h.OnScriptAbort)
		out.OnTick = chainTick(out.OnTick, h.OnTick)
		out.OnKeyEvent = chainKey(out.OnKeyEvent, h.OnKeyEvent)
	}
	return out
}

func chainScript(a, b func(context.Context, *domain.ScriptEvent)) func(context.Context, *domain.ScriptEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *domain.ScriptEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

func chainTick(a, b func(context.Context, *domain.TickEvent)) func(context.Context, *domain.TickEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev *domain.TickEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}

func chainKey(a, b func(context.Context, domain.KeyEvent)) func(context.Context, domain.KeyEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, ev domain.KeyEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
