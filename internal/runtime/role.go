package runtime

import "context"

// Go has no goroutine identity, so the scheduler marks the contexts it hands
// out instead. A context carries at most one role: the host goroutine of a
// domain, or the worker goroutine of one of its instances. A context without a
// role (or with the zero role) belongs to some other goroutine.
type roleKey struct{}

type role struct {
	domain *Domain
	inst   *Instance
}

func withRole(ctx context.Context, r role) context.Context {
	return context.WithValue(ctx, roleKey{}, r)
}

func roleFrom(ctx context.Context) role {
	r, _ := ctx.Value(roleKey{}).(role)
	return r
}

func (d *Domain) isHost(ctx context.Context) bool {
	r := roleFrom(ctx)
	return r.domain == d && r.inst == nil
}

// HostContext marks ctx as belonging to the host goroutine of d. The embedding
// host uses it for calls made outside Tick, Start and Unload.
func (d *Domain) HostContext(ctx context.Context) context.Context {
	return withRole(ctx, role{domain: d})
}

// foreign strips any role from ctx.
func foreign(ctx context.Context) context.Context {
	return withRole(ctx, role{})
}
