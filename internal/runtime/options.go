package runtime

import (
	"log/slog"

	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/registry"
)

// Option defines a functional option for configuring the Domain.
type Option func(*Domain)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Domain) {
		d.logger = logger
	}
}

// WithName overrides the generated domain name used in logs and metrics.
func WithName(name string) Option {
	return func(d *Domain) {
		d.name = name
	}
}

// WithNatives configures the native function table reachable through Runtime.Call.
func WithNatives(r *registry.Registry) Option {
	return func(d *Domain) {
		d.natives = r
	}
}

// WithHooks configures lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(d *Domain) {
		d.hooks = h
	}
}

// WithReloadKey sets the key that triggers onReload instead of being relayed.
// Zero disables the reload key.
func WithReloadKey(k domain.Key, onReload func()) Option {
	return func(d *Domain) {
		d.reloadKey = k
		d.onReload = onReload
	}
}
