// Package keyecho is a builtin script that logs every key transition it
// receives. The toggle key (default F5, setting keyecho.toggle) switches the
// echo on and off.
package keyecho

import (
	"context"

	"github.com/aretw0/scripthost/internal/providers/native"
	"github.com/aretw0/scripthost/modules/heartbeat"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
)

const Module = "keyecho"

func init() {
	native.Register(Module, native.Type{ID: Module, Requires: []string{heartbeat.Module}, New: New})
}

// Script echoes key events.
type Script struct {
	toggle  domain.Key
	enabled bool
	echoed  []domain.KeyEvent
}

func New(_ context.Context, rt ports.Runtime) (ports.Script, error) {
	toggle, err := domain.ParseKey(rt.Settings().GetString(Module, "toggle", "F5"))
	if err != nil {
		return nil, err
	}
	return &Script{toggle: toggle, enabled: true}, nil
}

func (s *Script) Tick(context.Context, ports.Runtime) error { return nil }

func (s *Script) KeyDown(_ context.Context, rt ports.Runtime, ev domain.KeyEvent) error {
	if ev.Key == s.toggle {
		s.enabled = !s.enabled
		rt.Logger().Info("Key echo toggled", "enabled", s.enabled)
		return nil
	}
	s.echo(rt, ev)
	return nil
}

func (s *Script) KeyUp(_ context.Context, rt ports.Runtime, ev domain.KeyEvent) error {
	if ev.Key != s.toggle {
		s.echo(rt, ev)
	}
	return nil
}

func (s *Script) Aborted(_ context.Context, rt ports.Runtime) {
	rt.Logger().Info("Key echo stopped", "echoed", len(s.echoed))
}

func (s *Script) echo(rt ports.Runtime, ev domain.KeyEvent) {
	if !s.enabled {
		return
	}
	s.echoed = append(s.echoed, ev)
	rt.Logger().Info("Key", "event", ev.String())
}

// Echoed returns the events logged so far.
func (s *Script) Echoed() []domain.KeyEvent { return s.echoed }
