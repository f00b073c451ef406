// Package heartbeat is a builtin script that beats at a fixed period. Import
// it for its side effect:
//
//	import _ "github.com/aretw0/scripthost/modules/heartbeat"
//
// Settings (heartbeat.yaml in the scripts directory):
//
//	heartbeat:
//	  period_ms: 1000
//	  notify: true   # call the "heartbeat" native with the beat count
package heartbeat

import (
	"context"
	"time"

	"github.com/aretw0/scripthost/internal/providers/native"
	"github.com/aretw0/scripthost/pkg/ports"
)

// Module is the builtin module name, also the settings section.
const Module = "heartbeat"

func init() {
	native.Register(Module, native.Type{ID: Module, New: New})
}

// Script counts beats.
type Script struct {
	beats  int
	notify bool
}

// New reads the settings and sets the tick interval.
func New(_ context.Context, rt ports.Runtime) (ports.Script, error) {
	st := rt.Settings()
	rt.SetInterval(time.Duration(st.GetInt(Module, "period_ms", 1000)) * time.Millisecond)
	return &Script{notify: st.GetBool(Module, "notify", false)}, nil
}

func (s *Script) Tick(ctx context.Context, rt ports.Runtime) error {
	s.beats++
	rt.Logger().Debug("Beat", "count", s.beats)
	if !s.notify {
		return nil
	}
	_, err := rt.Call(ctx, Module, s.beats)
	return err
}

// Beats returns the number of ticks so far.
func (s *Script) Beats() int { return s.beats }
