// Package input tracks raw keyboard edges and turns them into per-tick
// transition events.
//
// Set may be called from any goroutine (the embedding input loop). Poll and
// IsPressed belong to the host goroutine: Poll runs once per tick and is the
// only place the observed state changes.
package input

import (
	"sync"

	"github.com/aretw0/scripthost/pkg/domain"
)

// State is a key-state bitmap indexed by key code.
type State [256]bool

// Pressed reports whether k is down in the snapshot.
func (s *State) Pressed(k domain.Key) bool { return s[k] }

// Relay is the keyboard relay.
type Relay struct {
	mu   sync.Mutex
	raw  State
	ctrl bool
	shft bool
	alt  bool

	observed State // host only
}

// NewRelay creates a relay with every key released.
func NewRelay() *Relay {
	return &Relay{}
}

// Set records one raw edge together with the modifier flags carried by the message.
func (r *Relay) Set(k domain.Key, pressed, ctrl, shift, alt bool) {
	if k == 0 || k > domain.MaxKey {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw[k] = pressed
	r.ctrl, r.shft, r.alt = ctrl, shift, alt
}

// Poll compares the raw state against the state observed at the previous poll
// and returns one event per changed key, in key order. Modifier flags come from
// the raw modifier keys or, failing that, from the last message's flags.
func (r *Relay) Poll() []domain.KeyEvent {
	r.mu.Lock()
	raw := r.raw
	ctrl := r.ctrl || raw[domain.KeyControl] || raw[domain.KeyLControl] || raw[domain.KeyRControl]
	shift := r.shft || raw[domain.KeyShift] || raw[domain.KeyLShift] || raw[domain.KeyRShift]
	alt := r.alt || raw[domain.KeyMenu] || raw[domain.KeyLMenu] || raw[domain.KeyRMenu]
	r.mu.Unlock()

	var events []domain.KeyEvent
	for k := domain.Key(1); k <= domain.MaxKey; k++ {
		if raw[k] == r.observed[k] {
			continue
		}
		events = append(events, domain.KeyEvent{
			Key:   k,
			Down:  raw[k],
			Ctrl:  ctrl,
			Shift: shift,
			Alt:   alt,
		})
		r.observed[k] = raw[k]
	}
	return events
}

// IsPressed reports the state of k as of the last Poll.
func (r *Relay) IsPressed(k domain.Key) bool {
	return r.observed[k]
}

// Snapshot returns a copy of the state observed at the last Poll.
func (r *Relay) Snapshot() State {
	return r.observed
}

// Reset releases every key, raw and observed, without emitting events.
func (r *Relay) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw = State{}
	r.ctrl, r.shft, r.alt = false, false, false
	r.observed = State{}
}
