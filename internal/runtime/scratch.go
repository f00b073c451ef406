package runtime

import (
	"context"
	"sync"
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

// scratch holds the interop buffers handed out during a tick. Host only.
type scratch struct {
	bufs []*[]byte
}

func (s *scratch) pin(str string) []byte {
	bp := bufPool.Get().(*[]byte)
	b := append((*bp)[:0], str...)
	b = append(b, 0)
	*bp = b
	s.bufs = append(s.bufs, bp)
	return b[:len(str):len(str)]
}

func (s *scratch) release() {
	for i, bp := range s.bufs {
		bufPool.Put(bp)
		s.bufs[i] = nil
	}
	s.bufs = s.bufs[:0]
}

// Pinned returns the number of buffers currently held. Host only.
func (d *Domain) Pinned() int { return len(d.scratch.bufs) }

// PinString copies s into a NUL-terminated scratch buffer owned by the domain
// and returns it without the terminator. The buffer is valid until the end of
// the current tick. Outside the host goroutine it returns a plain copy.
func PinString(ctx context.Context, s string) []byte {
	r := roleFrom(ctx)
	if r.domain == nil || r.inst != nil {
		return []byte(s)
	}
	return r.domain.scratch.pin(s)
}
