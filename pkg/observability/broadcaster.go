package observability

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/scripthost/pkg/domain"
)

// Broadcaster fans lifecycle events out to watchers. A slow watcher loses
// events rather than blocking the host goroutine.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan string]struct{}
	buffer int
}

// NewBroadcaster creates a broadcaster whose watchers buffer up to buffer events.
func NewBroadcaster(buffer int) *Broadcaster {
	return &Broadcaster{subs: make(map[chan string]struct{}), buffer: buffer}
}

// Watch subscribes until ctx is done; the channel is closed afterwards.
func (b *Broadcaster) Watch(ctx context.Context) <-chan string {
	ch := make(chan string, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Publish sends event to every watcher without blocking.
func (b *Broadcaster) Publish(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Hooks publishes script start and abort events as "start <script>" and
// "abort <script> <reason>".
func (b *Broadcaster) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnScriptStart: func(_ context.Context, ev *domain.ScriptEvent) {
			b.Publish(fmt.Sprintf("start %s", ev.Script))
		},
		OnScriptAbort: func(_ context.Context, ev *domain.ScriptEvent) {
			b.Publish(fmt.Sprintf("abort %s %s", ev.Script, ev.Reason))
		},
	}
}
