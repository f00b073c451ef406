package input_test

import (
	"sync"
	"testing"

	"github.com/aretw0/scripthost/internal/input"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_SingleTransitionPerTick(t *testing.T) {
	r := input.NewRelay()

	r.Set(domain.KeyA, true, false, false, false)
	events := r.Poll()
	require.Len(t, events, 1)
	assert.Equal(t, domain.KeyEvent{Key: domain.KeyA, Down: true}, events[0])
	assert.True(t, r.IsPressed(domain.KeyA))

	// No change: no event.
	assert.Empty(t, r.Poll())

	r.Set(domain.KeyA, false, false, false, false)
	events = r.Poll()
	require.Len(t, events, 1)
	assert.Equal(t, domain.KeyEvent{Key: domain.KeyA, Down: false}, events[0])
	assert.False(t, r.IsPressed(domain.KeyA))
}

func TestRelay_PressAndReleaseBetweenPollsIsInvisible(t *testing.T) {
	r := input.NewRelay()
	r.Set(domain.KeyA, true, false, false, false)
	r.Set(domain.KeyA, false, false, false, false)
	assert.Empty(t, r.Poll())
}

const keyZ = domain.KeyA + 25

func TestRelay_DetectionOrderAndModifiers(t *testing.T) {
	r := input.NewRelay()
	r.Set(keyZ, true, false, false, false)
	r.Set(domain.KeyControl, true, false, false, false)
	r.Set(domain.KeyA, true, false, false, false)

	events := r.Poll()
	require.Len(t, events, 3)
	assert.Equal(t, domain.KeyControl, events[0].Key)
	assert.Equal(t, domain.KeyA, events[1].Key)
	assert.Equal(t, keyZ, events[2].Key)
	for _, ev := range events {
		assert.True(t, ev.Down)
		assert.True(t, ev.Ctrl, "ctrl derived from the raw Control key")
		assert.False(t, ev.Shift)
		assert.False(t, ev.Alt)
	}
}

func TestRelay_ModifiersFromMessageFlags(t *testing.T) {
	r := input.NewRelay()
	r.Set(domain.KeyA, true, false, true, true)
	events := r.Poll()
	require.Len(t, events, 1)
	assert.False(t, events[0].Ctrl)
	assert.True(t, events[0].Shift)
	assert.True(t, events[0].Alt)
}

func TestRelay_IgnoresOutOfRange(t *testing.T) {
	r := input.NewRelay()
	r.Set(0, true, false, false, false)
	r.Set(255, true, false, false, false)
	assert.Empty(t, r.Poll())
}

func TestRelay_SnapshotIsCopy(t *testing.T) {
	r := input.NewRelay()
	r.Set(domain.KeySpace, true, false, false, false)
	r.Poll()
	snap := r.Snapshot()
	assert.True(t, snap.Pressed(domain.KeySpace))
	snap[domain.KeySpace] = false
	assert.True(t, r.IsPressed(domain.KeySpace))

	r.Reset()
	assert.False(t, r.IsPressed(domain.KeySpace))
	assert.Empty(t, r.Poll())
}

func TestRelay_ConcurrentSet(t *testing.T) {
	r := input.NewRelay()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(k domain.Key) {
			defer wg.Done()
			r.Set(k, true, false, false, false)
		}(domain.Key(i))
	}
	wg.Wait()
	assert.Len(t, r.Poll(), 50)
}
