package workers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firings struct {
	mu   sync.Mutex
	keys []int64
}

func (f *firings) add(k int64) {
	f.mu.Lock()
	f.keys = append(f.keys, k)
	f.mu.Unlock()
}

func (f *firings) get() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.keys...)
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	var got firings
	d := NewDebouncer(40*time.Millisecond, got.add)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger(1)
		time.Sleep(5 * time.Millisecond)
	}
	d.Trigger(2)

	require.Eventually(t, func() bool { return len(got.get()) == 2 }, waitFor, 5*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	assert.ElementsMatch(t, []int64{1, 2}, got.get())
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_CancelAndStop(t *testing.T) {
	var got firings
	d := NewDebouncer(20*time.Millisecond, got.add)

	d.Trigger(1)
	d.Cancel(1)
	d.Trigger(2)
	d.Stop()
	d.Trigger(3)

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, got.get())
	assert.Equal(t, 0, d.Pending())
}
