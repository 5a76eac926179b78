package workers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInFlight_AcquireRelease(t *testing.T) {
	f := NewInFlight()
	assert.True(t, f.TryAcquire(1))
	assert.False(t, f.TryAcquire(1))
	assert.True(t, f.Has(1))
	assert.Equal(t, 1, f.Len())

	f.Release(1)
	assert.False(t, f.Has(1))
	assert.True(t, f.TryAcquire(1))
}

func TestInFlight_IndependentRegistries(t *testing.T) {
	a, b := NewInFlight(), NewInFlight()
	assert.True(t, a.TryAcquire(7))
	assert.True(t, b.TryAcquire(7))
}

func TestInFlight_ConcurrentAcquireHasOneWinner(t *testing.T) {
	f := NewInFlight()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.TryAcquire(42) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
