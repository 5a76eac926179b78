package workers

import (
	"sync"
	"time"
)

// Debouncer runs fn(key) once a key has been quiet for delay. Each key owns
// its own timer handle.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(key int64)
	timers  map[int64]*time.Timer
	stopped bool
}

func NewDebouncer(delay time.Duration, fn func(key int64)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn, timers: map[int64]*time.Timer{}}
}

// Trigger schedules fn for key, replacing a pending schedule.
func (d *Debouncer) Trigger(key int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current, ok := d.timers[key]
		if !ok || current != timer || d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		d.fn(key)
	})
	d.timers[key] = timer
}

func (d *Debouncer) Cancel(key int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every pending key; later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
}
