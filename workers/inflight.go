package workers

import "sync"

// InFlight tracks ids with work currently running. It is owned by one
// worker and only lives in memory.
type InFlight struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{ids: map[int64]struct{}{}}
}

// TryAcquire marks id as busy; false means someone already holds it.
func (f *InFlight) TryAcquire(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.ids[id]; busy {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

func (f *InFlight) Release(id int64) {
	f.mu.Lock()
	delete(f.ids, id)
	f.mu.Unlock()
}

func (f *InFlight) Has(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}

func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}
