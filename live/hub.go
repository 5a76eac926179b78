package live

import (
	"sync"
	"time"
)

/************************************************
/**** MARK: CHANGE KINDS ****/
/************************************************/
const KIND_REFLECTIONS = "reflections"
const KIND_PROFILE = "profile"
const KIND_EXTERNAL_PROFILE = "external_profile"
const KIND_NOTICE = "notice"

// Change tells subscribers that something owned by UserID moved. Consumers
// reload the full current state; no diff is carried.
type Change struct {
	UserID   int64     `json:"user_id"`
	Kind     string    `json:"kind"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
	Instance string    `json:"instance,omitempty"`
}

// IsRemote reports whether the change was relayed from another instance.
func (c Change) IsRemote() bool {
	return c.Instance != ""
}

// Publisher is what writers need.
type Publisher interface {
	Publish(ch Change)
}

// Hub fans changes out to in-process subscribers.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Change
	// forward receives every locally originated change (redis bridge)
	forward func(Change)
}

func NewHub() *Hub {
	return &Hub{subs: map[int]chan Change{}}
}

// Publish delivers to every subscriber without blocking; a full buffer drops
// the change for that subscriber.
func (h *Hub) Publish(ch Change) {
	if ch.At.IsZero() {
		ch.At = time.Now()
	}
	h.deliver(ch)

	h.mu.RLock()
	fwd := h.forward
	h.mu.RUnlock()
	if fwd != nil && !ch.IsRemote() {
		fwd(ch)
	}
}

// PublishRemote delivers a change that came from another instance.
func (h *Hub) PublishRemote(ch Change) {
	h.deliver(ch)
}

func (h *Hub) deliver(ch Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub <- ch:
		default:
		}
	}
}

// Subscribe returns a channel of changes and a cancel func that must be called.
func (h *Hub) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	c := make(chan Change, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = c
	h.mu.Unlock()

	var once sync.Once
	return c, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(c)
		})
	}
}

// SetForwarder installs fn for locally originated changes. It runs inside
// Publish, so fn must not block.
func (h *Hub) SetForwarder(fn func(Change)) {
	h.mu.Lock()
	h.forward = fn
	h.mu.Unlock()
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
