package watch

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrClosed is returned when subscribing to a closed hub.
var ErrClosed = errors.New("hub is closed")

// Hub fans out change notifications to the subscribers of a key.
//
// Every subscriber runs in its own goroutine. A notification only wakes the subscriber up,
// the subscriber then reads the latest state itself. Notifications that arrive while a
// subscriber is busy are coalesced into one wake-up.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{}
	closed      bool
}

type subscriber struct {
	key  string
	wake chan struct{}
	done chan struct{}
	once sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: map[string]map[*subscriber]struct{}{},
	}
}

// Subscribe registers deliver for key. deliver is called once right away and again after
// every Notify for key. Calls never overlap. The returned function unsubscribes and may be
// called any number of times.
func (h *Hub) Subscribe(key string, deliver func()) (func(), error) {
	s := &subscriber{
		key:  key,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	// Deliver the initial state.
	s.wake <- struct{}{}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	if h.subscribers[key] == nil {
		h.subscribers[key] = map[*subscriber]struct{}{}
	}
	h.subscribers[key][s] = struct{}{}
	h.mu.Unlock()

	go s.run(deliver)

	return func() { h.unsubscribe(s) }, nil
}

// Notify wakes up all subscribers of key.
func (h *Hub) Notify(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subscribers[key] {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers of key.
func (h *Hub) Subscribers(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers[key])
}

// Close unsubscribes everyone. Later calls to Subscribe fail with ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*subscriber
	for _, subscribers := range h.subscribers {
		for s := range subscribers {
			all = append(all, s)
		}
	}
	h.mu.Unlock()

	for _, s := range all {
		h.unsubscribe(s)
	}
}

func (h *Hub) unsubscribe(s *subscriber) {
	s.once.Do(func() {
		h.mu.Lock()
		if subscribers, ok := h.subscribers[s.key]; ok {
			delete(subscribers, s)
			if len(subscribers) == 0 {
				delete(h.subscribers, s.key)
			}
		}
		h.mu.Unlock()

		close(s.done)
	})
}

func (s *subscriber) run(deliver func()) {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
			// done wins over a pending wake-up.
			select {
			case <-s.done:
				return
			default:
			}
			deliver()
		}
	}
}
