package walletd

import (
	"log/slog"
	"sync"
)

// Hub fans out change notifications to subscribers. A panicking subscriber
// is logged and skipped so it cannot break the mutation path that fired
// the notification.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]func())}
}

// Subscribe registers fn to run after every observable state change and
// returns an idempotent unsubscribe closure.
func (h *Hub) Subscribe(fn func()) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *Hub) Notify() {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		notifyOne(fn)
	}
}

func notifyOne(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("subscriber panicked", "err", r)
		}
	}()

	fn()
}
