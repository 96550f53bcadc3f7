package notify

import (
	"sync"
	"time"
)

// dedupeTTL bounds how long a reservation id is remembered. Events may
// arrive twice: once from the in-process publish and once from the
// database notify channel.
const dedupeTTL = 30 * time.Second

// Hub fans reservation events out to subscribed staff sessions. Each
// session gets an unbounded mailbox drained by its own goroutine, so an
// event accepted while a session is subscribed is delivered even if the
// session is momentarily slow; it is never silently discarded.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*mailbox
	seen     map[int]time.Time
	now      func() time.Time
}

type mailbox struct {
	mu      sync.Mutex
	pending []Event
	wake    chan struct{}
	done    chan struct{}
	out     chan Event
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*mailbox),
		seen:     make(map[int]time.Time),
		now:      time.Now,
	}
}

// Subscribe opens a feed for a staff session. The returned channel closes
// on Unsubscribe.
func (h *Hub) Subscribe(sessionID string) <-chan Event {
	mb := &mailbox{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan Event),
	}
	go mb.drain()

	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.sessions[sessionID]; ok {
		old.stop()
	}
	h.sessions[sessionID] = mb
	return mb.out
}

// Unsubscribe tears down a session's feed. Idempotent.
func (h *Hub) Unsubscribe(sessionID string) {
	h.mu.Lock()
	mb, ok := h.sessions[sessionID]
	if ok {
		delete(h.sessions, sessionID)
	}
	h.mu.Unlock()

	if ok {
		mb.stop()
	}
}

// Publish delivers an event to every subscribed session. A reservation id
// already published within the dedupe window is skipped, collapsing the
// local publish with the database notification for the same insert.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	now := h.now()
	if seenAt, ok := h.seen[ev.ReservationID]; ok && now.Sub(seenAt) < dedupeTTL {
		h.mu.Unlock()
		return
	}
	h.seen[ev.ReservationID] = now
	for id, at := range h.seen {
		if now.Sub(at) >= dedupeTTL {
			delete(h.seen, id)
		}
	}

	targets := make([]*mailbox, 0, len(h.sessions))
	for _, mb := range h.sessions {
		targets = append(targets, mb)
	}
	h.mu.Unlock()

	for _, mb := range targets {
		mb.push(ev)
	}
}

// SubscriberCount reports the number of live sessions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (mb *mailbox) push(ev Event) {
	mb.mu.Lock()
	mb.pending = append(mb.pending, ev)
	mb.mu.Unlock()

	select {
	case mb.wake <- struct{}{}:
	default:
	}
}

func (mb *mailbox) drain() {
	defer close(mb.out)
	for {
		mb.mu.Lock()
		if len(mb.pending) == 0 {
			mb.mu.Unlock()
			select {
			case <-mb.wake:
				continue
			case <-mb.done:
				return
			}
		}
		ev := mb.pending[0]
		mb.pending = mb.pending[1:]
		mb.mu.Unlock()

		select {
		case mb.out <- ev:
		case <-mb.done:
			return
		}
	}
}

func (mb *mailbox) stop() {
	select {
	case <-mb.done:
	default:
		close(mb.done)
	}
}
