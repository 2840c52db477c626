package auth

import (
	"sync"
	"time"
)

type EventType string

const (
	SignedIn  EventType = "signed_in"
	SignedOut EventType = "signed_out"
)

// Event is published on every session change. IdentityID is empty for
// SignedOut events whose session had already expired. ExpiresAt is set on
// SignedIn events only.
type Event struct {
	Type       EventType
	SessionID  string
	IdentityID string
	ExpiresAt  time.Time
}

// Notifier fans session events out to subscribers synchronously, in
// subscription order.
type Notifier struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(Event)
	order       []int
}

func NewNotifier() *Notifier {
	return &Notifier{
		subscribers: make(map[int]func(Event)),
	}
}

func (n *Notifier) Subscribe(fn func(Event)) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subscribers[id] = fn
	n.order = append(n.order, id)
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subscribers, id)
			for i, v := range n.order {
				if v == id {
					n.order = append(n.order[:i], n.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (n *Notifier) Publish(event Event) {
	n.mu.RLock()
	handlers := make([]func(Event), 0, len(n.order))
	for _, id := range n.order {
		handlers = append(handlers, n.subscribers[id])
	}
	n.mu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
}
