package mocks

import (
	"context"
	"sync"

	"roomrent/marketplace/internal/models"
)

// Feed is an in-memory MessageFeed. Published events are delivered to every
// subscriber of the event's listing.
type Feed struct {
	mu          sync.Mutex
	subscribers map[string][]chan models.FeedEvent
	Published   []models.FeedEvent
	PublishErr  error
}

func NewFeed() *Feed {
	return &Feed{
		subscribers: make(map[string][]chan models.FeedEvent),
	}
}

func (f *Feed) Publish(_ context.Context, event models.FeedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishErr != nil {
		return f.PublishErr
	}
	f.Published = append(f.Published, event)
	for _, ch := range f.subscribers[event.ListingID] {
		ch <- event
	}
	return nil
}

func (f *Feed) Subscribe(ctx context.Context, listingID string) (<-chan models.FeedEvent, error) {
	ch := make(chan models.FeedEvent, 16)

	f.mu.Lock()
	f.subscribers[listingID] = append(f.subscribers[listingID], ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subscribers[listingID]
		for i, c := range subs {
			if c == ch {
				f.subscribers[listingID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

// Subscribers reports how many live subscriptions the listing has.
func (f *Feed) Subscribers(listingID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[listingID])
}

func (f *Feed) PublishedEvents() []models.FeedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.FeedEvent(nil), f.Published...)
}
