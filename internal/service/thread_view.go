package service

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/models"
)

const threadUpdatesBuffer = 64

// ThreadView is one open conversation. It holds at most bufferSize messages
// in ascending time order, each id at most once, and evicts the oldest on
// overflow. Messages is authoritative; Updates is best-effort.
type ThreadView struct {
	scope         *Scope
	conversations *conversationService
	user          *models.User
	listingID     string
	counterpartID string
	logger        *logrus.Logger

	mu      sync.Mutex
	buffer  []*models.Message
	ids     map[string]struct{}
	updates chan *models.Message
	done    chan struct{}
}

func newThreadView(scope *Scope, conversations *conversationService, user *models.User, listingID, counterpartID string) *ThreadView {
	return &ThreadView{
		scope:         scope,
		conversations: conversations,
		user:          user,
		listingID:     listingID,
		counterpartID: counterpartID,
		logger:        conversations.logger,
		ids:           make(map[string]struct{}),
		updates:       make(chan *models.Message, threadUpdatesBuffer),
		done:          make(chan struct{}),
	}
}

func (v *ThreadView) ListingID() string {
	return v.listingID
}

func (v *ThreadView) CounterpartID() string {
	return v.counterpartID
}

func (v *ThreadView) Messages() []*models.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]*models.Message(nil), v.buffer...)
}

// Updates yields each merged message after the history snapshot. It is
// closed when the view stops.
func (v *ThreadView) Updates() <-chan *models.Message {
	return v.updates
}

func (v *ThreadView) Send(ctx context.Context, body string) (*models.Message, error) {
	if v == nil || !v.scope.Alive() {
		return nil, nil
	}
	return v.conversations.Send(ctx, v.user, v.listingID, v.counterpartID, body)
}

func (v *ThreadView) Close() {
	v.scope.Close()
	<-v.done
}

func (v *ThreadView) merge(msg *models.Message) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.ids[msg.ID]; ok {
		return false
	}

	i := sort.Search(len(v.buffer), func(i int) bool {
		return v.buffer[i].CreatedAt.After(msg.CreatedAt)
	})
	v.buffer = append(v.buffer, nil)
	copy(v.buffer[i+1:], v.buffer[i:])
	v.buffer[i] = msg
	v.ids[msg.ID] = struct{}{}

	limit := v.conversations.bufferSize
	if len(v.buffer) > limit {
		evicted := v.buffer[:len(v.buffer)-limit]
		for _, old := range evicted {
			delete(v.ids, old.ID)
		}
		v.buffer = append(v.buffer[:0:0], v.buffer[len(evicted):]...)
		if _, kept := v.ids[msg.ID]; !kept {
			return false
		}
	}
	return true
}

func (v *ThreadView) push(msg *models.Message) {
	if !v.merge(msg) {
		return
	}
	select {
	case v.updates <- msg:
	default:
		v.logger.WithField("message_id", msg.ID).Debug("Thread update dropped for slow consumer")
	}
}

func (v *ThreadView) run(events <-chan models.FeedEvent) {
	defer close(v.done)
	defer close(v.updates)

	ctx := v.scope.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			v.handle(ctx, event)
		}
	}
}

func (v *ThreadView) handle(ctx context.Context, event models.FeedEvent) {
	if event.ListingID != v.listingID {
		return
	}

	msg, err := v.conversations.messages.GetByID(ctx, event.MessageID)
	if err != nil {
		if v.scope.Alive() {
			v.logger.WithError(err).WithField("message_id", event.MessageID).Warn("Failed to fetch notified message")
		}
		return
	}
	if !msg.Involves(v.user.ID, v.counterpartID) {
		return
	}

	Deliver(v.scope, msg, v.push)
}
