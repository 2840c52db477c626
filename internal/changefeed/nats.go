package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/models"
)

const (
	subjectPrefix = "messages.inserted."
	eventBuffer   = 64
)

func Subject(listingID string) string {
	return subjectPrefix + listingID
}

type broker interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler nats.MsgHandler) (unsubscribe func() error, err error)
}

type natsBroker struct {
	nc *nats.Conn
}

func (b natsBroker) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

func (b natsBroker) Subscribe(subject string, handler nats.MsgHandler) (func() error, error) {
	sub, err := b.nc.Subscribe(subject, handler)
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
}

// NATSFeed publishes message inserts on one subject per listing.
type NATSFeed struct {
	nc     *nats.Conn
	broker broker
	logger *logrus.Logger
}

func Connect(url string, timeout time.Duration, logger *logrus.Logger) (*NATSFeed, error) {
	opts := []nats.Option{
		nats.Name("roomrent-marketplace"),
		nats.Timeout(timeout),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			entry := logger.WithError(err)
			if sub != nil {
				entry = entry.WithField("subject", sub.Subject)
			}
			entry.Error("NATS error")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to NATS: %v", models.ErrBackend, err)
	}
	logger.WithField("url", nc.ConnectedUrl()).Info("Connected to NATS")

	return &NATSFeed{
		nc:     nc,
		broker: natsBroker{nc: nc},
		logger: logger,
	}, nil
}

func newFeed(b broker, logger *logrus.Logger) *NATSFeed {
	return &NATSFeed{
		broker: b,
		logger: logger,
	}
}

func (f *NATSFeed) Publish(ctx context.Context, event models.FeedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}

	subject := Subject(event.ListingID)
	if err := f.broker.Publish(subject, data); err != nil {
		return fmt.Errorf("%w: publish %s: %v", models.ErrBackend, subject, err)
	}

	f.logger.WithFields(logrus.Fields{
		"subject":    subject,
		"message_id": event.MessageID,
	}).Debug("Published feed event")
	return nil
}

// Subscribe delivers inserts for one listing until ctx is done, then closes
// the returned channel.
func (f *NATSFeed) Subscribe(ctx context.Context, listingID string) (<-chan models.FeedEvent, error) {
	events := make(chan models.FeedEvent, eventBuffer)
	subject := Subject(listingID)

	var mu sync.Mutex
	closed := false

	unsubscribe, err := f.broker.Subscribe(subject, func(msg *nats.Msg) {
		var event models.FeedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			f.logger.WithError(err).WithField("subject", subject).Warn("Dropping malformed feed event")
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe %s: %v", models.ErrBackend, subject, err)
	}

	go func() {
		<-ctx.Done()
		if err := unsubscribe(); err != nil {
			f.logger.WithError(err).WithField("subject", subject).Warn("Failed to unsubscribe")
		}

		mu.Lock()
		closed = true
		close(events)
		mu.Unlock()
	}()

	return events, nil
}

func (f *NATSFeed) Ping(ctx context.Context) error {
	if f.nc == nil || f.nc.Status() != nats.CONNECTED {
		return fmt.Errorf("%w: NATS not connected", models.ErrBackend)
	}
	return nil
}

func (f *NATSFeed) Close() {
	if f.nc == nil {
		return
	}
	if err := f.nc.Drain(); err != nil {
		f.logger.WithError(err).Warn("Failed to drain NATS connection")
	}
}
