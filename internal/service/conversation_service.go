package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/models"
)

const DefaultThreadBufferSize = 500

type ConversationService interface {
	LoadThreads(ctx context.Context, user *models.User) ([]models.ChatRoom, error)
	History(ctx context.Context, user *models.User, listingID, counterpartID string) ([]*models.Message, error)
	OpenThread(ctx context.Context, user *models.User, listingID, counterpartID string) (*ThreadView, error)
	Send(ctx context.Context, user *models.User, listingID, counterpartID, body string) (*models.Message, error)
}

type conversationService struct {
	messages   MessageStore
	feed       MessageFeed
	bufferSize int
	logger     *logrus.Logger
}

func NewConversationService(messages MessageStore, feed MessageFeed, bufferSize int, logger *logrus.Logger) ConversationService {
	if bufferSize <= 0 {
		bufferSize = DefaultThreadBufferSize
	}
	return &conversationService{
		messages:   messages,
		feed:       feed,
		bufferSize: bufferSize,
		logger:     logger,
	}
}

func (s *conversationService) LoadThreads(ctx context.Context, user *models.User) ([]models.ChatRoom, error) {
	if user == nil {
		return nil, models.ErrAuthRequired
	}

	messages, err := s.messages.ListForUser(ctx, user.ID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to load messages")
		return nil, err
	}
	return GroupThreads(user.ID, messages), nil
}

func (s *conversationService) History(ctx context.Context, user *models.User, listingID, counterpartID string) ([]*models.Message, error) {
	if user == nil {
		return nil, models.ErrAuthRequired
	}

	messages, err := s.messages.ListThread(ctx, listingID, user.ID, counterpartID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"listing_id":     listingID,
			"counterpart_id": counterpartID,
		}).Error("Failed to load thread")
		return nil, err
	}
	return messages, nil
}

// OpenThread subscribes to the listing's inserts before loading history so
// that nothing written in between is missed; duplicates are merged away.
func (s *conversationService) OpenThread(ctx context.Context, user *models.User, listingID, counterpartID string) (*ThreadView, error) {
	if user == nil {
		return nil, models.ErrAuthRequired
	}

	scope := NewScope(ctx)
	events, err := s.feed.Subscribe(scope.Context(), listingID)
	if err != nil {
		scope.Close()
		s.logger.WithError(err).WithField("listing_id", listingID).Error("Failed to subscribe to thread")
		return nil, err
	}

	history, err := s.History(scope.Context(), user, listingID, counterpartID)
	if err != nil {
		scope.Close()
		return nil, err
	}

	view := newThreadView(scope, s, user, listingID, counterpartID)
	for _, msg := range history {
		view.merge(msg)
	}
	go view.run(events)

	return view, nil
}

// Send is a no-op for a blank body. The message is not echoed back; it
// reaches open threads through the feed.
func (s *conversationService) Send(ctx context.Context, user *models.User, listingID, counterpartID, body string) (*models.Message, error) {
	if user == nil {
		return nil, models.ErrAuthRequired
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}
	if counterpartID == "" || counterpartID == user.ID {
		return nil, fmt.Errorf("%w: receiver must be another user", models.ErrInvalidInput)
	}

	msg := &models.Message{
		ID:         uuid.New().String(),
		ListingID:  listingID,
		SenderID:   user.ID,
		ReceiverID: counterpartID,
		Message:    body,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		s.logger.WithError(err).Error("Failed to send message")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"message_id":  msg.ID,
		"listing_id":  listingID,
		"sender_id":   user.ID,
		"receiver_id": counterpartID,
	}).Info("Message sent")

	publish(ctx, s.feed, msg, s.logger)
	return msg, nil
}
