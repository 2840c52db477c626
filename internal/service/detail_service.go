package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/models"
)

const ConversationsRoute = "/chat"

type DetailService interface {
	Load(ctx context.Context, id string) (*models.Listing, error)
	ContactOwner(ctx context.Context, user *models.User, listingID string) (string, error)
}

type detailService struct {
	listings ListingStore
	messages MessageStore
	feed     MessageFeed
	logger   *logrus.Logger
}

func NewDetailService(listings ListingStore, messages MessageStore, feed MessageFeed, logger *logrus.Logger) DetailService {
	return &detailService{
		listings: listings,
		messages: messages,
		feed:     feed,
		logger:   logger,
	}
}

func (s *detailService) Load(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.listings.GetWithOwner(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("listing_id", id).Error("Failed to load listing")
		return nil, err
	}
	return listing, nil
}

func Greeting(title string) string {
	return "Hi, I'm interested in your room: " + title
}

// ContactOwner opens a conversation with the listing's owner and returns the
// route to continue at. The greeting is written only when the user has not
// messaged about this listing before.
func (s *detailService) ContactOwner(ctx context.Context, user *models.User, listingID string) (string, error) {
	if user == nil {
		return "", models.ErrAuthRequired
	}

	listing, err := s.listings.GetWithOwner(ctx, listingID)
	if err != nil {
		s.logger.WithError(err).WithField("listing_id", listingID).Error("Failed to load listing for contact")
		return "", err
	}
	if listing.OwnerID == user.ID {
		return "", models.ErrSelfContact
	}

	exists, err := s.messages.ExistsFromSender(ctx, listingID, user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to check existing messages")
		return "", err
	}
	if exists {
		return ConversationsRoute, nil
	}

	msg := &models.Message{
		ID:         uuid.New().String(),
		ListingID:  listingID,
		SenderID:   user.ID,
		ReceiverID: listing.OwnerID,
		Message:    Greeting(listing.Title),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		s.logger.WithError(err).Error("Failed to send greeting")
		return "", err
	}

	s.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"listing_id": listingID,
		"sender_id":  user.ID,
	}).Info("Owner contacted")

	publish(ctx, s.feed, msg, s.logger)
	return ConversationsRoute, nil
}

func publish(ctx context.Context, feed MessageFeed, msg *models.Message, logger *logrus.Logger) {
	if feed == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := feed.Publish(ctx, models.FeedEvent{MessageID: msg.ID, ListingID: msg.ListingID}); err != nil {
		logger.WithError(err).WithField("message_id", msg.ID).Warn("Failed to publish message notification")
	}
}
