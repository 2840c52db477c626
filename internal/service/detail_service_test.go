package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomrent/marketplace/internal/mocks"
	"roomrent/marketplace/internal/models"
)

func roomListing() *models.Listing {
	return &models.Listing{
		ID:       "listing-1",
		OwnerID:  owner.ID,
		Title:    "Sunny room",
		Rent:     15000,
		Location: "Thamel, Kathmandu",
		Owner:    &models.OwnerContact{Name: "Ram", Phone: "9800000000", Email: "ram@example.com"},
	}
}

func TestDetail_Load(t *testing.T) {
	listings := new(mocks.ListingStore)
	svc := NewDetailService(listings, new(mocks.MessageStore), mocks.NewFeed(), quietLogger())

	listings.On("GetWithOwner", mock.Anything, "listing-1").Return(roomListing(), nil)
	listings.On("GetWithOwner", mock.Anything, "missing").Return(nil, models.ErrNotFound)

	got, err := svc.Load(context.Background(), "listing-1")
	require.NoError(t, err)
	assert.Equal(t, "Ram", got.Owner.Name)

	_, err = svc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDetail_ContactRequiresUser(t *testing.T) {
	svc := NewDetailService(new(mocks.ListingStore), new(mocks.MessageStore), mocks.NewFeed(), quietLogger())

	_, err := svc.ContactOwner(context.Background(), nil, "listing-1")
	assert.ErrorIs(t, err, models.ErrAuthRequired)
}

func TestDetail_ContactRejectsOwner(t *testing.T) {
	listings := new(mocks.ListingStore)
	messages := new(mocks.MessageStore)
	svc := NewDetailService(listings, messages, mocks.NewFeed(), quietLogger())

	listings.On("GetWithOwner", mock.Anything, "listing-1").Return(roomListing(), nil)

	_, err := svc.ContactOwner(context.Background(), owner, "listing-1")
	assert.ErrorIs(t, err, models.ErrSelfContact)
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDetail_ContactGreetsOnce(t *testing.T) {
	listings := new(mocks.ListingStore)
	messages := new(mocks.MessageStore)
	feed := mocks.NewFeed()
	svc := NewDetailService(listings, messages, feed, quietLogger())

	ctx := context.Background()
	listings.On("GetWithOwner", mock.Anything, "listing-1").Return(roomListing(), nil)
	messages.On("ExistsFromSender", mock.Anything, "listing-1", tenant.ID).Return(false, nil).Once()
	messages.On("ExistsFromSender", mock.Anything, "listing-1", tenant.ID).Return(true, nil)
	messages.On("Create", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
		return m.Message == "Hi, I'm interested in your room: Sunny room" &&
			m.SenderID == tenant.ID && m.ReceiverID == owner.ID && m.ListingID == "listing-1"
	})).Return(nil).Once()

	next, err := svc.ContactOwner(ctx, tenant, "listing-1")
	require.NoError(t, err)
	assert.Equal(t, ConversationsRoute, next)

	next, err = svc.ContactOwner(ctx, tenant, "listing-1")
	require.NoError(t, err)
	assert.Equal(t, ConversationsRoute, next)

	messages.AssertNumberOfCalls(t, "Create", 1)
	events := feed.PublishedEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "listing-1", events[0].ListingID)
}

func TestDetail_ContactSurvivesFeedFailure(t *testing.T) {
	listings := new(mocks.ListingStore)
	messages := new(mocks.MessageStore)
	feed := mocks.NewFeed()
	feed.PublishErr = models.ErrBackend
	svc := NewDetailService(listings, messages, feed, quietLogger())

	listings.On("GetWithOwner", mock.Anything, "listing-1").Return(roomListing(), nil)
	messages.On("ExistsFromSender", mock.Anything, "listing-1", tenant.ID).Return(false, nil)
	messages.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.ContactOwner(context.Background(), tenant, "listing-1")
	assert.NoError(t, err)
}
