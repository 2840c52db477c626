package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"roomrent/marketplace/internal/models"
)

type UserStore struct {
	mock.Mock
}

func (m *UserStore) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type ListingStore struct {
	mock.Mock
}

func (m *ListingStore) Create(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *ListingStore) GetWithOwner(ctx context.Context, id string) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *ListingStore) GetOwned(ctx context.Context, id, ownerID string) (*models.Listing, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *ListingStore) SearchAvailable(ctx context.Context, term string) ([]*models.Listing, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Listing), args.Error(1)
}

func (m *ListingStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Listing), args.Error(1)
}

func (m *ListingStore) Update(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *ListingStore) ToggleAvailability(ctx context.Context, id, ownerID string) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *ListingStore) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

type MessageStore struct {
	mock.Mock
}

func (m *MessageStore) Create(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageStore) GetByID(ctx context.Context, id string) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MessageStore) ListForUser(ctx context.Context, userID string) ([]*models.Message, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MessageStore) ListThread(ctx context.Context, listingID, userID, counterpartID string) ([]*models.Message, error) {
	args := m.Called(ctx, listingID, userID, counterpartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MessageStore) ExistsFromSender(ctx context.Context, listingID, senderID string) (bool, error) {
	args := m.Called(ctx, listingID, senderID)
	return args.Bool(0), args.Error(1)
}

type ImageStore struct {
	mock.Mock
}

func (m *ImageStore) Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, name, body, size, contentType)
	return args.Error(0)
}

func (m *ImageStore) PublicURL(name string) string {
	args := m.Called(name)
	return args.String(0)
}
