package service

import (
	"context"
	"io"

	"roomrent/marketplace/internal/auth"
	"roomrent/marketplace/internal/models"
)

type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*auth.Session, error)
	DeleteIdentity(ctx context.Context, id string) error
	Subscribe(fn func(auth.Event)) (unsubscribe func())
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type ListingStore interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetWithOwner(ctx context.Context, id string) (*models.Listing, error)
	GetOwned(ctx context.Context, id, ownerID string) (*models.Listing, error)
	SearchAvailable(ctx context.Context, term string) ([]*models.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	ToggleAvailability(ctx context.Context, id, ownerID string) (bool, error)
	Delete(ctx context.Context, id, ownerID string) error
}

type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListForUser(ctx context.Context, userID string) ([]*models.Message, error)
	ListThread(ctx context.Context, listingID, userID, counterpartID string) ([]*models.Message, error)
	ExistsFromSender(ctx context.Context, listingID, senderID string) (bool, error)
}

type ImageStore interface {
	Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error
	PublicURL(name string) string
}

// MessageFeed delivers insert notifications per listing. The channel returned
// by Subscribe is closed once ctx is done.
type MessageFeed interface {
	Publish(ctx context.Context, event models.FeedEvent) error
	Subscribe(ctx context.Context, listingID string) (<-chan models.FeedEvent, error)
}

// Upload is one image file submitted with a listing form.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}
