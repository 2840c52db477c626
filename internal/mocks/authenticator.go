package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"roomrent/marketplace/internal/auth"
	"roomrent/marketplace/internal/models"
)

// Authenticator mocks the identity backend. Events passed to Emit reach
// every function registered through Subscribe.
type Authenticator struct {
	mock.Mock
	Notifier *auth.Notifier
}

func NewAuthenticator() *Authenticator {
	return &Authenticator{Notifier: auth.NewNotifier()}
}

func (m *Authenticator) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

func (m *Authenticator) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	session := args.Get(0).(*auth.Session)
	m.Emit(auth.Event{Type: auth.SignedIn, SessionID: session.ID, IdentityID: session.IdentityID, ExpiresAt: session.ExpiresAt})
	return session, args.Error(1)
}

func (m *Authenticator) SignOut(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *Authenticator) Verify(ctx context.Context, token string) (*auth.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *Authenticator) DeleteIdentity(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Authenticator) Subscribe(fn func(auth.Event)) func() {
	return m.Notifier.Subscribe(fn)
}

func (m *Authenticator) Emit(event auth.Event) {
	m.Notifier.Publish(event)
}
