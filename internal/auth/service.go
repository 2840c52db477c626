package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"roomrent/marketplace/internal/models"
)

type IdentityStore interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	Delete(ctx context.Context, id string) error
}

type Session struct {
	ID         string    `json:"-"`
	IdentityID string    `json:"identity_id"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type Service interface {
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*Session, error)
	DeleteIdentity(ctx context.Context, id string) error
	Subscribe(fn func(Event)) (unsubscribe func())
}

type service struct {
	identities IdentityStore
	sessions   SessionStore
	tokens     *TokenIssuer
	notifier   *Notifier
	sessionTTL time.Duration
	hashCost   int
	logger     *logrus.Logger
}

func NewService(identities IdentityStore, sessions SessionStore, tokens *TokenIssuer, notifier *Notifier, sessionTTL time.Duration, logger *logrus.Logger) Service {
	return &service{
		identities: identities,
		sessions:   sessions,
		tokens:     tokens,
		notifier:   notifier,
		sessionTTL: sessionTTL,
		hashCost:   bcrypt.DefaultCost,
		logger:     logger,
	}
}

func (s *service) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", models.ErrAuth)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", models.ErrAuth, err)
	}

	identity := &models.Identity{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		s.logger.WithError(err).WithField("email", identity.Email).Error("Failed to create identity")
		if errors.Is(err, models.ErrAuth) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrAuth, err)
	}

	s.logger.WithField("identity_id", identity.ID).Info("Identity created")
	return identity, nil
}

func (s *service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	identity, err := s.identities.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", models.ErrAuth)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		s.logger.WithField("identity_id", identity.ID).Warn("Password mismatch on sign in")
		return nil, fmt.Errorf("%w: invalid email or password", models.ErrAuth)
	}

	sessionID := uuid.New().String()
	token, expiresAt, err := s.tokens.Issue(identity.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAuth, err)
	}

	if err := s.sessions.Save(ctx, sessionID, identity.ID, s.sessionTTL); err != nil {
		s.logger.WithError(err).Error("Failed to save session")
		return nil, err
	}

	session := &Session{
		ID:         sessionID,
		IdentityID: identity.ID,
		Token:      token,
		ExpiresAt:  expiresAt,
	}

	s.logger.WithFields(logrus.Fields{
		"identity_id": identity.ID,
		"session_id":  sessionID,
	}).Info("Signed in")

	s.notifier.Publish(Event{Type: SignedIn, SessionID: sessionID, IdentityID: identity.ID, ExpiresAt: expiresAt})
	return session, nil
}

func (s *service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		s.logger.WithError(err).WithField("session_id", claims.ID).Error("Failed to delete session")
		return err
	}

	s.logger.WithField("session_id", claims.ID).Info("Signed out")
	s.notifier.Publish(Event{Type: SignedOut, SessionID: claims.ID, IdentityID: claims.Subject})
	return nil
}

// Verify checks the token signature and that its session has not been
// revoked.
func (s *service) Verify(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	identityID, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if identityID != claims.Subject {
		return nil, fmt.Errorf("%w: session does not match token", models.ErrAuth)
	}

	session := &Session{
		ID:         claims.ID,
		IdentityID: identityID,
		Token:      token,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

func (s *service) DeleteIdentity(ctx context.Context, id string) error {
	if err := s.identities.Delete(ctx, id); err != nil {
		s.logger.WithError(err).WithField("identity_id", id).Error("Failed to delete identity")
		return err
	}
	s.logger.WithField("identity_id", id).Info("Identity deleted")
	return nil
}

func (s *service) Subscribe(fn func(Event)) func() {
	return s.notifier.Subscribe(fn)
}
