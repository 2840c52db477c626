package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/auth"
	"roomrent/marketplace/internal/models"
)

type SessionProvider interface {
	SignUp(ctx context.Context, form models.SignUpForm) (*auth.Session, *models.User, error)
	SignIn(ctx context.Context, form models.SignInForm) (*auth.Session, *models.User, error)
	SignOut(ctx context.Context, token string) error
	Current(ctx context.Context, token string) (*models.User, *auth.Session, error)
	Close()
}

type sessionProvider struct {
	auth           Authenticator
	users          UserStore
	validate       *validator.Validate
	profileTimeout time.Duration
	logger         *logrus.Logger

	mu          sync.RWMutex
	current     map[string]cachedProfile
	lastSweep   time.Time
	now         func() time.Time
	unsubscribe func()
}

// cachedProfile is dropped once the session it belongs to expires.
type cachedProfile struct {
	user      *models.User
	expiresAt time.Time
}

const (
	// fallbackProfileTTL bounds entries whose session carries no expiry.
	fallbackProfileTTL = time.Hour
	sweepInterval      = time.Minute
)

// NewSessionProvider subscribes to session changes for the provider's
// lifetime; call Close to release the subscription.
func NewSessionProvider(authenticator Authenticator, users UserStore, logger *logrus.Logger) SessionProvider {
	p := &sessionProvider{
		auth:           authenticator,
		users:          users,
		validate:       validator.New(),
		profileTimeout: 5 * time.Second,
		logger:         logger,
		current:        make(map[string]cachedProfile),
		now:            time.Now,
	}
	p.unsubscribe = authenticator.Subscribe(p.onSessionChange)
	return p
}

func (p *sessionProvider) onSessionChange(event auth.Event) {
	switch event.Type {
	case auth.SignedIn:
		ctx, cancel := context.WithTimeout(context.Background(), p.profileTimeout)
		defer cancel()

		user, err := p.users.GetByID(ctx, event.IdentityID)
		if err != nil {
			p.logger.WithError(err).WithField("identity_id", event.IdentityID).Warn("Failed to fetch profile after sign in")
			p.forget(event.SessionID)
			return
		}
		p.remember(event.SessionID, user, event.ExpiresAt)
	case auth.SignedOut:
		p.forget(event.SessionID)
	}
}

func (p *sessionProvider) remember(sessionID string, user *models.User, expiresAt time.Time) {
	now := p.now()
	if expiresAt.IsZero() {
		expiresAt = now.Add(fallbackProfileTTL)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if now.Sub(p.lastSweep) >= sweepInterval {
		for id, entry := range p.current {
			if !now.Before(entry.expiresAt) {
				delete(p.current, id)
			}
		}
		p.lastSweep = now
	}
	p.current[sessionID] = cachedProfile{user: user, expiresAt: expiresAt}
}

func (p *sessionProvider) forget(sessionID string) {
	p.mu.Lock()
	delete(p.current, sessionID)
	p.mu.Unlock()
}

func (p *sessionProvider) cached(sessionID string) (*models.User, bool) {
	p.mu.RLock()
	entry, ok := p.current[sessionID]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !p.now().Before(entry.expiresAt) {
		p.mu.Lock()
		if current, still := p.current[sessionID]; still && current == entry {
			delete(p.current, sessionID)
		}
		p.mu.Unlock()
		return nil, false
	}
	return entry.user, true
}

// profile returns the cached user for session, fetching and caching it when
// absent. A missing profile row is an authentication failure.
func (p *sessionProvider) profile(ctx context.Context, session *auth.Session) (*models.User, error) {
	if user, ok := p.cached(session.ID); ok {
		return user, nil
	}

	user, err := p.users.GetByID(ctx, session.IdentityID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: profile missing", models.ErrAuth)
		}
		return nil, err
	}
	p.remember(session.ID, user, session.ExpiresAt)
	return user, nil
}

func (p *sessionProvider) SignUp(ctx context.Context, form models.SignUpForm) (*auth.Session, *models.User, error) {
	if err := p.validate.Struct(form); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if form.Role == "" {
		form.Role = models.RoleTenant
	}

	identity, err := p.auth.SignUp(ctx, form.Email, form.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &models.User{
		ID:    identity.ID,
		Name:  strings.TrimSpace(form.Name),
		Email: identity.Email,
		Phone: strings.TrimSpace(form.Phone),
		Role:  form.Role,
	}

	if err := p.users.Create(ctx, user); err != nil {
		p.logger.WithError(err).WithField("identity_id", identity.ID).Error("Failed to create profile")

		profileErr := fmt.Errorf("%w: %v", models.ErrProfileWrite, err)
		if rollbackErr := p.auth.DeleteIdentity(ctx, identity.ID); rollbackErr != nil {
			p.logger.WithError(rollbackErr).WithField("identity_id", identity.ID).Error("Failed to roll back identity")
			return nil, nil, errors.Join(profileErr, fmt.Errorf("rollback identity: %w", rollbackErr))
		}
		return nil, nil, profileErr
	}

	p.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User signed up")

	return p.SignIn(ctx, models.SignInForm{Email: form.Email, Password: form.Password})
}

func (p *sessionProvider) SignIn(ctx context.Context, form models.SignInForm) (*auth.Session, *models.User, error) {
	if err := p.validate.Struct(form); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	session, err := p.auth.SignIn(ctx, form.Email, form.Password)
	if err != nil {
		return nil, nil, err
	}

	user, err := p.profile(ctx, session)
	if err != nil {
		p.logger.WithError(err).WithField("session_id", session.ID).Warn("Signed in without a profile")
		if signOutErr := p.auth.SignOut(ctx, session.Token); signOutErr != nil {
			p.logger.WithError(signOutErr).WithField("session_id", session.ID).Error("Failed to revoke session")
		}
		return nil, nil, err
	}
	return session, user, nil
}

func (p *sessionProvider) SignOut(ctx context.Context, token string) error {
	return p.auth.SignOut(ctx, token)
}

// Current resolves the user behind a session token, fetching the profile
// when the sign-in event was not observed by this process.
func (p *sessionProvider) Current(ctx context.Context, token string) (*models.User, *auth.Session, error) {
	session, err := p.auth.Verify(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	user, err := p.profile(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (p *sessionProvider) Close() {
	p.unsubscribe()

	p.mu.Lock()
	p.current = make(map[string]cachedProfile)
	p.mu.Unlock()
}
