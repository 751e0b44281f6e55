// Package authsvc provides the built-in authentication provider backed by
// the auth_users table. It stands in for a hosted identity service: it
// verifies passwords, tracks live sessions with an expiry and feeds
// session-change events to its single consumer.
package authsvc

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/session"
)

type LocalProvider struct {
	creds  session.CredentialRepository
	logger core.Logger

	sessionTTL time.Duration
	now        func() time.Time // swapped in tests

	mu       sync.Mutex
	sessions map[string]session.ProviderSession // by user id

	events chan session.Event

	done      chan struct{}
	closeOnce sync.Once
}

var _ session.Provider = (*LocalProvider)(nil)

func NewLocalProvider(creds session.CredentialRepository, sessionTTL time.Duration, logger core.Logger) *LocalProvider {
	return &LocalProvider{
		creds:      creds,
		logger:     logger,
		sessionTTL: sessionTTL,
		now:        time.Now,
		sessions:   make(map[string]session.ProviderSession),
		events:     make(chan session.Event, 16),
		done:       make(chan struct{}),
	}
}

// Start runs the expiry janitor until Close is called.
func (p *LocalProvider) Start() {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				p.expireSessions()
			}
		}
	}()
}

func (p *LocalProvider) expireSessions() {
	now := p.now()
	p.mu.Lock()
	var expired []string
	for id, sess := range p.sessions {
		if sess.ExpiresAt.Before(now) {
			delete(p.sessions, id)
			expired = append(expired, id)
		}
	}
	p.mu.Unlock()

	for _, id := range expired {
		p.emit(session.Event{Type: session.EventTokenExpired, UserID: id})
	}
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, secret string) (session.ProviderSession, error) {
	creds, err := p.creds.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == session.ErrCredentialsNotFound {
			// burn a comparison so unknown emails cost the same as bad passwords
			_ = bcrypt.CompareHashAndPassword(fakeHash, []byte(secret))
			return session.ProviderSession{}, session.ErrInvalidCredentials
		}
		return session.ProviderSession{}, errors.Wrap(err, "finding credentials")
	}
	if err := creds.CheckPassword(secret); err != nil {
		return session.ProviderSession{}, session.ErrInvalidCredentials
	}

	sess := session.ProviderSession{
		UserID:    creds.ProfileID,
		Email:     creds.Email,
		ExpiresAt: p.now().Add(p.sessionTTL),
	}
	p.mu.Lock()
	p.sessions[sess.UserID] = sess
	p.mu.Unlock()

	if err := p.creds.SetLastLogin(ctx, creds.ProfileID, p.now().UTC()); err != nil {
		p.logger.Warn("recording last login", err)
	}
	p.emit(session.Event{Type: session.EventSignedIn, UserID: sess.UserID})
	return sess, nil
}

func (p *LocalProvider) SignOut(ctx context.Context, userID string) error {
	p.mu.Lock()
	_, ok := p.sessions[userID]
	delete(p.sessions, userID)
	p.mu.Unlock()

	if ok {
		p.emit(session.Event{Type: session.EventSignedOut, UserID: userID})
	}
	return nil
}

// CurrentSession always reports no session: the server keeps no ambient
// identity; each request carries its own token.
func (p *LocalProvider) CurrentSession(ctx context.Context) (session.ProviderSession, error) {
	return session.ProviderSession{}, session.ErrNoSession
}

func (p *LocalProvider) Events() <-chan session.Event {
	return p.events
}

// Valid reports whether the user holds a live, unexpired session.
func (p *LocalProvider) Valid(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[userID]
	return ok && sess.ExpiresAt.After(p.now())
}

func (p *LocalProvider) emit(ev session.Event) {
	select {
	case p.events <- ev:
	default:
		p.logger.Warn("session event feed full, dropping event: " + ev.Type)
	}
}

func (p *LocalProvider) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// cost-equalizing hash for unknown emails; "x" hashed once at init
var fakeHash, _ = bcrypt.GenerateFromPassword([]byte("x"), bcrypt.DefaultCost)
