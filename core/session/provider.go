package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no persisted session")
	ErrProfileNotFound    = errors.New("no profile for authenticated user")
)

// Event types emitted by an auth Provider.
const (
	EventSignedIn     = "signed_in"
	EventSignedOut    = "signed_out"
	EventTokenExpired = "token_expired"
)

type (
	// Event is a session-change notification from the auth provider:
	// a sign-in or sign-out elsewhere, or a token expiry.
	Event struct {
		Type   string
		UserID string
	}

	// ProviderSession is the provider's view of an authenticated user.
	// UserID doubles as the Profile ID.
	ProviderSession struct {
		UserID    string
		Email     string
		ExpiresAt time.Time
	}

	// Provider is the external authentication boundary. Credential
	// verification and session persistence are entirely its business;
	// this app only resolves its opaque user ids to Profiles.
	Provider interface {
		// SignInWithPassword verifies credentials; ErrInvalidCredentials on rejection.
		SignInWithPassword(ctx context.Context, email, secret string) (ProviderSession, error)
		// SignOut invalidates the user's remote session.
		SignOut(ctx context.Context, userID string) error
		// CurrentSession returns a previously persisted valid session, if
		// any; ErrNoSession otherwise.
		CurrentSession(ctx context.Context) (ProviderSession, error)
		// Events returns the provider's session-change feed. The channel is
		// owned by a single consumer.
		Events() <-chan Event
	}
)
