package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/profile"
)

type State int

// Session states. A Manager starts out Resolving until the provider has been
// asked for a persisted session; consumers must treat Resolving as distinct
// from Anonymous so a still-resolving session is not bounced to login.
const (
	StateResolving State = iota
	StateAnonymous
	StateAuthenticated
)

// Manager holds the current authenticated Identity, if any, for the life of
// one client session. It delegates credential checks to the auth Provider and
// resolves the provider's opaque user id to a Profile.
type Manager struct {
	provider Provider
	profiles *profile.Service
	logger   core.Logger

	mu      sync.RWMutex
	state   State
	current profile.Profile

	done      chan struct{}
	closeOnce sync.Once
}

func NewManager(provider Provider, profiles *profile.Service, logger core.Logger) *Manager {
	return &Manager{
		provider: provider,
		profiles: profiles,
		logger:   logger,
		state:    StateResolving,
		done:     make(chan struct{}),
	}
}

// Start resolves any persisted provider session in the background and then
// consumes the provider's session-change feed until Close is called.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		m.restore(ctx)
		m.watch(ctx)
	}()
}

func (m *Manager) restore(ctx context.Context) {
	sess, err := m.provider.CurrentSession(ctx)
	if err != nil {
		if errors.Cause(err) != ErrNoSession {
			m.logger.Warn("restoring persisted session", err)
		}
		m.setAnonymous()
		return
	}
	if err := m.resolve(ctx, sess.UserID); err != nil {
		m.logger.Warn("resolving persisted session", err)
		m.setAnonymous()
	}
}

func (m *Manager) watch(ctx context.Context) {
	events := m.provider.Events()
	for {
		select {
		case <-m.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Apply(ctx, ev)
		}
	}
}

// Apply reacts to a provider session-change event, updating local session
// state without requiring a reload.
func (m *Manager) Apply(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventSignedIn:
		if err := m.resolve(ctx, ev.UserID); err != nil {
			m.logger.Warn("resolving signed-in user", err)
			m.setAnonymous()
		}
	case EventSignedOut, EventTokenExpired:
		m.mu.Lock()
		if m.state != StateAuthenticated || m.current.ID == ev.UserID {
			m.state = StateAnonymous
			m.current = profile.Profile{}
		}
		m.mu.Unlock()
	}
}

func (m *Manager) setAnonymous() {
	m.mu.Lock()
	m.state = StateAnonymous
	m.current = profile.Profile{}
	m.mu.Unlock()
}

func (m *Manager) resolve(ctx context.Context, userID string) error {
	p, err := m.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Cause(err) == profile.ErrNotFound {
			return ErrProfileNotFound
		}
		return errors.Wrap(err, "finding profile by id")
	}
	m.mu.Lock()
	m.state = StateAuthenticated
	m.current = p
	m.mu.Unlock()
	return nil
}

// Login delegates credential verification to the provider and resolves the
// resulting user to a Profile. The session is left empty on any failure.
func (m *Manager) Login(ctx context.Context, email, secret string) (profile.Profile, error) {
	sess, err := m.provider.SignInWithPassword(ctx, email, secret)
	if err != nil {
		if errors.Cause(err) == ErrInvalidCredentials {
			return profile.Profile{}, ErrInvalidCredentials
		}
		return profile.Profile{}, errors.Wrap(err, "provider sign-in")
	}

	if err := m.resolve(ctx, sess.UserID); err != nil {
		// authenticated upstream but unknown here; do not leave the remote
		// session dangling
		if sErr := m.provider.SignOut(ctx, sess.UserID); sErr != nil {
			m.logger.Warn("signing out unresolvable user", sErr)
		}
		return profile.Profile{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, nil
}

// Logout invalidates the remote session and clears local state. Local state
// is cleared even when the remote call fails; the caller never sees an error.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	id := m.current.ID
	m.state = StateAnonymous
	m.current = profile.Profile{}
	m.mu.Unlock()

	if id != "" {
		if err := m.provider.SignOut(ctx, id); err != nil {
			m.logger.Warn("remote sign-out failed", err)
		}
	}
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Authenticated() bool {
	return m.State() == StateAuthenticated
}

// Current returns the authenticated Profile, if any.
func (m *Manager) Current() (profile.Profile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.state == StateAuthenticated
}

// Role returns the authenticated Profile's role, or "".
func (m *Manager) Role() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateAuthenticated {
		return ""
	}
	return m.current.Role
}

func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}
