package session

import (
	"context"
	"sync"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/profile"
)

// Registry tracks one Manager per signed-in profile on behalf of the API
// server. It owns the provider's event feed and routes each event to the
// affected session; sessions for signed-out or expired users are dropped so
// the next navigation sees them as anonymous.
type Registry struct {
	provider Provider
	profiles *profile.Service
	logger   core.Logger

	mu       sync.RWMutex
	managers map[string]*Manager

	done      chan struct{}
	closeOnce sync.Once
}

func NewRegistry(provider Provider, profiles *profile.Service, logger core.Logger) *Registry {
	return &Registry{
		provider: provider,
		profiles: profiles,
		logger:   logger,
		managers: make(map[string]*Manager),
		done:     make(chan struct{}),
	}
}

// Start consumes the provider's session-change feed until Close is called.
func (r *Registry) Start(ctx context.Context) {
	go func() {
		events := r.provider.Events()
		for {
			select {
			case <-r.done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				r.apply(ctx, ev)
			}
		}
	}()
}

func (r *Registry) apply(ctx context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case EventSignedOut, EventTokenExpired:
		if m, ok := r.managers[ev.UserID]; ok {
			m.Apply(ctx, ev)
			m.Close()
			delete(r.managers, ev.UserID)
		}
	}
}

// Login authenticates against the provider and registers a session Manager
// for the resolved profile.
func (r *Registry) Login(ctx context.Context, email, secret string) (profile.Profile, error) {
	m := NewManager(r.provider, r.profiles, r.logger)
	p, err := m.Login(ctx, email, secret)
	if err != nil {
		return profile.Profile{}, err
	}

	r.mu.Lock()
	if old, ok := r.managers[p.ID]; ok {
		old.Close()
	}
	r.managers[p.ID] = m
	r.mu.Unlock()
	return p, nil
}

// Logout tears down the profile's session; it never fails the caller.
func (r *Registry) Logout(ctx context.Context, profileID string) {
	r.mu.Lock()
	m, ok := r.managers[profileID]
	if ok {
		delete(r.managers, profileID)
	}
	r.mu.Unlock()

	if ok {
		m.Logout(ctx)
		m.Close()
	}
}

// Get returns the live session Manager for a profile, if any.
func (r *Registry) Get(profileID string) (*Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[profileID]
	return m, ok
}

func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		r.mu.Lock()
		for id, m := range r.managers {
			m.Close()
			delete(r.managers, id)
		}
		r.mu.Unlock()
	})
}
