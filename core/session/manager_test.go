package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
	"github.com/darasahq/darasa/tests"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// mockProvider is a scriptable auth provider.
type mockProvider struct {
	mu          sync.Mutex
	signInSess  session.ProviderSession
	signInErr   error
	currentSess *session.ProviderSession
	signOutErr  error
	signOuts    []string
	events      chan session.Event
}

var _ session.Provider = (*mockProvider)(nil)

func newMockProvider() *mockProvider {
	return &mockProvider{events: make(chan session.Event, 16)}
}

func (p *mockProvider) SignInWithPassword(ctx context.Context, email, secret string) (session.ProviderSession, error) {
	if p.signInErr != nil {
		return session.ProviderSession{}, p.signInErr
	}
	return p.signInSess, nil
}

func (p *mockProvider) SignOut(ctx context.Context, userID string) error {
	p.mu.Lock()
	p.signOuts = append(p.signOuts, userID)
	p.mu.Unlock()
	return p.signOutErr
}

func (p *mockProvider) CurrentSession(ctx context.Context) (session.ProviderSession, error) {
	if p.currentSess == nil {
		return session.ProviderSession{}, session.ErrNoSession
	}
	return *p.currentSess, nil
}

func (p *mockProvider) Events() <-chan session.Event { return p.events }

func (p *mockProvider) signedOut() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.signOuts...)
}

func newProfileService(t *testing.T) (*profile.Service, profile.Repository) {
	t.Helper()
	repo := dummydb.NewProfileRepository(dummydb.Open(nil))
	return profile.NewService(repo), repo
}

func Test_Manager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		profiles, repo := newProfileService(t)
		p := testutil.CreateProfile(t, repo, "Student One", "student1@school.edu", profile.RoleStudent, "")
		provider := newMockProvider()
		provider.signInSess = session.ProviderSession{UserID: p.ID, Email: p.Email}

		m := session.NewManager(provider, profiles, nopLogger{})
		defer m.Close()

		got, err := m.Login(ctx, p.Email, "Verysecret!")
		if err != nil {
			t.Fatalf("Login(): %v", err)
		}
		if got.ID != p.ID {
			t.Errorf("profile ID = %s; want %s", got.ID, p.ID)
		}
		if m.State() != session.StateAuthenticated {
			t.Errorf("state = %v; want authenticated", m.State())
		}
		if role := m.Role(); role != profile.RoleStudent {
			t.Errorf("role = %q; want student", role)
		}
	})

	t.Run("invalid credentials", func(t *testing.T) {
		profiles, _ := newProfileService(t)
		provider := newMockProvider()
		provider.signInErr = session.ErrInvalidCredentials

		m := session.NewManager(provider, profiles, nopLogger{})
		defer m.Close()

		_, err := m.Login(ctx, "student1@school.edu", "nope")
		if errors.Cause(err) != session.ErrInvalidCredentials {
			t.Errorf("err = %v; want ErrInvalidCredentials", err)
		}
		if m.Authenticated() {
			t.Error("session authenticated after failed login")
		}
	})

	t.Run("authenticated upstream but unknown here", func(t *testing.T) {
		profiles, _ := newProfileService(t)
		provider := newMockProvider()
		provider.signInSess = session.ProviderSession{UserID: "ghost"}

		m := session.NewManager(provider, profiles, nopLogger{})
		defer m.Close()

		_, err := m.Login(ctx, "ghost@school.edu", "Verysecret!")
		if errors.Cause(err) != session.ErrProfileNotFound {
			t.Errorf("err = %v; want ErrProfileNotFound", err)
		}
		// the dangling remote session must be torn down
		if outs := provider.signedOut(); len(outs) != 1 || outs[0] != "ghost" {
			t.Errorf("signOuts = %v; want [ghost]", outs)
		}
	})
}

func Test_Manager_Logout(t *testing.T) {
	ctx := context.Background()
	profiles, repo := newProfileService(t)
	p := testutil.CreateProfile(t, repo, "Student One", "student1@school.edu", profile.RoleStudent, "")
	provider := newMockProvider()
	provider.signInSess = session.ProviderSession{UserID: p.ID}
	provider.signOutErr = errors.New("identity service down")

	m := session.NewManager(provider, profiles, nopLogger{})
	defer m.Close()

	if _, err := m.Login(ctx, p.Email, "Verysecret!"); err != nil {
		t.Fatalf("Login(): %v", err)
	}

	// a failing remote sign-out must still clear local state
	m.Logout(ctx)
	if m.State() != session.StateAnonymous {
		t.Errorf("state = %v; want anonymous", m.State())
	}
	if _, ok := m.Current(); ok {
		t.Error("Current() still returns a profile after logout")
	}
	if outs := provider.signedOut(); len(outs) != 1 || outs[0] != p.ID {
		t.Errorf("signOuts = %v; want [%s]", outs, p.ID)
	}
}

func Test_Manager_restore(t *testing.T) {
	t.Run("persisted session", func(t *testing.T) {
		profiles, repo := newProfileService(t)
		p := testutil.CreateProfile(t, repo, "Student One", "student1@school.edu", profile.RoleStudent, "")
		provider := newMockProvider()
		provider.currentSess = &session.ProviderSession{UserID: p.ID}

		m := session.NewManager(provider, profiles, nopLogger{})
		defer m.Close()

		if m.State() != session.StateResolving {
			t.Fatalf("state = %v; want resolving before Start", m.State())
		}
		m.Start(context.Background())
		assert.Eventually(t, func() bool {
			return m.State() == session.StateAuthenticated
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("no persisted session", func(t *testing.T) {
		profiles, _ := newProfileService(t)
		m := session.NewManager(newMockProvider(), profiles, nopLogger{})
		defer m.Close()

		m.Start(context.Background())
		assert.Eventually(t, func() bool {
			return m.State() == session.StateAnonymous
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("persisted session with no profile", func(t *testing.T) {
		profiles, _ := newProfileService(t)
		provider := newMockProvider()
		provider.currentSess = &session.ProviderSession{UserID: "ghost"}

		m := session.NewManager(provider, profiles, nopLogger{})
		defer m.Close()

		m.Start(context.Background())
		assert.Eventually(t, func() bool {
			return m.State() == session.StateAnonymous
		}, 2*time.Second, 5*time.Millisecond)
	})
}

func Test_Manager_Apply(t *testing.T) {
	ctx := context.Background()
	profiles, repo := newProfileService(t)
	p := testutil.CreateProfile(t, repo, "Student One", "student1@school.edu", profile.RoleStudent, "")
	provider := newMockProvider()
	provider.signInSess = session.ProviderSession{UserID: p.ID}

	m := session.NewManager(provider, profiles, nopLogger{})
	defer m.Close()

	if _, err := m.Login(ctx, p.Email, "Verysecret!"); err != nil {
		t.Fatalf("Login(): %v", err)
	}

	// someone else's sign-out leaves this session alone
	m.Apply(ctx, session.Event{Type: session.EventSignedOut, UserID: "someone-else"})
	if !m.Authenticated() {
		t.Fatal("session dropped on another user's sign-out")
	}

	m.Apply(ctx, session.Event{Type: session.EventTokenExpired, UserID: p.ID})
	if m.State() != session.StateAnonymous {
		t.Errorf("state = %v; want anonymous after expiry", m.State())
	}
}

func Test_Registry(t *testing.T) {
	ctx := context.Background()
	profiles, repo := newProfileService(t)
	p := testutil.CreateProfile(t, repo, "Student One", "student1@school.edu", profile.RoleStudent, "")
	provider := newMockProvider()
	provider.signInSess = session.ProviderSession{UserID: p.ID}

	reg := session.NewRegistry(provider, profiles, nopLogger{})
	defer reg.Close()
	reg.Start(ctx)

	if _, ok := reg.Get(p.ID); ok {
		t.Fatal("Get() found a session before login")
	}

	got, err := reg.Login(ctx, p.Email, "Verysecret!")
	if err != nil {
		t.Fatalf("Login(): %v", err)
	}
	m, ok := reg.Get(got.ID)
	if !ok {
		t.Fatal("Get() found no session after login")
	}
	if m.Role() != profile.RoleStudent {
		t.Errorf("role = %q; want student", m.Role())
	}

	t.Run("expiry event drops the session", func(t *testing.T) {
		provider.events <- session.Event{Type: session.EventTokenExpired, UserID: p.ID}
		assert.Eventually(t, func() bool {
			_, ok := reg.Get(p.ID)
			return !ok
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("logout drops the session", func(t *testing.T) {
		if _, err := reg.Login(ctx, p.Email, "Verysecret!"); err != nil {
			t.Fatalf("Login(): %v", err)
		}
		reg.Logout(ctx, p.ID)
		if _, ok := reg.Get(p.ID); ok {
			t.Error("Get() still finds a session after logout")
		}
		if outs := provider.signedOut(); len(outs) == 0 {
			t.Error("remote sign-out never called")
		}
	})
}
