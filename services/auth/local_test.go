package authsvc

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/session"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setupProvider(t *testing.T) (*LocalProvider, session.CredentialRepository) {
	t.Helper()

	repo := dummydb.NewCredentialRepository(dummydb.Open(nil))
	creds := session.Credentials{ProfileID: "student-1", Email: "student1@school.edu"}
	if err := creds.SetPassword("Verysecret!"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	if err := repo.UpsertCredentials(context.Background(), creds); err != nil {
		t.Fatalf("UpsertCredentials(): %v", err)
	}
	return NewLocalProvider(repo, time.Hour, nopLogger{}), repo
}

func nextEvent(t *testing.T, p *LocalProvider) session.Event {
	t.Helper()
	select {
	case ev := <-p.Events():
		return ev
	default:
		t.Fatal("no session event emitted")
		return session.Event{}
	}
}

func Test_LocalProvider_SignInWithPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		p, repo := setupProvider(t)
		defer p.Close()

		sess, err := p.SignInWithPassword(ctx, "student1@school.edu", "Verysecret!")
		if err != nil {
			t.Fatalf("SignInWithPassword(): %v", err)
		}
		if sess.UserID != "student-1" {
			t.Errorf("user id = %s; want student-1", sess.UserID)
		}
		if !p.Valid("student-1") {
			t.Error("Valid() = false after sign-in")
		}
		if ev := nextEvent(t, p); ev.Type != session.EventSignedIn || ev.UserID != "student-1" {
			t.Errorf("event = %+v; want signed_in for student-1", ev)
		}

		creds, err := repo.GetCredentialsByEmail(ctx, "student1@school.edu")
		if err != nil {
			t.Fatalf("GetCredentialsByEmail(): %v", err)
		}
		if !creds.LastLogin.Valid {
			t.Error("last login not recorded")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		p, _ := setupProvider(t)
		defer p.Close()

		_, err := p.SignInWithPassword(ctx, "student1@school.edu", "nope")
		if errors.Cause(err) != session.ErrInvalidCredentials {
			t.Errorf("err = %v; want ErrInvalidCredentials", err)
		}
		if p.Valid("student-1") {
			t.Error("Valid() = true after rejected sign-in")
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		p, _ := setupProvider(t)
		defer p.Close()

		_, err := p.SignInWithPassword(ctx, "nobody@school.edu", "Verysecret!")
		if errors.Cause(err) != session.ErrInvalidCredentials {
			t.Errorf("err = %v; want ErrInvalidCredentials", err)
		}
	})
}

func Test_LocalProvider_SignOut(t *testing.T) {
	ctx := context.Background()
	p, _ := setupProvider(t)
	defer p.Close()

	if _, err := p.SignInWithPassword(ctx, "student1@school.edu", "Verysecret!"); err != nil {
		t.Fatalf("SignInWithPassword(): %v", err)
	}
	nextEvent(t, p) // signed_in

	if err := p.SignOut(ctx, "student-1"); err != nil {
		t.Fatalf("SignOut(): %v", err)
	}
	if p.Valid("student-1") {
		t.Error("Valid() = true after sign-out")
	}
	if ev := nextEvent(t, p); ev.Type != session.EventSignedOut {
		t.Errorf("event = %+v; want signed_out", ev)
	}

	// signing out an absent session is a no-op, no event
	if err := p.SignOut(ctx, "student-1"); err != nil {
		t.Fatalf("SignOut(): %v", err)
	}
	select {
	case ev := <-p.Events():
		t.Errorf("unexpected event %+v", ev)
	default:
	}
}

func Test_LocalProvider_expiry(t *testing.T) {
	ctx := context.Background()
	p, _ := setupProvider(t)
	defer p.Close()

	if _, err := p.SignInWithPassword(ctx, "student1@school.edu", "Verysecret!"); err != nil {
		t.Fatalf("SignInWithPassword(): %v", err)
	}
	nextEvent(t, p) // signed_in

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if p.Valid("student-1") {
		t.Error("Valid() = true past the session TTL")
	}

	p.expireSessions()
	if ev := nextEvent(t, p); ev.Type != session.EventTokenExpired || ev.UserID != "student-1" {
		t.Errorf("event = %+v; want token_expired for student-1", ev)
	}
}

func Test_LocalProvider_CurrentSession(t *testing.T) {
	p, _ := setupProvider(t)
	defer p.Close()

	_, err := p.CurrentSession(context.Background())
	if errors.Cause(err) != session.ErrNoSession {
		t.Errorf("err = %v; want ErrNoSession", err)
	}
}
