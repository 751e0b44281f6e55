package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"
)

var ErrCredentialsNotFound = errors.New("credentials not found")

// Credentials is the built-in provider's record for one user. ProfileID
// doubles as the provider user id.
type Credentials struct {
	ProfileID    string
	Email        string
	PasswordHash []byte
	LastLogin    null.Time
}

func (c *Credentials) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	return nil
}

func (c *Credentials) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(pwd))
}

// CredentialRepository stores the built-in provider's credentials.
type CredentialRepository interface {
	GetCredentialsByEmail(ctx context.Context, email string) (Credentials, error)
	UpsertCredentials(ctx context.Context, c Credentials) error
	SetLastLogin(ctx context.Context, profileID string, t time.Time) error
}
