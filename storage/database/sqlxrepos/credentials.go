package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/session"
)

type credentialsRow struct {
	ProfileID    string    `db:"profile_id"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	LastLogin    null.Time `db:"last_login"`
}

type credentialRepository struct {
	db *sqlx.DB
}

var _ session.CredentialRepository = (*credentialRepository)(nil) // interface compliance check

func NewCredentialRepository(db *sqlx.DB) session.CredentialRepository {
	return &credentialRepository{db: db}
}

func (repo *credentialRepository) GetCredentialsByEmail(ctx context.Context, email string) (session.Credentials, error) {
	var row credentialsRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM auth_users WHERE email = $1`, email); err != nil {
		if err == sql.ErrNoRows {
			return session.Credentials{}, session.ErrCredentialsNotFound
		}
		return session.Credentials{}, errors.Wrap(err, "getting credentials")
	}
	return session.Credentials{
		ProfileID:    row.ProfileID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		LastLogin:    row.LastLogin,
	}, nil
}

func (repo *credentialRepository) UpsertCredentials(ctx context.Context, c session.Credentials) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO auth_users (profile_id, email, password_hash, last_login)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (profile_id) DO UPDATE SET email = $2, password_hash = $3`,
		c.ProfileID, c.Email, c.PasswordHash, c.LastLogin)
	return errors.Wrap(err, "upserting credentials")
}

func (repo *credentialRepository) SetLastLogin(ctx context.Context, profileID string, t time.Time) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE auth_users SET last_login = $2 WHERE profile_id = $1`, profileID, t)
	return errors.Wrap(err, "setting last login")
}
