package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/session"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.mu.Lock()
	repo.db.notifications[n.ID] = &n
	repo.db.mu.Unlock()

	repo.db.changed(TableNotifications)
	return n, nil
}

func (repo *notificationRepository) QueryNotificationsByRecipient(ctx context.Context, recipientID string) ([]notification.Notification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var out []notification.Notification
	for _, n := range repo.db.notifications {
		if n.RecipientID == recipientID {
			out = append(out, *n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) SetNotificationRead(ctx context.Context, id string, read bool) (notification.Notification, error) {
	repo.db.mu.Lock()
	n, ok := repo.db.notifications[id]
	if !ok {
		repo.db.mu.Unlock()
		return notification.Notification{}, notification.ErrNotFound
	}
	n.Read = read
	out := *n
	repo.db.mu.Unlock()

	repo.db.changed(TableNotifications)
	return out, nil
}

type credentialRepository struct {
	db *DB
}

var _ session.CredentialRepository = (*credentialRepository)(nil) // interface compliance check

func NewCredentialRepository(db *DB) session.CredentialRepository {
	return &credentialRepository{db: db}
}

func (repo *credentialRepository) GetCredentialsByEmail(ctx context.Context, email string) (session.Credentials, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.credentials[email]; ok {
		return *c, nil
	}
	return session.Credentials{}, session.ErrCredentialsNotFound
}

func (repo *credentialRepository) UpsertCredentials(ctx context.Context, c session.Credentials) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	// drop a stale email key when the email changed
	for email, old := range repo.db.credentials {
		if old.ProfileID == c.ProfileID && email != c.Email {
			delete(repo.db.credentials, email)
		}
	}
	repo.db.credentials[c.Email] = &c
	return nil
}

func (repo *credentialRepository) SetLastLogin(ctx context.Context, profileID string, t time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, c := range repo.db.credentials {
		if c.ProfileID == profileID {
			c.LastLogin.SetValid(t)
			return nil
		}
	}
	return session.ErrCredentialsNotFound
}
