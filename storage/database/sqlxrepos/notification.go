package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/notification"
)

type notificationRow struct {
	ID          string    `db:"id"`
	RecipientID string    `db:"recipient_id"`
	Message     string    `db:"message"`
	Severity    string    `db:"severity"`
	Read        bool      `db:"read"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r notificationRow) toDomain() notification.Notification {
	return notification.Notification{
		ID:          r.ID,
		RecipientID: r.RecipientID,
		Message:     r.Message,
		Severity:    r.Severity,
		Read:        r.Read,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, message, severity, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.RecipientID, n.Message, n.Severity, n.Read, n.CreatedAt)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) QueryNotificationsByRecipient(ctx context.Context, recipientID string) ([]notification.Notification, error) {
	var rows []notificationRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC`, recipientID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	out := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM notifications WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return row.toDomain(), nil
}

func (repo *notificationRepository) SetNotificationRead(ctx context.Context, id string, read bool) (notification.Notification, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE notifications SET read = $2 WHERE id = $1`, id, read)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "updating notification")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notification.Notification{}, notification.ErrNotFound
	}
	return repo.GetNotificationByID(ctx, id)
}
