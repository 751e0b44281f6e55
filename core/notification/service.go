package notification

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/profile"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

var severitySubjects = map[string]string{
	SeverityInfo:    "Heads up",
	SeverityWarning: "Action needed",
	SeveritySuccess: "Good news",
	SeverityError:   "Something went wrong",
}

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		QueryNotificationsByRecipient(ctx context.Context, recipientID string) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		// SetNotificationRead flips the read flag; the message is immutable.
		SetNotificationRead(ctx context.Context, id string, read bool) (Notification, error)
	}

	Service struct {
		repo     Repository
		profiles *profile.Service
		mailSvc  core.EmailService
	}
)

func NewService(repo Repository, profiles *profile.Service, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, profiles: profiles, mailSvc: mailSvc}
}

// Create persists the notification and mails the recipient a copy.
// Mail delivery is best-effort and never fails the caller.
func (svc *Service) Create(ctx context.Context, nn NewNotification) (Notification, error) {
	n := Notification{
		ID:          uuid.New().String(),
		RecipientID: nn.RecipientID,
		Message:     nn.Message,
		Severity:    nn.Severity,
		CreatedAt:   time.Now().UTC(),
	}
	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, err
	}

	if recipient, err := svc.profiles.GetByID(ctx, n.RecipientID); err == nil {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: recipient.Name, Address: recipient.Email}},
			Subject: severitySubjects[n.Severity],
			Body:    n.Message,
		})
	}
	return n, nil
}

func (svc *Service) ListForRecipient(ctx context.Context, recipientID string) ([]Notification, error) {
	return svc.repo.QueryNotificationsByRecipient(ctx, recipientID)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Notification, error) {
	return svc.repo.GetNotificationByID(ctx, id)
}

func (svc *Service) MarkRead(ctx context.Context, id string) (Notification, error) {
	return svc.repo.SetNotificationRead(ctx, id, true)
}
