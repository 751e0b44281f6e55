package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
)

// CreateProfile inserts a Profile fixture straight through the repository.
func CreateProfile(
	t *testing.T,
	repo profile.Repository,
	name, email, role, parentID string,
	createdAt ...time.Time,
) profile.Profile {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p := profile.Profile{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if parentID != "" {
		p.ParentID = null.StringFrom(parentID)
	}
	p, err := repo.CreateProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateProfile(): %v", err)
	}
	return p
}

// CreateCredentials provisions sign-in credentials for a Profile fixture.
func CreateCredentials(t *testing.T, repo session.CredentialRepository, p profile.Profile, pwd string) session.Credentials {
	t.Helper()

	creds := session.Credentials{ProfileID: p.ID, Email: p.Email}
	if err := creds.SetPassword(pwd); err != nil {
		t.Fatalf("CreateCredentials(): %v", err)
	}
	if err := repo.UpsertCredentials(context.Background(), creds); err != nil {
		t.Fatalf("CreateCredentials(): %v", err)
	}
	return creds
}

// CreateAssignment inserts an Assignment fixture.
func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	title, subject, status, createdBy string,
	dueAt time.Time,
	createdAt ...time.Time,
) assignment.Assignment {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	a := assignment.Assignment{
		ID:        uuid.New().String(),
		Title:     title,
		Subject:   subject,
		Status:    status,
		DueAt:     dueAt.UTC(),
		CreatedBy: createdBy,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	a, err := repo.CreateAssignment(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateAssignment(): %v", err)
	}
	return a
}

// AssignStudent inserts a student's progress record against an Assignment.
func AssignStudent(
	t *testing.T,
	repo assignment.Repository,
	assignmentID, studentID, status string,
	progress int,
) assignment.StudentAssignment {
	t.Helper()

	now := time.Now().UTC()
	sa := assignment.StudentAssignment{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Status:       status,
		Progress:     progress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sa, err := repo.CreateStudentAssignment(context.Background(), sa)
	if err != nil {
		t.Fatalf("AssignStudent(): %v", err)
	}
	return sa
}

// CreateNotification inserts a Notification fixture.
func CreateNotification(
	t *testing.T,
	repo notification.Repository,
	recipientID, message, severity string,
	read bool,
	createdAt ...time.Time,
) notification.Notification {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	n := notification.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Message:     message,
		Severity:    severity,
		Read:        read,
		CreatedAt:   tstamp,
	}
	n, err := repo.CreateNotification(context.Background(), n)
	if err != nil {
		t.Fatalf("CreateNotification(): %v", err)
	}
	return n
}
