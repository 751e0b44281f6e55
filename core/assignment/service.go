package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		// QueryAssignments returns every Assignment ordered by due date then
		// creation time. When filter.StudentID is set, only that student's
		// join rows are attached; assignments without a matching row still
		// appear with a nil StudentAssignment.
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]View, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		CreateStudentAssignment(ctx context.Context, sa StudentAssignment) (StudentAssignment, error)
		GetStudentAssignment(ctx context.Context, assignmentID, studentID string) (StudentAssignment, error)
		UpdateStudentAssignment(ctx context.Context, sa StudentAssignment) (StudentAssignment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]View, error) {
	filter.Clean()
	return svc.repo.QueryAssignments(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

// Create persists a new Assignment and, when na.StudentIDs is set, a pending
// zero-progress join row per assigned student.
func (svc *Service) Create(ctx context.Context, createdBy string, na NewAssignment) (Assignment, error) {
	now := time.Now().UTC()
	a := Assignment{
		ID:          uuid.New().String(),
		Title:       na.Title,
		Description: na.Description,
		Subject:     na.Subject,
		Status:      StatusPending,
		DueAt:       na.DueAt.UTC(),
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	a, err := svc.repo.CreateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, err
	}

	for _, sid := range na.StudentIDs {
		sa := StudentAssignment{
			AssignmentID: a.ID,
			StudentID:    sid,
			Status:       StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := svc.repo.CreateStudentAssignment(ctx, sa); err != nil {
			return Assignment{}, errors.Wrap(err, "assigning student "+sid)
		}
	}
	return a, nil
}

func (svc *Service) Update(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	orig, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}

	a := orig
	if ua.Title != "" {
		a.Title = ua.Title
	}
	if ua.Description.Valid {
		a.Description = ua.Description.String
	}
	if ua.Subject != "" {
		a.Subject = ua.Subject
	}
	if ua.Status != "" {
		a.Status = ua.Status
	}
	if ua.DueAt.Valid {
		a.DueAt = ua.DueAt.Time.UTC()
	}
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, a)
}

// UpdateStudent updates the unique (assignment, student) pair; ErrNotFound
// when no such pairing exists.
func (svc *Service) UpdateStudent(ctx context.Context, assignmentID, studentID string, us UpdateStudentAssignment) (StudentAssignment, error) {
	orig, err := svc.repo.GetStudentAssignment(ctx, assignmentID, studentID)
	if err != nil {
		return StudentAssignment{}, err
	}

	sa := orig
	if us.Status != "" {
		sa.Status = us.Status
	}
	if us.Progress.Valid {
		sa.Progress = us.Progress.Int
	}
	if us.Feedback.Valid {
		sa.Feedback = us.Feedback
	}
	if us.Grade.Valid {
		sa.Grade = us.Grade
	}
	if us.SubmittedAt.Valid {
		sa.SubmittedAt = us.SubmittedAt
	}
	sa.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudentAssignment(ctx, sa)
}
