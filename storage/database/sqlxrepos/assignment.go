package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/assignment"
)

type assignmentRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Subject     string    `db:"subject"`
	Status      string    `db:"status"`
	DueAt       time.Time `db:"due_at"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r assignmentRow) toDomain() assignment.Assignment {
	return assignment.Assignment{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Subject:     r.Subject,
		Status:      r.Status,
		DueAt:       r.DueAt.UTC(),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type studentAssignmentRow struct {
	AssignmentID string      `db:"assignment_id"`
	StudentID    string      `db:"student_id"`
	Status       string      `db:"status"`
	Progress     int         `db:"progress"`
	Feedback     null.String `db:"feedback"`
	Grade        null.String `db:"grade"`
	SubmittedAt  null.Time   `db:"submitted_at"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r studentAssignmentRow) toDomain() assignment.StudentAssignment {
	return assignment.StudentAssignment{
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Status:       r.Status,
		Progress:     r.Progress,
		Feedback:     r.Feedback,
		Grade:        r.Grade,
		SubmittedAt:  r.SubmittedAt,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO assignments (id, title, description, subject, status, due_at, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Title, a.Description, a.Subject, a.Status, a.DueAt, a.CreatedBy, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignments WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.toDomain(), nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.View, error) {
	var rows []assignmentRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM assignments ORDER BY due_at, created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}

	views := make([]assignment.View, 0, len(rows))
	for _, r := range rows {
		views = append(views, assignment.View{Assignment: r.toDomain()})
	}
	if filter.IsEmpty() {
		return views, nil
	}

	// attach the requesting student's join rows; assignments without one
	// still appear
	var saRows []studentAssignmentRow
	err = repo.db.SelectContext(ctx, &saRows,
		`SELECT * FROM student_assignments WHERE student_id = $1`, filter.StudentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student assignments")
	}
	byAssignment := make(map[string]assignment.StudentAssignment, len(saRows))
	for _, r := range saRows {
		byAssignment[r.AssignmentID] = r.toDomain()
	}
	for i := range views {
		if sa, ok := byAssignment[views[i].ID]; ok {
			sa := sa
			views[i].StudentAssignment = &sa
		}
	}
	return views, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE assignments
		 SET title = $2, description = $3, subject = $4, status = $5, due_at = $6, updated_at = $7
		 WHERE id = $1`,
		a.ID, a.Title, a.Description, a.Subject, a.Status, a.DueAt, a.UpdatedAt)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return a, nil
}

func (repo *assignmentRepository) CreateStudentAssignment(ctx context.Context, sa assignment.StudentAssignment) (assignment.StudentAssignment, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO student_assignments (assignment_id, student_id, status, progress, feedback, grade, submitted_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sa.AssignmentID, sa.StudentID, sa.Status, sa.Progress, sa.Feedback, sa.Grade, sa.SubmittedAt, sa.CreatedAt, sa.UpdatedAt)
	if err != nil {
		return assignment.StudentAssignment{}, errors.Wrap(err, "inserting student assignment")
	}
	return sa, nil
}

func (repo *assignmentRepository) GetStudentAssignment(ctx context.Context, assignmentID, studentID string) (assignment.StudentAssignment, error) {
	var row studentAssignmentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM student_assignments WHERE assignment_id = $1 AND student_id = $2`,
		assignmentID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return assignment.StudentAssignment{}, assignment.ErrNotFound
		}
		return assignment.StudentAssignment{}, errors.Wrap(err, "getting student assignment")
	}
	return row.toDomain(), nil
}

func (repo *assignmentRepository) UpdateStudentAssignment(ctx context.Context, sa assignment.StudentAssignment) (assignment.StudentAssignment, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE student_assignments
		 SET status = $3, progress = $4, feedback = $5, grade = $6, submitted_at = $7, updated_at = $8
		 WHERE assignment_id = $1 AND student_id = $2`,
		sa.AssignmentID, sa.StudentID, sa.Status, sa.Progress, sa.Feedback, sa.Grade, sa.SubmittedAt, sa.UpdatedAt)
	if err != nil {
		return assignment.StudentAssignment{}, errors.Wrap(err, "updating student assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.StudentAssignment{}, assignment.ErrNotFound
	}
	return sa, nil
}
