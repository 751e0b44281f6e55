package dummydb

import (
	"context"
	"sort"

	"github.com/darasahq/darasa/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	repo.db.assignments[a.ID] = &a
	repo.db.mu.Unlock()

	repo.db.changed(TableAssignments)
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.View, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	views := make([]assignment.View, 0, len(repo.db.assignments))
	for _, a := range repo.db.assignments {
		v := assignment.View{Assignment: *a}
		if !filter.IsEmpty() {
			if sa, ok := repo.db.studentAssignments[saKey(a.ID, filter.StudentID)]; ok {
				cp := *sa
				v.StudentAssignment = &cp
			}
		}
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].DueAt.Equal(views[j].DueAt) {
			return views[i].CreatedAt.Before(views[j].CreatedAt)
		}
		return views[i].DueAt.Before(views[j].DueAt)
	})
	return views, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	orig, ok := repo.db.assignments[a.ID]
	if !ok {
		repo.db.mu.Unlock()
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	*orig = a
	repo.db.mu.Unlock()

	repo.db.changed(TableAssignments)
	return a, nil
}

func (repo *assignmentRepository) CreateStudentAssignment(ctx context.Context, sa assignment.StudentAssignment) (assignment.StudentAssignment, error) {
	repo.db.mu.Lock()
	repo.db.studentAssignments[saKey(sa.AssignmentID, sa.StudentID)] = &sa
	repo.db.mu.Unlock()

	repo.db.changed(TableStudentAssignments)
	return sa, nil
}

func (repo *assignmentRepository) GetStudentAssignment(ctx context.Context, assignmentID, studentID string) (assignment.StudentAssignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sa, ok := repo.db.studentAssignments[saKey(assignmentID, studentID)]; ok {
		return *sa, nil
	}
	return assignment.StudentAssignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) UpdateStudentAssignment(ctx context.Context, sa assignment.StudentAssignment) (assignment.StudentAssignment, error) {
	repo.db.mu.Lock()
	orig, ok := repo.db.studentAssignments[saKey(sa.AssignmentID, sa.StudentID)]
	if !ok {
		repo.db.mu.Unlock()
		return assignment.StudentAssignment{}, assignment.ErrNotFound
	}
	*orig = sa
	repo.db.mu.Unlock()

	repo.db.changed(TableStudentAssignments)
	return sa, nil
}
