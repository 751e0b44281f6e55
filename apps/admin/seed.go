package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
)

// seedPassword is the password every seeded account signs in with.
const seedPassword = "Verysecret!"

func seedTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

// seed loads the demo school: one admin, one parent with two children, five
// assignments across four subjects and a handful of notifications. Refuses
// to run against a database that already holds the demo admin.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	if _, err := cli.profileSvc.GetByEmail(ctx, "admin@school.edu"); err == nil {
		return errors.New("demo data already present (admin@school.edu exists)")
	} else if errors.Cause(err) != profile.ErrNotFound {
		return errors.Wrap(err, "checking for existing demo data")
	}

	adminID := uuid.New().String()
	parentID := uuid.New().String()
	student1ID := uuid.New().String()
	student2ID := uuid.New().String()

	created, err := seedTime("2025-05-01T10:00:00Z")
	if err != nil {
		return err
	}
	people := []profile.Profile{
		{ID: adminID, Name: "Admin User", Email: "admin@school.edu", Role: profile.RoleAdmin},
		{ID: parentID, Name: "Parent One", Email: "parent1@example.com", Role: profile.RoleParent},
		{ID: student1ID, Name: "Student One", Email: "student1@school.edu", Role: profile.RoleStudent, ParentID: null.StringFrom(parentID)},
		{ID: student2ID, Name: "Student Two", Email: "student2@school.edu", Role: profile.RoleStudent, ParentID: null.StringFrom(parentID)},
	}
	for i, p := range people {
		p.CreatedAt = created.Add(time.Duration(i) * time.Minute)
		p.UpdatedAt = p.CreatedAt
		if _, err := cli.profiles.CreateProfile(ctx, p); err != nil {
			return errors.Wrap(err, "seeding profile "+p.Email)
		}

		creds := session.Credentials{ProfileID: p.ID, Email: p.Email}
		if err := creds.SetPassword(seedPassword); err != nil {
			return err
		}
		if err := cli.credentials.UpsertCredentials(ctx, creds); err != nil {
			return errors.Wrap(err, "seeding credentials for "+p.Email)
		}
	}

	type seedAssignment struct {
		title, description, subject, status string
		dueAt, createdAt                    string
		progress                            int
	}
	seeds := []seedAssignment{
		{
			title:       "Math Homework - Algebra Basics",
			description: "Complete problems 1-20 in Chapter 3.",
			subject:     "Mathematics",
			status:      assignment.StatusPending,
			dueAt:       "2025-05-15T23:59:59Z",
			createdAt:   "2025-05-01T10:00:00Z",
			progress:    40,
		},
		{
			title:       "Science Lab Report",
			description: "Write a 3-page report on the photosynthesis experiment.",
			subject:     "Science",
			status:      assignment.StatusPending,
			dueAt:       "2025-05-18T23:59:59Z",
			createdAt:   "2025-05-03T14:30:00Z",
			progress:    15,
		},
		{
			title:       "History Essay",
			description: "Write a 5-page essay on World War II causes and effects.",
			subject:     "History",
			status:      assignment.StatusPending,
			dueAt:       "2025-05-20T23:59:59Z",
			createdAt:   "2025-05-05T09:15:00Z",
			progress:    5,
		},
		{
			title:       "English Literature Analysis",
			description: "Analyze the main themes in \"To Kill a Mockingbird\".",
			subject:     "English",
			status:      assignment.StatusLate,
			dueAt:       "2025-05-12T23:59:59Z",
			createdAt:   "2025-04-28T11:45:00Z",
			progress:    70,
		},
		{
			title:       "Geometry Problems",
			description: "Solve the geometric problems in Worksheet 5.",
			subject:     "Mathematics",
			status:      assignment.StatusCompleted,
			dueAt:       "2025-05-10T23:59:59Z",
			createdAt:   "2025-04-30T13:20:00Z",
			progress:    100,
		},
	}
	submitted, err := seedTime("2025-05-09T15:30:00Z")
	if err != nil {
		return err
	}
	for _, s := range seeds {
		dueAt, err := seedTime(s.dueAt)
		if err != nil {
			return err
		}
		createdAt, err := seedTime(s.createdAt)
		if err != nil {
			return err
		}
		a := assignment.Assignment{
			ID:          uuid.New().String(),
			Title:       s.title,
			Description: s.description,
			Subject:     s.subject,
			Status:      s.status,
			DueAt:       dueAt,
			CreatedBy:   adminID,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		if _, err := cli.assignments.CreateAssignment(ctx, a); err != nil {
			return errors.Wrap(err, "seeding assignment "+s.title)
		}

		for _, studentID := range []string{student1ID, student2ID} {
			sa := assignment.StudentAssignment{
				AssignmentID: a.ID,
				StudentID:    studentID,
				Status:       s.status,
				Progress:     s.progress,
				CreatedAt:    createdAt,
				UpdatedAt:    createdAt,
			}
			if s.status == assignment.StatusCompleted {
				sa.SubmittedAt = null.TimeFrom(submitted)
				sa.Feedback = null.StringFrom("Good work! Clear understanding of concepts.")
				sa.Grade = null.StringFrom("A")
			}
			if _, err := cli.assignments.CreateStudentAssignment(ctx, sa); err != nil {
				return errors.Wrap(err, "seeding student assignment for "+s.title)
			}
		}
	}

	type seedNotification struct {
		recipientID, message, severity string
		read                           bool
		createdAt                      string
	}
	notes := []seedNotification{
		{student1ID, "Your Math Homework is due tomorrow!", notification.SeverityWarning, false, "2025-05-14T09:00:00Z"},
		{student1ID, "Your English Literature assignment is now overdue.", notification.SeverityError, true, "2025-05-13T00:00:00Z"},
		{parentID, "Your child has an upcoming Math assignment due soon.", notification.SeverityInfo, false, "2025-05-13T10:30:00Z"},
		{adminID, "5 assignments are due this week.", notification.SeverityInfo, false, "2025-05-12T08:15:00Z"},
	}
	for _, s := range notes {
		createdAt, err := seedTime(s.createdAt)
		if err != nil {
			return err
		}
		n := notification.Notification{
			ID:          uuid.New().String(),
			RecipientID: s.recipientID,
			Message:     s.message,
			Severity:    s.severity,
			Read:        s.read,
			CreatedAt:   createdAt,
		}
		if _, err := cli.notifications.CreateNotification(ctx, n); err != nil {
			return errors.Wrap(err, "seeding notification")
		}
	}

	fmt.Println("demo data seeded; all accounts sign in with " + seedPassword)
	return nil
}
