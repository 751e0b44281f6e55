package dummydb

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
)

// SeedPassword is the password every seeded account signs in with.
const SeedPassword = "Verysecret!"

// Seeded holds the IDs of the demo dataset so callers (and tests) can
// address specific records.
type Seeded struct {
	AdminID    string
	ParentID   string
	Student1ID string
	Student2ID string

	AssignmentIDs   []string // in creation order
	NotificationIDs []string
}

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

// Seed loads the demo school: one admin, one parent with two children, five
// assignments across four subjects and a handful of notifications. Change
// events are not published; callers subscribe after seeding.
func (db *DB) Seed() Seeded {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out Seeded
	out.AdminID = uuid.New().String()
	out.ParentID = uuid.New().String()
	out.Student1ID = uuid.New().String()
	out.Student2ID = uuid.New().String()

	created := ts("2025-05-01T10:00:00Z")
	people := []profile.Profile{
		{ID: out.AdminID, Name: "Admin User", Email: "admin@school.edu", Role: profile.RoleAdmin},
		{ID: out.ParentID, Name: "Parent One", Email: "parent1@example.com", Role: profile.RoleParent},
		{ID: out.Student1ID, Name: "Student One", Email: "student1@school.edu", Role: profile.RoleStudent, ParentID: null.StringFrom(out.ParentID)},
		{ID: out.Student2ID, Name: "Student Two", Email: "student2@school.edu", Role: profile.RoleStudent, ParentID: null.StringFrom(out.ParentID)},
	}
	for i := range people {
		p := people[i]
		p.CreatedAt = created.Add(time.Duration(i) * time.Minute)
		p.UpdatedAt = p.CreatedAt
		db.profiles[p.ID] = &p

		creds := session.Credentials{ProfileID: p.ID, Email: p.Email}
		if err := creds.SetPassword(SeedPassword); err != nil {
			panic(err)
		}
		db.credentials[creds.Email] = &creds
	}

	type seedAssignment struct {
		title, description, subject, status string
		dueAt, createdAt                    time.Time
		progress                            int
	}
	seeds := []seedAssignment{
		{
			title:       "Math Homework - Algebra Basics",
			description: "Complete problems 1-20 in Chapter 3.",
			subject:     "Mathematics",
			status:      assignment.StatusPending,
			dueAt:       ts("2025-05-15T23:59:59Z"),
			createdAt:   ts("2025-05-01T10:00:00Z"),
			progress:    40,
		},
		{
			title:       "Science Lab Report",
			description: "Write a 3-page report on the photosynthesis experiment.",
			subject:     "Science",
			status:      assignment.StatusPending,
			dueAt:       ts("2025-05-18T23:59:59Z"),
			createdAt:   ts("2025-05-03T14:30:00Z"),
			progress:    15,
		},
		{
			title:       "History Essay",
			description: "Write a 5-page essay on World War II causes and effects.",
			subject:     "History",
			status:      assignment.StatusPending,
			dueAt:       ts("2025-05-20T23:59:59Z"),
			createdAt:   ts("2025-05-05T09:15:00Z"),
			progress:    5,
		},
		{
			title:       "English Literature Analysis",
			description: "Analyze the main themes in \"To Kill a Mockingbird\".",
			subject:     "English",
			status:      assignment.StatusLate,
			dueAt:       ts("2025-05-12T23:59:59Z"),
			createdAt:   ts("2025-04-28T11:45:00Z"),
			progress:    70,
		},
		{
			title:       "Geometry Problems",
			description: "Solve the geometric problems in Worksheet 5.",
			subject:     "Mathematics",
			status:      assignment.StatusCompleted,
			dueAt:       ts("2025-05-10T23:59:59Z"),
			createdAt:   ts("2025-04-30T13:20:00Z"),
			progress:    100,
		},
	}
	for _, s := range seeds {
		a := assignment.Assignment{
			ID:          uuid.New().String(),
			Title:       s.title,
			Description: s.description,
			Subject:     s.subject,
			Status:      s.status,
			DueAt:       s.dueAt,
			CreatedBy:   out.AdminID,
			CreatedAt:   s.createdAt,
			UpdatedAt:   s.createdAt,
		}
		db.assignments[a.ID] = &a
		out.AssignmentIDs = append(out.AssignmentIDs, a.ID)

		for _, studentID := range []string{out.Student1ID, out.Student2ID} {
			sa := assignment.StudentAssignment{
				AssignmentID: a.ID,
				StudentID:    studentID,
				Status:       s.status,
				Progress:     s.progress,
				CreatedAt:    s.createdAt,
				UpdatedAt:    s.createdAt,
			}
			if s.status == assignment.StatusCompleted {
				sa.SubmittedAt = null.TimeFrom(ts("2025-05-09T15:30:00Z"))
				sa.Feedback = null.StringFrom("Good work! Clear understanding of concepts.")
				sa.Grade = null.StringFrom("A")
			}
			db.studentAssignments[saKey(a.ID, studentID)] = &sa
		}
	}

	type seedNotification struct {
		recipientID, message, severity string
		read                           bool
		createdAt                      time.Time
	}
	notes := []seedNotification{
		{out.Student1ID, "Your Math Homework is due tomorrow!", notification.SeverityWarning, false, ts("2025-05-14T09:00:00Z")},
		{out.Student1ID, "Your English Literature assignment is now overdue.", notification.SeverityError, true, ts("2025-05-13T00:00:00Z")},
		{out.ParentID, "Your child has an upcoming Math assignment due soon.", notification.SeverityInfo, false, ts("2025-05-13T10:30:00Z")},
		{out.AdminID, "5 assignments are due this week.", notification.SeverityInfo, false, ts("2025-05-12T08:15:00Z")},
	}
	for _, s := range notes {
		n := notification.Notification{
			ID:          uuid.New().String(),
			RecipientID: s.recipientID,
			Message:     s.message,
			Severity:    s.severity,
			Read:        s.read,
			CreatedAt:   s.createdAt,
		}
		db.notifications[n.ID] = &n
		out.NotificationIDs = append(out.NotificationIDs, n.ID)
	}

	return out
}
