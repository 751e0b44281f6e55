// Package dummydb is an in-memory implementation of the repositories, used by
// tests and demo mode. Writes publish a change per table on the shared feed
// so live queries behave like they do against Postgres.
package dummydb

import (
	"sync"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/livequery"
	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
)

// Table names, mirroring the relational schema.
const (
	TableProfiles           = "profiles"
	TableAssignments        = "assignments"
	TableStudentAssignments = "student_assignments"
	TableNotifications      = "notifications"
)

type DB struct {
	mu sync.RWMutex

	profiles           map[string]*profile.Profile
	assignments        map[string]*assignment.Assignment
	studentAssignments map[string]*assignment.StudentAssignment // assignmentID + "/" + studentID
	notifications      map[string]*notification.Notification
	credentials        map[string]*session.Credentials // by email

	feed *livequery.Broker
}

// Open returns an empty DB. feed may be nil when change events are not needed.
func Open(feed *livequery.Broker) *DB {
	return &DB{
		profiles:           make(map[string]*profile.Profile),
		assignments:        make(map[string]*assignment.Assignment),
		studentAssignments: make(map[string]*assignment.StudentAssignment),
		notifications:      make(map[string]*notification.Notification),
		credentials:        make(map[string]*session.Credentials),
		feed:               feed,
	}
}

func (db *DB) changed(table string) {
	if db.feed != nil {
		db.feed.Publish(livequery.Change{Table: table})
	}
}

func saKey(assignmentID, studentID string) string {
	return assignmentID + "/" + studentID
}
