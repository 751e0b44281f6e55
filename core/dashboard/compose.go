package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/profile"
)

const (
	studentUpcomingLimit = 3
	parentUpcomingLimit  = 5
)

type (
	StatusCounts struct {
		Total     int `json:"total"`
		Pending   int `json:"pending"`
		Completed int `json:"completed"`
		Late      int `json:"late"`
	}

	SubjectRate struct {
		Subject        string `json:"subject"`
		CompletionRate int    `json:"completion_rate"`
	}

	SubjectShare struct {
		Subject string `json:"subject"`
		Count   int    `json:"count"`
		Percent int    `json:"percent"`
	}

	StudentView struct {
		Counts         StatusCounts      `json:"counts"`
		CompletionRate int               `json:"completion_rate"`
		Subjects       []SubjectRate     `json:"subjects"`
		Upcoming       []assignment.View `json:"upcoming"`
	}

	ChildSummary struct {
		Child          profile.Profile `json:"child"`
		Counts         StatusCounts    `json:"counts"`
		CompletionRate int             `json:"completion_rate"`
	}

	ParentView struct {
		Counts   StatusCounts      `json:"counts"`
		Children []ChildSummary    `json:"children"`
		Upcoming []assignment.View `json:"upcoming"`
	}

	AdminView struct {
		Counts         StatusCounts      `json:"counts"`
		TotalStudents  int               `json:"total_students"`
		TotalParents   int               `json:"total_parents"`
		Subjects       []SubjectShare    `json:"subjects"`
		RecentStudents []profile.Profile `json:"recent_students"`
	}
)

// rate returns round(completed/total*100) as a whole percent, rounding to the
// nearest integer with ties away from zero. An empty collection rates 0.
func rate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func countStatuses(views []assignment.View) StatusCounts {
	c := StatusCounts{Total: len(views)}
	for _, v := range views {
		switch v.EffectiveStatus() {
		case assignment.StatusPending:
			c.Pending++
		case assignment.StatusCompleted:
			c.Completed++
		case assignment.StatusLate:
			c.Late++
		}
	}
	return c
}

// upcoming returns the `limit` soonest-due pending views with a due date
// strictly in the future, ascending by due date.
func upcoming(views []assignment.View, now time.Time, limit int) []assignment.View {
	due := make([]assignment.View, 0, limit)
	for _, v := range views {
		if v.EffectiveStatus() == assignment.StatusPending && v.DueAt.After(now) {
			due = append(due, v)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].DueAt.Before(due[j].DueAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due
}

// subjects returns the distinct subject labels in first-appearance order.
func subjects(views []assignment.View) []string {
	seen := make(map[string]bool, len(views))
	var out []string
	for _, v := range views {
		if !seen[v.Subject] {
			seen[v.Subject] = true
			out = append(out, v.Subject)
		}
	}
	return out
}

// ComposeStudent derives the student dashboard from the student's own
// assignment collection.
func ComposeStudent(views []assignment.View, now time.Time) StudentView {
	counts := countStatuses(views)

	var rates []SubjectRate
	for _, subj := range subjects(views) {
		var total, completed int
		for _, v := range views {
			if v.Subject != subj {
				continue
			}
			total++
			if v.EffectiveStatus() == assignment.StatusCompleted {
				completed++
			}
		}
		rates = append(rates, SubjectRate{Subject: subj, CompletionRate: rate(completed, total)})
	}

	return StudentView{
		Counts:         counts,
		CompletionRate: rate(counts.Completed, counts.Total),
		Subjects:       rates,
		Upcoming:       upcoming(views, now, studentUpcomingLimit),
	}
}

// ComposeParent derives the parent dashboard. Per-child counts are computed
// from the global assignment collection, not filtered per child.
func ComposeParent(children []profile.Profile, views []assignment.View, now time.Time) ParentView {
	counts := countStatuses(views)

	summaries := make([]ChildSummary, 0, len(children))
	for _, child := range children {
		summaries = append(summaries, ChildSummary{
			Child:          child,
			Counts:         counts,
			CompletionRate: rate(counts.Completed, counts.Total),
		})
	}

	return ParentView{
		Counts:   counts,
		Children: summaries,
		Upcoming: upcoming(views, now, parentUpcomingLimit),
	}
}

// ComposeAdmin derives the admin dashboard from the global collections.
// recentLimit bounds the most-recently-created students list.
func ComposeAdmin(profiles []profile.Profile, views []assignment.View, recentLimit int) AdminView {
	counts := countStatuses(views)

	var shares []SubjectShare
	for _, subj := range subjects(views) {
		var count int
		for _, v := range views {
			if v.Subject == subj {
				count++
			}
		}
		shares = append(shares, SubjectShare{Subject: subj, Count: count, Percent: rate(count, counts.Total)})
	}

	var students []profile.Profile
	var parents int
	for _, p := range profiles {
		switch p.Role {
		case profile.RoleStudent:
			students = append(students, p)
		case profile.RoleParent:
			parents++
		}
	}
	totalStudents := len(students)
	sort.SliceStable(students, func(i, j int) bool { return students[i].CreatedAt.After(students[j].CreatedAt) })
	if len(students) > recentLimit {
		students = students[:recentLimit]
	}

	return AdminView{
		Counts:         counts,
		TotalStudents:  totalStudents,
		TotalParents:   parents,
		Subjects:       shares,
		RecentStudents: students,
	}
}
