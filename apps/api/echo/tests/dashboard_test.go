package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/dashboard"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/tests"
)

// demo school: three assignments due around now, one student with two
// progress records.
type dashboardFixtures struct {
	admin, parent, student, student2 profile.Profile

	history, science, math assignment.Assignment
	scienceSA, mathSA      assignment.StudentAssignment
}

func setupDashboard(t *testing.T, app *testApp) dashboardFixtures {
	t.Helper()

	now := time.Now().UTC()
	var f dashboardFixtures
	f.admin = testutil.CreateProfile(t, app.profileRepo, "Admin User", "admin@school.edu", profile.RoleAdmin, "")
	f.parent = testutil.CreateProfile(t, app.profileRepo, "Parent One", "parent1@example.com", profile.RoleParent, "")
	f.student = testutil.CreateProfile(t, app.profileRepo, "Student One", "student1@school.edu", profile.RoleStudent, f.parent.ID, now.Add(-2*time.Hour))
	f.student2 = testutil.CreateProfile(t, app.profileRepo, "Student Two", "student2@school.edu", profile.RoleStudent, "", now.Add(-time.Hour))

	f.history = testutil.CreateAssignment(t, app.assignmentRepo, "History Essay", "History", assignment.StatusLate, f.admin.ID, now.Add(-24*time.Hour))
	f.science = testutil.CreateAssignment(t, app.assignmentRepo, "Lab Report", "Science", assignment.StatusPending, f.admin.ID, now.Add(24*time.Hour))
	f.math = testutil.CreateAssignment(t, app.assignmentRepo, "Algebra Basics", "Mathematics", assignment.StatusPending, f.admin.ID, now.Add(48*time.Hour))

	f.scienceSA = testutil.AssignStudent(t, app.assignmentRepo, f.science.ID, f.student.ID, assignment.StatusPending, 0)
	f.mathSA = testutil.AssignStudent(t, app.assignmentRepo, f.math.ID, f.student.ID, assignment.StatusCompleted, 100)
	return f
}

func getDashboard(t *testing.T, app *testApp, p profile.Profile, out interface{}) int {
	t.Helper()
	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", getToken(t, app.conf, p))
	app.server.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding dashboard: %v", err)
		}
	}
	return rec.Code
}

func Test_dashboardApi_student(t *testing.T) {
	app := setup(t)
	f := setupDashboard(t, app)

	var view dashboard.StudentView
	if code := getDashboard(t, app, f.student, &view); code != http.StatusOK {
		t.Fatalf("code = %v; want 200", code)
	}

	want := dashboard.StudentView{
		Counts:         dashboard.StatusCounts{Total: 3, Pending: 1, Completed: 1, Late: 1},
		CompletionRate: 33,
		Subjects: []dashboard.SubjectRate{
			{Subject: "History", CompletionRate: 0},
			{Subject: "Science", CompletionRate: 0},
			{Subject: "Mathematics", CompletionRate: 100},
		},
		Upcoming: []assignment.View{{Assignment: f.science, StudentAssignment: &f.scienceSA}},
	}
	ok, err := jsonBytesEqual(t, marchallObj(t, view), marchallObj(t, want))
	if err != nil {
		t.Fatalf("comparing views: %v", err)
	}
	if !ok {
		t.Errorf("view = %+v; want %+v", view, want)
	}
}

func Test_dashboardApi_parent(t *testing.T) {
	app := setup(t)
	f := setupDashboard(t, app)

	var view dashboard.ParentView
	if code := getDashboard(t, app, f.parent, &view); code != http.StatusOK {
		t.Fatalf("code = %v; want 200", code)
	}

	counts := dashboard.StatusCounts{Total: 3, Pending: 2, Late: 1}
	child := f.student
	want := dashboard.ParentView{
		Counts: counts,
		Children: []dashboard.ChildSummary{
			{Child: child, Counts: counts, CompletionRate: 0},
		},
		Upcoming: []assignment.View{{Assignment: f.science}, {Assignment: f.math}},
	}
	ok, err := jsonBytesEqual(t, marchallObj(t, view), marchallObj(t, want))
	if err != nil {
		t.Fatalf("comparing views: %v", err)
	}
	if !ok {
		t.Errorf("view = %+v; want %+v", view, want)
	}
}

func Test_dashboardApi_admin(t *testing.T) {
	app := setup(t)
	f := setupDashboard(t, app)

	var view dashboard.AdminView
	if code := getDashboard(t, app, f.admin, &view); code != http.StatusOK {
		t.Fatalf("code = %v; want 200", code)
	}

	want := dashboard.AdminView{
		Counts:        dashboard.StatusCounts{Total: 3, Pending: 2, Late: 1},
		TotalStudents: 2,
		TotalParents:  1,
		Subjects: []dashboard.SubjectShare{
			{Subject: "History", Count: 1, Percent: 33},
			{Subject: "Science", Count: 1, Percent: 33},
			{Subject: "Mathematics", Count: 1, Percent: 33},
		},
		RecentStudents: []profile.Profile{f.student2, f.student},
	}
	ok, err := jsonBytesEqual(t, marchallObj(t, view), marchallObj(t, want))
	if err != nil {
		t.Fatalf("comparing views: %v", err)
	}
	if !ok {
		t.Errorf("view = %+v; want %+v", view, want)
	}
}

func Test_dashboardApi_authRequired(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/dashboard")
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %v; want 401", rec.Code)
	}
}

// The backing queries refetch when the assignment tables change, so a
// dashboard read soon after a write sees the new collection.
func Test_dashboardApi_liveRefresh(t *testing.T) {
	app := setup(t)
	f := setupDashboard(t, app)

	var view dashboard.AdminView
	if code := getDashboard(t, app, f.admin, &view); code != http.StatusOK {
		t.Fatalf("code = %v; want 200", code)
	}
	if view.Counts.Total != 3 {
		t.Fatalf("total = %v; want 3", view.Counts.Total)
	}

	testutil.CreateAssignment(t, app.assignmentRepo, "Geometry Problems", "Mathematics",
		assignment.StatusPending, f.admin.ID, time.Now().UTC().Add(72*time.Hour))

	assert.Eventually(t, func() bool {
		var v dashboard.AdminView
		return getDashboard(t, app, f.admin, &v) == http.StatusOK && v.Counts.Total == 4
	}, 2*time.Second, 10*time.Millisecond)
}
