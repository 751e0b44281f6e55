package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/tests"
)

func Test_notificationApi_query(t *testing.T) {
	app := setup(t)

	student := testutil.CreateProfile(t, app.profileRepo, "Student One", "student1@school.edu", profile.RoleStudent, "")
	parent := testutil.CreateProfile(t, app.profileRepo, "Parent One", "parent1@example.com", profile.RoleParent, "")

	older := testutil.CreateNotification(t, app.notificationRepo, student.ID, "New assignment posted", notification.SeverityInfo, false, ts(t, "2025-05-10T09:00:00Z"))
	newer := testutil.CreateNotification(t, app.notificationRepo, student.ID, "Essay graded", notification.SeveritySuccess, false, ts(t, "2025-05-11T09:00:00Z"))
	testutil.CreateNotification(t, app.notificationRepo, parent.ID, "Report card available", notification.SeverityInfo, false)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/notifications", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "own notifications, newest first", path: "/v1/notifications", token: getToken(t, app.conf, student),
			wantCode: http.StatusOK, wantData: marchallList(t, newer, older),
		},
		{
			name: "other recipients are invisible", path: "/v1/notifications", token: getToken(t, app.conf, parent),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			if tt.wantData == nil {
				if rec.Code != tt.wantCode {
					t.Fatalf("code = %v; want %v", rec.Code, tt.wantCode)
				}
				var notifs []notification.Notification
				if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
					t.Fatalf("decoding response: %v", err)
				}
				if len(notifs) != 1 || notifs[0].RecipientID != parent.ID {
					t.Errorf("notifications = %+v; want only the parent's", notifs)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_notificationApi_create(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateProfile(t, app.profileRepo, "Admin User", "admin@school.edu", profile.RoleAdmin, "")
	student := testutil.CreateProfile(t, app.profileRepo, "Student One", "student1@school.edu", profile.RoleStudent, "")

	tests := []httpTest{
		{
			name: "Admin required", method: http.MethodPost, path: "/v1/notifications", token: getToken(t, app.conf, student),
			body:     marchallObj(t, map[string]string{"recipient_id": student.ID, "message": "Hi", "severity": "info"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "severity must be known", method: http.MethodPost, path: "/v1/notifications", token: getToken(t, app.conf, admin),
			body:     marchallObj(t, map[string]string{"recipient_id": student.ID, "message": "Hi", "severity": "loud"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"severity": "must be one of: info, warning, success, error"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("ok", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"recipient_id": student.ID, "message": "Essay graded", "severity": "success"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", getToken(t, app.conf, admin), body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want 201; body = %s", rec.Code, rec.Body.String())
		}
		var n notification.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if n.ID == "" || n.Read || n.RecipientID != student.ID {
			t.Errorf("notification = %+v; want unread, addressed to the student", n)
		}
	})
}

func Test_notificationApi_markRead(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateProfile(t, app.profileRepo, "Admin User", "admin@school.edu", profile.RoleAdmin, "")
	student := testutil.CreateProfile(t, app.profileRepo, "Student One", "student1@school.edu", profile.RoleStudent, "")
	other := testutil.CreateProfile(t, app.profileRepo, "Student Two", "student2@school.edu", profile.RoleStudent, "")

	n := testutil.CreateNotification(t, app.notificationRepo, student.ID, "New assignment posted", notification.SeverityInfo, false)
	read := n
	read.Read = true

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPut, path: "/v1/notifications/" + n.ID + "/read", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "unknown notification", method: http.MethodPut, path: "/v1/notifications/nope/read", token: getToken(t, app.conf, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "someone else's notification looks absent", method: http.MethodPut, path: "/v1/notifications/" + n.ID + "/read",
			token:    getToken(t, app.conf, other),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "recipient marks it read", method: http.MethodPut, path: "/v1/notifications/" + n.ID + "/read",
			token:    getToken(t, app.conf, student),
			wantCode: http.StatusOK, wantData: marchallObj(t, read),
		},
		{
			name: "admin may mark any", method: http.MethodPut, path: "/v1/notifications/" + n.ID + "/read",
			token:    getToken(t, app.conf, admin),
			wantCode: http.StatusOK, wantData: marchallObj(t, read),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
