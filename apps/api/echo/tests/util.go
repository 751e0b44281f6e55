package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/livequery"
	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
	authsvc "github.com/darasahq/darasa/services/auth"
	emailsvc "github.com/darasahq/darasa/services/email"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	conf   *core.Config
	server Server

	db               *dummydb.DB
	broker           *livequery.Broker
	profileRepo      profile.Repository
	assignmentRepo   assignment.Repository
	notificationRepo notification.Repository
	credentialRepo   session.CredentialRepository
	sessions         *session.Registry
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Darasa",
		SecretKey: "t3st-s3cr3t",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Dashboard: core.DashboardConfig{RecentStudents: 5},
	}

	broker := livequery.NewBroker()
	db := dummydb.Open(broker)

	app := &testApp{
		conf:             conf,
		db:               db,
		broker:           broker,
		profileRepo:      dummydb.NewProfileRepository(db),
		assignmentRepo:   dummydb.NewAssignmentRepository(db),
		notificationRepo: dummydb.NewNotificationRepository(db),
		credentialRepo:   dummydb.NewCredentialRepository(db),
	}

	logger := nopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	profileSvc := profile.NewService(app.profileRepo)
	assignmentSvc := assignment.NewService(app.assignmentRepo)
	notificationSvc := notification.NewService(app.notificationRepo, profileSvc, mailSvc)

	provider := authsvc.NewLocalProvider(app.credentialRepo, conf.Server.JWTExpirationDelta, logger)
	app.sessions = session.NewRegistry(provider, profileSvc, logger)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	profile.RegisterValidators(validate, translator)
	assignment.RegisterValidators(validate, translator)
	notification.RegisterValidators(validate, translator)

	app.server = NewServer(
		&Options{
			DisableReqLogs:  true,
			Conf:            conf,
			Logger:          logger,
			Validate:        validate,
			Translator:      translator,
			ProfileSvc:      profileSvc,
			AssignmentSvc:   assignmentSvc,
			NotificationSvc: notificationSvc,
			Sessions:        app.sessions,
			Credentials:     app.credentialRepo,
			Feed:            broker,
		},
	)
	return app
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, p profile.Profile) string {
	t.Helper()
	token, err := GenerateToken(conf, GetProfileClaims(conf, p))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

// login runs the full sign-in flow so the registry holds a live session.
func login(t *testing.T, app *testApp, email, pwd string) string {
	t.Helper()

	body := marchallObj(t, map[string]string{"email": email, "password": pwd})
	req, rec := newRequest(http.MethodPost, "/v1/login", body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: code = %v body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	return resp.Token
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	tstamp, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("ts(): %v", err)
	}
	return tstamp
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
