package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/livequery"
	"github.com/darasahq/darasa/core/notification"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
)

type (
	Options struct {
		Addr           string
		DisableReqLogs bool

		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		ProfileSvc      *profile.Service
		AssignmentSvc   *assignment.Service
		NotificationSvc *notification.Service
		Sessions        *session.Registry
		Credentials     session.CredentialRepository
		Feed            livequery.Feed

		// Shutdown is called when an unrecoverable error is caught; the
		// owner is expected to stop the server gracefully.
		Shutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts      *Options
		app       *echo.Echo
		dashboard *dashboardApi
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Shutdown == nil {
		opts.Shutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	jwtConfig := newJWTConfig(conf)
	jwt := middleware.JWTWithConfig(jwtConfig)

	v1 := s.app.Group("/v1")
	registerAuthAPI(v1, jwt, s.opts)
	registerProfileAPI(v1, jwt, s.opts)
	registerAssignmentAPI(v1, jwt, s.opts)
	registerNotificationAPI(v1, jwt, s.opts)
	s.dashboard = registerDashboardAPI(v1, jwt, s.opts)

	registerShell(s.app, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Addr))
}

func (s *server) Stop(ctx context.Context) error {
	if s.dashboard != nil {
		s.dashboard.Close()
	}
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
