package echoapi

import (
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core/navigation"
	"github.com/darasahq/darasa/core/session"
)

const shellPrefix = "/app"

// registerShell mounts the navigable shell routes under /app. Every request
// runs through the navigation gate: anonymous navigation redirects to login,
// a still-resolving session holds a neutral pending response and
// under-privileged navigation lands on the default dashboard.
func registerShell(app *echo.Echo, opts *Options) {
	g := shellGate{opts: opts}

	app.GET(shellPrefix+navigation.LoginPath, g.serve)
	for _, route := range navigation.Routes() {
		app.GET(shellPrefix+route.Path, g.serve)
	}
	// unknown shell paths still go through the gate, which lands them on
	// the default dashboard
	app.GET(shellPrefix+"/*", g.serve)
}

type shellGate struct {
	opts *Options
}

type shellResponse struct {
	Path string `json:"path"`
	Role string `json:"role,omitempty"`
}

func (g shellGate) serve(ctx echo.Context) error {
	path := strings.TrimPrefix(ctx.Request().URL.Path, shellPrefix)
	state, role := g.resolveSession(ctx)

	switch navigation.Decide(state, role, path) {
	case navigation.Allow:
		return ctx.JSON(http.StatusOK, shellResponse{Path: path, Role: role})
	case navigation.Pending:
		// neutral hold, no redirect: a resolving session must not flash to login
		ctx.Response().Header().Set("Retry-After", "1")
		return ctx.NoContent(http.StatusServiceUnavailable)
	case navigation.RedirectLogin:
		return ctx.Redirect(http.StatusFound, shellPrefix+navigation.LoginPath)
	default:
		return ctx.Redirect(http.StatusFound, shellPrefix+navigation.DashboardPath)
	}
}

// resolveSession maps the request's bearer token to a session state. A
// missing or invalid token is anonymous; a valid token whose session was
// dropped (signed out elsewhere, token expired upstream) is anonymous too.
func (g shellGate) resolveSession(ctx echo.Context) (session.State, string) {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return session.StateAnonymous, ""
	}

	claims := new(Claims)
	_, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(g.opts.Conf.SecretKey), nil
	})
	if err != nil {
		return session.StateAnonymous, ""
	}

	m, ok := g.opts.Sessions.Get(claims.Subject)
	if !ok {
		return session.StateAnonymous, ""
	}
	return m.State(), m.Role()
}
