// Package navigation is the route-level authorization gate: given the current
// session state and a requested path it decides whether to render, hold a
// neutral pending screen, or redirect. It never fails hard: under-privileged
// navigation lands on the default dashboard, not an error page.
package navigation

import (
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

type Decision int

const (
	// Allow renders the requested content.
	Allow Decision = iota
	// Pending renders a neutral state while the session is still resolving;
	// no redirect is issued to avoid a flash-redirect to login.
	Pending
	// RedirectLogin sends unauthenticated navigation to the login entry point.
	RedirectLogin
	// RedirectDashboard sends under-privileged or unknown navigation to the
	// default landing route.
	RedirectDashboard
)

// Route declares a navigable path and the roles allowed on it.
// An empty AllowedRoles set admits any authenticated identity.
type Route struct {
	Path         string
	AllowedRoles []string
}

var routes = []Route{
	{Path: DashboardPath},
	{Path: "/assignments", AllowedRoles: []string{profile.RoleStudent, profile.RoleParent, profile.RoleAdmin}},
	{Path: "/completed", AllowedRoles: []string{profile.RoleStudent}},
	{Path: "/students", AllowedRoles: []string{profile.RoleParent, profile.RoleAdmin}},
	{Path: "/progress", AllowedRoles: []string{profile.RoleParent}},
	{Path: "/parents", AllowedRoles: []string{profile.RoleAdmin}},
	{Path: "/subjects", AllowedRoles: []string{profile.RoleStudent, profile.RoleAdmin}},
	{Path: "/reports", AllowedRoles: []string{profile.RoleAdmin}},
	{Path: "/settings", AllowedRoles: []string{profile.RoleAdmin}},
	{Path: "/calendar"},
	{Path: "/profile"},
}

// Routes returns the declared protected routes.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

func lookup(path string) (Route, bool) {
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

func (r Route) allows(role string) bool {
	if len(r.AllowedRoles) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Decide evaluates one navigation attempt. It must run on every route change,
// not only at startup.
func Decide(state session.State, role, path string) Decision {
	if path == LoginPath {
		return Allow
	}
	switch state {
	case session.StateResolving:
		return Pending
	case session.StateAuthenticated:
	default:
		return RedirectLogin
	}

	route, ok := lookup(path)
	if !ok {
		return RedirectDashboard
	}
	if !route.allows(role) {
		return RedirectDashboard
	}
	return Allow
}
