package echoapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/dashboard"
	"github.com/darasahq/darasa/core/livequery"
	"github.com/darasahq/darasa/core/profile"
)

// dashboardApi serves role-shaped dashboards off live snapshots: one query
// over the global assignment collection, one over profiles and one per
// student who has requested a dashboard. The queries refetch whenever the
// backing tables change, so handlers only ever read a snapshot.
type dashboardApi struct {
	opts *Options

	mu         sync.Mutex
	globalQ    *livequery.Query
	profilesQ  *livequery.Query
	perStudent map[string]*livequery.Query
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) *dashboardApi {
	api := &dashboardApi{
		opts:       opts,
		perStudent: make(map[string]*livequery.Query),
	}
	g.GET("/dashboard", api.retrieve, jwt)
	return api
}

func (api *dashboardApi) globalQuery() *livequery.Query {
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.globalQ == nil {
		api.globalQ = livequery.New(
			"assignments", api.opts.Feed,
			func(ctx context.Context) (interface{}, error) {
				return api.opts.AssignmentSvc.List(ctx, assignment.QueryFilter{})
			},
			api.opts.Logger,
		)
		api.globalQ.Run(context.Background())
		<-api.globalQ.Updates() // initial snapshot
	}
	return api.globalQ
}

func (api *dashboardApi) profilesQuery() *livequery.Query {
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.profilesQ == nil {
		api.profilesQ = livequery.New(
			"profiles", api.opts.Feed,
			func(ctx context.Context) (interface{}, error) {
				return api.opts.ProfileSvc.QueryAll(ctx)
			},
			api.opts.Logger,
		)
		api.profilesQ.Run(context.Background())
		<-api.profilesQ.Updates() // initial snapshot
	}
	return api.profilesQ
}

func (api *dashboardApi) studentQuery(studentID string) *livequery.Query {
	api.mu.Lock()
	defer api.mu.Unlock()
	q, ok := api.perStudent[studentID]
	if !ok {
		q = livequery.New(
			"student_assignments",
			livequery.MultiTable(api.opts.Feed, "assignments", "student_assignments"),
			func(ctx context.Context) (interface{}, error) {
				return api.opts.AssignmentSvc.List(ctx, assignment.QueryFilter{StudentID: studentID})
			},
			api.opts.Logger,
		)
		q.Run(context.Background())
		<-q.Updates() // initial snapshot
		api.perStudent[studentID] = q
	}
	return q
}

func assignmentSnapshot(q *livequery.Query) ([]assignment.View, error) {
	snap, err := q.Snapshot()
	if err != nil {
		return nil, err
	}
	views, _ := snap.([]assignment.View)
	return views, nil
}

func profileSnapshot(q *livequery.Query) ([]profile.Profile, error) {
	snap, err := q.Snapshot()
	if err != nil {
		return nil, err
	}
	profiles, _ := snap.([]profile.Profile)
	return profiles, nil
}

// Handlers

func (api *dashboardApi) retrieve(ctx echo.Context) error {
	p, err := getContextProfile(ctx, api.opts.ProfileSvc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	now := time.Now().UTC()
	switch p.Role {
	case profile.RoleStudent:
		views, err := assignmentSnapshot(api.studentQuery(p.ID))
		if err != nil {
			return errors.Wrap(err, "reading student snapshot")
		}
		return ctx.JSON(http.StatusOK, dashboard.ComposeStudent(views, now))

	case profile.RoleParent:
		views, err := assignmentSnapshot(api.globalQuery())
		if err != nil {
			return errors.Wrap(err, "reading assignment snapshot")
		}
		children, err := api.opts.ProfileSvc.ChildrenOf(ctx.Request().Context(), p)
		if err != nil {
			return errors.Wrap(err, "querying children")
		}
		return ctx.JSON(http.StatusOK, dashboard.ComposeParent(children, views, now))

	case profile.RoleAdmin:
		views, err := assignmentSnapshot(api.globalQuery())
		if err != nil {
			return errors.Wrap(err, "reading assignment snapshot")
		}
		profiles, err := profileSnapshot(api.profilesQuery())
		if err != nil {
			return errors.Wrap(err, "reading profile snapshot")
		}
		return ctx.JSON(http.StatusOK, dashboard.ComposeAdmin(profiles, views, api.opts.Conf.Dashboard.RecentStudents))
	}
	return errHttpForbidden
}

func (api *dashboardApi) Close() {
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.globalQ != nil {
		api.globalQ.Close()
		api.globalQ = nil
	}
	if api.profilesQ != nil {
		api.profilesQ.Close()
		api.profilesQ = nil
	}
	for id, q := range api.perStudent {
		q.Close()
		delete(api.perStudent, id)
	}
}
