package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/profile"
)

type assignmentApi struct {
	opts *Options
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := assignmentApi{opts: opts}

	ag := g.Group("/assignments", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, adminMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, adminMiddleware())
	ag.PUT("/:id/students/:studentID", api.updateStudent)
}

// scopeFilter narrows the requested filter to what the caller may see:
// students only ever see their own records, parents only their children's.
func (api *assignmentApi) scopeFilter(ctx echo.Context, filter *assignment.QueryFilter) error {
	ctxProfile, err := getContextProfile(ctx, api.opts.ProfileSvc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	switch {
	case ctxProfile.IsStudent():
		filter.StudentID = ctxProfile.ID
	case ctxProfile.IsParent():
		if filter.StudentID != "" && !ctxProfile.HasChild(filter.StudentID) {
			return errHttpForbidden
		}
	}
	return nil
}

// Handlers

func (api *assignmentApi) query(ctx echo.Context) error {
	filter := new(assignment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []assignment.View{})
	}
	filter.Clean()
	if err := api.scopeFilter(ctx, filter); err != nil {
		return err
	}

	views, err := api.opts.AssignmentSvc.List(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if views == nil {
		views = []assignment.View{}
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	a, err := api.opts.AssignmentSvc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.opts.AssignmentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding assignment by ID")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	a, err := api.opts.AssignmentSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

// updateStudent updates one student's progress record. Students may only
// touch their own; parents have read-only access and are rejected here.
func (api *assignmentApi) updateStudent(ctx echo.Context) error {
	ctxProfile, err := getContextProfile(ctx, api.opts.ProfileSvc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}

	studentID := ctx.Param("studentID")
	switch ctxProfile.Role {
	case profile.RoleAdmin:
	case profile.RoleStudent:
		if studentID != ctxProfile.ID {
			return errHttpForbidden
		}
	default:
		return errHttpForbidden
	}

	var data assignment.UpdateStudentAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudentAssignment")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	// feedback and grades come from staff, not the student
	if ctxProfile.IsStudent() && (data.Feedback.Valid || data.Grade.Valid) {
		return errHttpForbidden
	}

	sa, err := api.opts.AssignmentSvc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), studentID, data)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating student assignment")
	}
	return ctx.JSON(http.StatusOK, sa)
}
