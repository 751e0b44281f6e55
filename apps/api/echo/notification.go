package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/notification"
)

type notificationApi struct {
	opts *Options
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := notificationApi{opts: opts}

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.query)
	ng.POST("", api.create, adminMiddleware())
	ng.PUT("/:id/read", api.markRead)
}

// Handlers

// query returns the caller's own notifications, newest first.
func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notifs, err := api.opts.NotificationSvc.ListForRecipient(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *notificationApi) create(ctx echo.Context) error {
	var data notification.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	n, err := api.opts.NotificationSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, n)
}

// markRead flips the read flag; only the recipient (or admin) may do so.
func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	n, err := api.opts.NotificationSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == notification.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding notification by ID")
	}
	if n.RecipientID != claims.Subject && !claims.IsAdmin() {
		return errHttpNotFound
	}

	n, err = api.opts.NotificationSvc.MarkRead(ctx.Request().Context(), n.ID)
	if err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.JSON(http.StatusOK, n)
}
