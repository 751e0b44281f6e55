package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/profile"
	"github.com/darasahq/darasa/core/session"
)

var errProfileNotFoundInCtx = errors.New("profile object not found in echo.Context")

type authApi struct {
	opts *Options
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := authApi{opts: opts}

	// un-authed endpoints
	// TODO: rate limit `/login`
	g.POST("/login", api.login)

	// authed endpoints
	ag := g.Group("", jwt)
	ag.POST("/logout", api.logout)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	p, err := api.opts.Sessions.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case session.ErrInvalidCredentials, session.ErrProfileNotFound:
			return errLoginFailed
		}
		return errors.Wrap(err, "logging in")
	}

	token, err := GenerateToken(api.opts.Conf, GetProfileClaims(api.opts.Conf, p))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Profile: p})
}

func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	api.opts.Sessions.Logout(ctx.Request().Context(), claims.Subject)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.opts)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *authApi) me(ctx echo.Context) error {
	p, err := getContextProfile(ctx, api.opts.ProfileSvc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

type profileApi struct {
	opts *Options
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := profileApi{opts: opts}

	pg := g.Group("/profiles", jwt)
	pg.POST("", api.create, adminMiddleware())
	pg.GET("", api.query, adminMiddleware())
	pg.GET("/roles", api.queryRoles, adminMiddleware())

	// detail endpoints
	dg := pg.Group("/:id", ctxProfileOrAdminMiddleware(opts.ProfileSvc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.GET("/children", api.children)
}

// Handlers

func (api *profileApi) create(ctx echo.Context) error {
	var data profile.NewProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	p, err := api.opts.ProfileSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == profile.ErrEmailExists {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: profile.ErrEmailExists.Error()})
		}
		return errors.Wrap(err, "creating profile")
	}

	// provision sign-in credentials with the provider
	creds := session.Credentials{ProfileID: p.ID, Email: p.Email}
	if err := creds.SetPassword(data.Secret); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if err := api.opts.Credentials.UpsertCredentials(ctx.Request().Context(), creds); err != nil {
		return errors.Wrap(err, "provisioning credentials")
	}

	return ctx.JSON(http.StatusCreated, p)
}

func (api *profileApi) query(ctx echo.Context) error {
	filter := new(profile.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []profile.Profile{})
	}
	filter.Clean()

	var profiles []profile.Profile
	var err error
	if filter.IsEmpty() {
		profiles, err = api.opts.ProfileSvc.QueryAll(ctx.Request().Context())
	} else {
		profiles, err = api.opts.ProfileSvc.Filter(ctx.Request().Context(), *filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profiles == nil {
		profiles = []profile.Profile{}
	}
	return ctx.JSON(http.StatusOK, profiles)
}

func (api *profileApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, profile.Roles)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	p, ok := ctx.Get("object").(profile.Profile)
	if !ok {
		return errors.Wrap(errProfileNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) update(ctx echo.Context) error {
	p, ok := ctx.Get("object").(profile.Profile)
	if !ok {
		return errors.Wrap(errProfileNotFoundInCtx, "retrieving object from context")
	}

	var data profile.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}

	ctxProfile, err := getContextProfile(ctx, api.opts.ProfileSvc)
	if err != nil {
		return errors.Wrap(err, "getting context profile")
	}
	if !ctxProfile.IsAdmin() {
		// the parent link can only be changed by admin
		if data.ParentID.Valid {
			return errHttpForbidden
		}
	}

	if err := data.Validate(p, api.opts.Validate); err != nil {
		return err
	}

	prevEmail := p.Email
	p, err = api.opts.ProfileSvc.Update(ctx.Request().Context(), p.ID, data)
	if err != nil {
		if errors.Cause(err) == profile.ErrEmailExists {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: profile.ErrEmailExists.Error()})
		}
		return errors.Wrap(err, "updating profile")
	}

	// keep the provider's sign-in email in sync
	if p.Email != prevEmail {
		if creds, cErr := api.opts.Credentials.GetCredentialsByEmail(ctx.Request().Context(), prevEmail); cErr == nil {
			creds.Email = p.Email
			if uErr := api.opts.Credentials.UpsertCredentials(ctx.Request().Context(), creds); uErr != nil {
				return errors.Wrap(uErr, "syncing credentials email")
			}
		}
	}

	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) children(ctx echo.Context) error {
	p, ok := ctx.Get("object").(profile.Profile)
	if !ok {
		return errors.Wrap(errProfileNotFoundInCtx, "retrieving object from context")
	}
	if !p.IsParent() {
		return ctx.JSON(http.StatusOK, []profile.Profile{})
	}

	children, err := api.opts.ProfileSvc.ChildrenOf(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "querying children")
	}
	if children == nil {
		children = []profile.Profile{}
	}
	return ctx.JSON(http.StatusOK, children)
}

func ctxProfileOrAdminMiddleware(svc *profile.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxProfile, err := getContextProfile(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context profile")
			}

			if ctx.Param("id") == ctxProfile.ID || ctxProfile.IsAdmin() {
				if p, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", p)
					return next(ctx)
				} else if errors.Cause(err) != profile.ErrNotFound {
					return errors.Wrap(err, "finding profile by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token   string          `json:"token"`
		Profile profile.Profile `json:"profile"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
