package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core/session"
	"github.com/adz4needz/portal/core/user"
)

type userApi struct {
	svc      user.Service
	mgr      *session.Manager
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, deps *Deps, jwt, auth echo.MiddlewareFunc) {
	api := userApi{
		svc:      deps.UserSvc,
		mgr:      deps.SessionMgr,
		validate: deps.Validate,
	}

	// un-authed endpoints
	g.POST("/register", api.register)
	g.POST("/login", api.login)
	g.POST("/logout", api.logout)
	g.GET("/session", api.session)
	g.GET("/users/roles", api.queryRoles)
	g.GET("/users/departments", api.queryDepartments)

	// authed endpoints
	g.POST("/session/refresh", api.refreshToken, jwt, auth)
	g.GET("/users", api.query, jwt, auth, mentorMiddleware)
}

type (
	LoginRequest struct {
		EmployeeID string `json:"employeeId" form:"employeeId" validate:"required"`
		Password   string `json:"password" form:"password" validate:"required"`
	}

	LoginResponse struct {
		Success bool      `json:"success"`
		Token   string    `json:"token"`
		User    user.User `json:"user"`
	}

	RegisterResponse struct {
		Success bool      `json:"success"`
		ID      string    `json:"id"`
		Token   string    `json:"token"`
		User    user.User `json:"user"`
	}

	SessionResponse struct {
		User *user.User `json:"user"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.EmployeeID = user.NormalizeEmployeeID(lr.EmployeeID)
	return validate.Struct(lr)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	usr, err := api.svc.Register(rctx, data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	_, token, err := api.mgr.Start(rctx, usr)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.JSON(http.StatusCreated, RegisterResponse{Success: true, ID: usr.ID, Token: token, User: usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	usr, err := api.svc.Authenticate(rctx, data.EmployeeID, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	_, token, err := api.mgr.Start(rctx, usr)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Success: true, Token: token, User: usr})
}

// logout ends the session of the bearer token, if any. It always succeeds for the caller.
func (api *userApi) logout(ctx echo.Context) error {
	if err := api.mgr.End(ctx.Request().Context(), bearerToken(ctx)); err != nil {
		return errors.Wrap(err, "ending session")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// session reports the current user. A missing session is not an error.
func (api *userApi) session(ctx echo.Context) error {
	usr, _, err := api.mgr.Resolve(ctx.Request().Context(), bearerToken(ctx))
	if err != nil {
		if errors.Cause(err) == session.ErrNoSession {
			return ctx.JSON(http.StatusOK, SessionResponse{})
		}
		return errors.Wrap(err, "resolving session")
	}
	return ctx.JSON(http.StatusOK, SessionResponse{User: &usr})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := getContextToken(ctx)
	if err != nil {
		return err
	}
	refreshed, err := api.mgr.Refresh(ctx.Request().Context(), token.Raw)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: refreshed})
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	if len(filter.Roles) == 0 {
		filter.Roles = user.MemberRoles
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.RoleOptions)
}

func (api *userApi) queryDepartments(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.DepartmentOptions)
}
