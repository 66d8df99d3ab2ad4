package echoapi

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/dashboard"
	"github.com/adz4needz/portal/core/portal"
	"github.com/adz4needz/portal/core/session"
	"github.com/adz4needz/portal/core/user"
	appfs "github.com/adz4needz/portal/fs"
)

const (
	sessionCookieName = "adz_session"
	portalTemplate    = "portal"
	portalTemplates   = "assets/templates/portal/*.gohtml"
)

// cookieStore is the session store of a single portal request, bound to the session cookie.
type cookieStore struct {
	mgr   *session.Manager
	ctx   echo.Context
	token string
}

var _ portal.SessionStore = (*cookieStore)(nil)

func newCookieStore(mgr *session.Manager, ctx echo.Context) *cookieStore {
	cs := &cookieStore{mgr: mgr, ctx: ctx}
	if c, err := ctx.Cookie(sessionCookieName); err == nil {
		cs.token = c.Value
	}
	return cs
}

// CurrentUser may outlive the session check; it must not touch the response.
func (cs *cookieStore) CurrentUser(ctx context.Context) (user.User, bool, error) {
	if cs.token == "" {
		return user.User{}, false, nil
	}
	usr, _, err := cs.mgr.Resolve(ctx, cs.token)
	if err != nil {
		if errors.Cause(err) == session.ErrNoSession {
			return user.User{}, false, nil
		}
		return user.User{}, false, err
	}
	return usr, true, nil
}

func (cs *cookieStore) Logout(ctx context.Context) error {
	token := cs.token
	cs.token = ""
	clearSessionCookie(cs.ctx)
	return cs.mgr.End(ctx, token)
}

func setSessionCookie(ctx echo.Context, token string, maxAge time.Duration, secure bool) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type portalApp struct {
	mgr        *session.Manager
	usrSvc     user.Service
	dashSvc    *dashboard.Service
	policy     attendance.Policy
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger

	appName      string
	checkTimeout time.Duration
	cookieAge    time.Duration
	secureCookie bool
}

func registerPortal(e *echo.Echo, deps *Deps) {
	conf := deps.Conf
	app := portalApp{
		mgr:          deps.SessionMgr,
		usrSvc:       deps.UserSvc,
		dashSvc:      deps.DashboardSvc,
		policy:       deps.AttendanceSvc.Policy(),
		validate:     deps.Validate,
		translator:   deps.Translator,
		logger:       deps.Logger,
		appName:      conf.AppName,
		checkTimeout: conf.Server.SessionCheckTimeout,
		cookieAge:    conf.Server.JWTRefreshExpirationDelta,
		secureCookie: !(conf.Debug || conf.TestMode),
	}

	e.GET("/", app.index)
	e.POST("/login", app.login)
	e.POST("/register", app.register)
	e.POST("/logout", app.logout)
}

type (
	authForm struct {
		Mode   string // login | register
		Error  string
		Fields map[string]string
		Values map[string]string
	}

	portalPage struct {
		portal.View
		AppName     string
		Today       string
		Form        authForm
		Roles       []user.Option
		Departments []user.Option
		Mentor      *dashboard.MentorDashboard
		Student     *dashboard.StudentDashboard
	}
)

func (app *portalApp) newShell(ctx echo.Context) (*portal.Shell, *cookieStore) {
	store := newCookieStore(app.mgr, ctx)
	return portal.New(store, portal.WithCheckTimeout(app.checkTimeout)), store
}

func (app *portalApp) index(ctx echo.Context) error {
	shell, store := app.newShell(ctx)
	if shell.Mount(ctx.Request().Context()) == portal.Authenticated {
		// slide the session while its refresh window is open
		if token, err := app.mgr.Refresh(ctx.Request().Context(), store.token); err == nil {
			setSessionCookie(ctx, token, app.cookieAge, app.secureCookie)
		}
	}
	if ctx.QueryParam("menu") == "open" {
		shell.ToggleMenu()
	}
	form := authForm{Mode: "login"}
	if ctx.QueryParam("mode") == "register" {
		form.Mode = "register"
	}
	return app.render(ctx, http.StatusOK, shell, form)
}

func (app *portalApp) login(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	shell, _ := app.newShell(ctx)
	if shell.Mount(rctx) == portal.Authenticated {
		return ctx.Redirect(http.StatusSeeOther, "/")
	}

	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	form := authForm{Mode: "login", Values: map[string]string{"employeeId": data.EmployeeID}}
	if err := data.Validate(app.validate); err != nil {
		form.Error = "Employee ID and password are required"
		return app.render(ctx, http.StatusBadRequest, shell, form)
	}

	usr, err := app.usrSvc.Authenticate(rctx, data.EmployeeID, data.Password)
	if err != nil {
		switch cause := errors.Cause(err); cause {
		case user.ErrAuthenticationFailed, user.ErrAccountDeactivated:
			form.Error = cause.Error()
			return app.render(ctx, http.StatusBadRequest, shell, form)
		}
		return errors.Wrap(err, "authenticating")
	}
	return app.signIn(ctx, shell, usr, http.StatusOK)
}

func (app *portalApp) register(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	shell, _ := app.newShell(ctx)
	if shell.Mount(rctx) == portal.Authenticated {
		return ctx.Redirect(http.StatusSeeOther, "/")
	}

	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	form := authForm{Mode: "register", Values: map[string]string{
		"fullName":   data.FullName,
		"email":      data.Email,
		"phone":      data.Phone,
		"role":       string(data.Role),
		"department": string(data.Department),
	}}
	if err := data.Validate(app.validate, app.usrSvc); err != nil {
		fields, ok := app.fieldErrors(err)
		if !ok {
			return errors.Wrap(err, "validating registration")
		}
		form.Error = "Please correct the highlighted fields"
		if len(fields) == 0 {
			form.Error = errors.Cause(err).Error()
		}
		form.Fields = fields
		return app.render(ctx, http.StatusBadRequest, shell, form)
	}

	usr, err := app.usrSvc.Register(rctx, data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return app.signIn(ctx, shell, usr, http.StatusCreated)
}

func (app *portalApp) logout(ctx echo.Context) error {
	shell, _ := app.newShell(ctx)
	if err := shell.SignOut(ctx.Request().Context()); err != nil {
		app.logger.Error("portal logout failed", err)
	}
	return app.render(ctx, http.StatusOK, shell, authForm{Mode: "login"})
}

// signIn starts a session for usr and hands the user to the shell.
func (app *portalApp) signIn(ctx echo.Context, shell *portal.Shell, usr user.User, code int) error {
	_, token, err := app.mgr.Start(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	if err = shell.Login(usr); err != nil {
		return err
	}
	setSessionCookie(ctx, token, app.cookieAge, app.secureCookie)
	return app.render(ctx, code, shell, authForm{})
}

// fieldErrors flattens validation errors to field -> message.
func (app *portalApp) fieldErrors(err error) (map[string]string, bool) {
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		fields := make(map[string]string, len(vErr))
		for _, fe := range vErr {
			fields[fe.Field()] = fe.Translate(app.translator)
		}
		return fields, true
	case *core.ValidationError:
		fields := make(map[string]string, len(vErr.Fields))
		for _, fe := range vErr.Fields {
			fields[fe.Field] = fe.Error
		}
		return fields, true
	}
	return nil, false
}

func (app *portalApp) render(ctx echo.Context, code int, shell *portal.Shell, form authForm) error {
	page := portalPage{
		View:        shell.View(),
		AppName:     app.appName,
		Today:       app.policy.Today(now()),
		Form:        form,
		Roles:       user.RoleOptions,
		Departments: user.DepartmentOptions,
	}

	rctx := ctx.Request().Context()
	if page.User != nil {
		switch page.Subtree {
		case portal.MentorSubtree:
			d, err := app.dashSvc.MentorView(rctx, page.Today)
			if err != nil {
				return errors.Wrap(err, "building mentor dashboard")
			}
			page.Mentor = &d
		case portal.StudentSubtree:
			d, err := app.dashSvc.StudentView(rctx, *page.User, page.Today)
			if err != nil {
				return errors.Wrap(err, "building student dashboard")
			}
			page.Student = &d
		}
	}
	return ctx.Render(code, portalTemplate, page)
}

type templateRenderer struct {
	templates *template.Template
}

var _ echo.Renderer = (*templateRenderer)(nil)

func newTemplateRenderer(loc *time.Location) (*templateRenderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	funcs := template.FuncMap{
		"datetime": func(t time.Time) string {
			return t.In(loc).Format("02 Jan 2006 15:04")
		},
		"clock": func(t time.Time) string {
			return t.In(loc).Format("15:04")
		},
	}
	tmpl, err := template.New(portalTemplate).Funcs(funcs).ParseFS(appfs.FS, portalTemplates)
	if err != nil {
		return nil, err
	}
	return &templateRenderer{templates: tmpl}, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
