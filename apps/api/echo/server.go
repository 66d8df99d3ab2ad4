package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/classsession"
	"github.com/adz4needz/portal/core/dashboard"
	"github.com/adz4needz/portal/core/session"
	"github.com/adz4needz/portal/core/submission"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
)

// Deps holds everything the server needs to serve the API and the portal.
type Deps struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	UserSvc         user.Service
	SessionMgr      *session.Manager
	TaskSvc         task.Service
	SubmissionSvc   submission.Service
	AttendanceSvc   attendance.Service
	ClassSessionSvc classsession.Service
	DashboardSvc    *dashboard.Service
}

type Server struct {
	deps     *Deps
	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

var _ http.Handler = (*Server)(nil)

func NewServer(deps *Deps) (*Server, error) {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(bodyLimit(conf.Uploads.MaxFileSize)))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	renderer, err := newTemplateRenderer(s.deps.AttendanceSvc.Policy().Location)
	if err != nil {
		return errors.Wrap(err, "parsing portal templates")
	}
	s.app.Renderer = renderer

	registerPortal(s.app, s.deps)

	api := s.app.Group("/api")
	jwt := newJWTMiddleware(s.deps.SessionMgr)
	auth := sessionMiddleware(s.deps.SessionMgr)

	registerUserAPI(api, s.deps, jwt, auth)
	registerDashboardAPI(api, s.deps, jwt, auth)
	registerTaskAPI(api, s.deps, jwt, auth)
	registerSubmissionAPI(api, s.deps, jwt, auth)
	registerAttendanceAPI(api, s.deps, jwt, auth)
	registerClassSessionAPI(api, s.deps, jwt, auth)
	return nil
}

// bodyLimit leaves room for the base64 overhead of inlined files plus the rest of the payload.
func bodyLimit(maxFileSize int64) string {
	if maxFileSize <= 0 {
		return "32M"
	}
	mb := (maxFileSize*4/3)>>20 + 2
	return strconv.FormatInt(mb, 10) + "M"
}

// Start listens on the configured address. Errors other than a regular shutdown are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}
