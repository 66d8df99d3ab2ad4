package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/adz4needz/portal/apps/api/echo"
	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/classsession"
	"github.com/adz4needz/portal/core/dashboard"
	"github.com/adz4needz/portal/core/session"
	"github.com/adz4needz/portal/core/submission"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
	emailsvc "github.com/adz4needz/portal/services/email"
	logsvc "github.com/adz4needz/portal/services/logger"
	schedsvc "github.com/adz4needz/portal/services/scheduler"
	"github.com/adz4needz/portal/storage/database"
	inmemdb "github.com/adz4needz/portal/storage/database/inmem"
	sqlxrepos "github.com/adz4needz/portal/storage/database/sqlx"
)

const engineMemory = "memory"

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Repositories are provided as a group so that the storage engine is picked in a single place.
type Repositories struct {
	dig.Out

	User         user.Repository
	Session      session.Repository
	Task         task.Repository
	Submission   submission.Repository
	Attendance   attendance.Repository
	ClassSession classsession.Repository
}

type ServerParams struct {
	dig.In

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

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newDB returns a nil *sqlx.DB for the memory engine.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine == engineMemory {
		loggerParam.Logger.Warn("using the in-memory storage engine: data will not survive a restart")
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB, "up"); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(db *sqlx.DB) Repositories {
	if db == nil {
		mem := inmemdb.Open()
		return Repositories{
			User:         inmemdb.NewUserRepository(mem),
			Session:      inmemdb.NewSessionRepository(mem),
			Task:         inmemdb.NewTaskRepository(mem),
			Submission:   inmemdb.NewSubmissionRepository(mem),
			Attendance:   inmemdb.NewAttendanceRepository(mem),
			ClassSession: inmemdb.NewClassSessionRepository(mem),
		}
	}
	return Repositories{
		User:         sqlxrepos.NewUserRepository(db),
		Session:      sqlxrepos.NewSessionRepository(db),
		Task:         sqlxrepos.NewTaskRepository(db),
		Submission:   sqlxrepos.NewSubmissionRepository(db),
		Attendance:   sqlxrepos.NewAttendanceRepository(db),
		ClassSession: sqlxrepos.NewClassSessionRepository(db),
	}
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func newSessionManager(repo session.Repository, usrSvc user.Service, conf *core.Config) *session.Manager {
	return session.NewManager(repo, usrSvc, conf)
}

func newSubmissionService(repo submission.Repository, taskSvc task.Service) submission.Service {
	return submission.NewService(repo, taskSvc)
}

func newAttendanceService(repo attendance.Repository, usrSvc user.Service, conf *core.Config) (attendance.Service, error) {
	policy, err := attendance.NewPolicy(conf.Attendance)
	if err != nil {
		return nil, err
	}
	return attendance.NewService(repo, usrSvc, policy), nil
}

func newServer(p ServerParams) (*echoapi.Server, error) {
	return echoapi.NewServer(&echoapi.Deps{
		Conf:            p.Conf,
		Logger:          p.Logger,
		Validate:        p.Validate,
		Translator:      p.Translator,
		UserSvc:         p.UserSvc,
		SessionMgr:      p.SessionMgr,
		TaskSvc:         p.TaskSvc,
		SubmissionSvc:   p.SubmissionSvc,
		AttendanceSvc:   p.AttendanceSvc,
		ClassSessionSvc: p.ClassSessionSvc,
		DashboardSvc:    p.DashboardSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(newSessionManager))
	must(c.Provide(task.NewService))
	must(c.Provide(newSubmissionService))
	must(c.Provide(newAttendanceService))
	must(c.Provide(classsession.NewService))
	must(c.Provide(dashboard.NewService))
	must(c.Provide(schedsvc.New))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
