// Package logsvc reports logs to rollbar and echoes them to a standard logger.
package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/user"
)

// RollbarLogger attributes reports to the portal user passed among the args (user.User or *user.User):
// rollbar's person is the employee, and their role and department go to the custom data.
type RollbarLogger struct {
	std *log.Logger
	env string
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std, env: conf.Env}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// employeeData is the custom data attached to reports about a portal user.
func employeeData(usr user.User) map[string]interface{} {
	return map[string]interface{}{
		"employee_id": usr.ID,
		"role":        string(usr.Role),
		"department":  string(usr.Department),
		"active":      usr.IsActive,
	}
}

// prepare turns args into rollbar's: msg first, then errors and values, with every custom data map merged into one.
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usr *user.User
	custom := make(map[string]interface{})
	newArgs := make([]interface{}, 0, len(args)+2)
	newArgs = append(newArgs, msg)

	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if usr == nil {
				u := a
				usr = &u
			}
		case *user.User:
			if usr == nil && a != nil {
				usr = a
			}
		case map[string]interface{}:
			for k, v := range a {
				custom[k] = v
			}
		default:
			newArgs = append(newArgs, arg)
		}
	}

	if usr != nil {
		rollbar.SetPerson(usr.ID, usr.FullName, usr.Email)
		for k, v := range employeeData(*usr) {
			custom[k] = v
		}
	} else {
		rollbar.ClearPerson()
	}
	if len(custom) > 0 {
		newArgs = append(newArgs, custom)
	}
	return newArgs
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			l.std.Printf("user: %s (%s, %s)\n", a.ID, a.Role, a.Department)
		case *user.User:
			if a != nil {
				l.std.Printf("user: %s (%s, %s)\n", a.ID, a.Role, a.Department)
			}
		default:
			l.std.Printf("%+v\n", arg)
		}
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print(msg, args)
	rollbar.Wait()
	l.std.Fatalf("[%s] %s", l.env, msg)
}
