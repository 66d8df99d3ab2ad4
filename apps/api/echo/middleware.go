package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// mentorMiddleware restricts a route to mentors. It must run after sessionMiddleware.
func mentorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if usr.IsMentor() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// memberMiddleware restricts a route to telecallers, interns and employees.
func memberMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if usr.IsMember() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
