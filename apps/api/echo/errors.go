package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/classsession"
	"github.com/adz4needz/portal/core/file"
	"github.com/adz4needz/portal/core/session"
	"github.com/adz4needz/portal/core/submission"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// domainErrorCode maps the sentinel errors of the core packages to their HTTP status.
// Causes are compared, never hashed: validator.ValidationErrors is a slice.
func domainErrorCode(err error) (int, bool) {
	switch err {
	case user.ErrNotFound, task.ErrNotFound, task.ErrAttachmentNotFound,
		classsession.ErrNotFound, classsession.ErrAttachmentNotFound, file.ErrNoContent:
		return http.StatusNotFound, true
	case user.ErrAuthenticationFailed:
		return http.StatusBadRequest, true
	case user.ErrAccountDeactivated, session.ErrRefreshExpired, submission.ErrNotAllowed, attendance.ErrNotAllowed:
		return http.StatusForbidden, true
	case session.ErrNoSession:
		return http.StatusUnauthorized, true
	case attendance.ErrAlreadyClockedIn:
		return http.StatusConflict, true
	}
	return 0, false
}

type (
	SuccessResponse struct {
		Success bool `json:"success"`
	}

	ErrorResponse struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if c, ok := domainErrorCode(cause); ok {
			code = c
			message = cause.Error()
		} else {
			switch origErr := cause.(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					message = origErr.Message
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
					logger.Error(msg, errors.Wrap(err, msg), usr)
				} else {
					logger.Error(msg, errors.Wrap(err, msg))
				}

				if ctx.Echo().Debug {
					message = err.Error()
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if m, ok := message.(string); ok {
			message = ErrorResponse{Error: m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
