package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core/submission"
)

type submissionApi struct {
	svc         submission.Service
	validate    *validator.Validate
	maxFileSize int64
}

func registerSubmissionAPI(g *echo.Group, deps *Deps, jwt, auth echo.MiddlewareFunc) {
	api := submissionApi{
		svc:         deps.SubmissionSvc,
		validate:    deps.Validate,
		maxFileSize: deps.Conf.Uploads.MaxFileSize,
	}

	g.POST("/tasks/:id/submissions", api.create, jwt, auth, memberMiddleware)
	g.GET("/submissions", api.query, jwt, auth)
}

func (api *submissionApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data submission.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err = data.Validate(api.validate, api.maxFileSize); err != nil {
		return err
	}

	s, err := api.svc.Submit(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting")
	}
	return ctx.JSON(http.StatusCreated, s)
}

// query returns all submissions to mentors and their own to members.
func (api *submissionApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var subs []submission.Submission
	if usr.IsMentor() {
		filter := new(submission.QueryFilter)
		if err = ctx.Bind(filter); err != nil {
			return ctx.JSON(http.StatusOK, []submission.Submission{})
		}
		subs, err = api.svc.Query(ctx.Request().Context(), filter)
	} else {
		subs, err = api.svc.ByUser(ctx.Request().Context(), usr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
