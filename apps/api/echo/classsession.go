package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core/classsession"
)

type classSessionApi struct {
	svc         classsession.Service
	validate    *validator.Validate
	maxFileSize int64
}

func registerClassSessionAPI(g *echo.Group, deps *Deps, jwt, auth echo.MiddlewareFunc) {
	api := classSessionApi{
		svc:         deps.ClassSessionSvc,
		validate:    deps.Validate,
		maxFileSize: deps.Conf.Uploads.MaxFileSize,
	}

	cg := g.Group("/class-sessions", jwt, auth)
	cg.GET("", api.query)
	cg.POST("", api.create, mentorMiddleware)
	cg.PUT("/:id", api.update, mentorMiddleware)
	cg.DELETE("/:id", api.destroy, mentorMiddleware)
	cg.GET("/:id/attachments/:idx", api.attachment)
}

func (api *classSessionApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var sessions []classsession.ClassSession
	if usr.IsMentor() {
		filter := new(classsession.QueryFilter)
		if err = ctx.Bind(filter); err != nil {
			return ctx.JSON(http.StatusOK, []classsession.ClassSession{})
		}
		sessions, err = api.svc.Query(ctx.Request().Context(), filter)
	} else {
		sessions, err = api.svc.VisibleTo(ctx.Request().Context(), usr)
	}
	if err != nil {
		return errors.Wrap(err, "querying class sessions")
	}
	if sessions == nil {
		sessions = []classsession.ClassSession{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *classSessionApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data classsession.NewClassSession
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassSession")
	}
	if err = data.Validate(api.validate, api.maxFileSize); err != nil {
		return err
	}

	cs, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating class session")
	}
	return ctx.JSON(http.StatusCreated, cs)
}

func (api *classSessionApi) update(ctx echo.Context) error {
	var data classsession.NewClassSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassSession")
	}
	if err := data.Validate(api.validate, api.maxFileSize); err != nil {
		return err
	}

	cs, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class session")
	}
	return ctx.JSON(http.StatusOK, cs)
}

func (api *classSessionApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classSessionApi) attachment(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	idx, err := attachmentIndex(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.Attachment(ctx.Request().Context(), usr, ctx.Param("id"), idx)
	if err != nil {
		return errors.Wrap(err, "finding attachment")
	}
	return serveAttachment(ctx, a)
}
