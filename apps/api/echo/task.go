package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core/task"
)

type taskApi struct {
	svc         task.Service
	validate    *validator.Validate
	maxFileSize int64
}

func registerTaskAPI(g *echo.Group, deps *Deps, jwt, auth echo.MiddlewareFunc) {
	api := taskApi{
		svc:         deps.TaskSvc,
		validate:    deps.Validate,
		maxFileSize: deps.Conf.Uploads.MaxFileSize,
	}

	tg := g.Group("/tasks", jwt, auth)
	tg.GET("", api.query)
	tg.POST("", api.create, mentorMiddleware)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update, mentorMiddleware)
	tg.DELETE("/:id", api.destroy, mentorMiddleware)
	tg.GET("/:id/attachments/:idx", api.attachment)
}

// query returns every task to mentors and the visible ones to members.
func (api *taskApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var tasks []task.Task
	if usr.IsMentor() {
		filter := new(task.QueryFilter)
		if err = ctx.Bind(filter); err != nil {
			return ctx.JSON(http.StatusOK, []task.Task{})
		}
		tasks, err = api.svc.Query(ctx.Request().Context(), filter)
	} else {
		tasks, err = api.svc.VisibleTo(ctx.Request().Context(), usr)
	}
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding task")
	}
	if !t.VisibleTo(usr) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data task.NewTask
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err = data.Validate(api.validate, api.maxFileSize); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate, api.maxFileSize); err != nil {
		return err
	}

	t, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) attachment(ctx echo.Context) error {
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
