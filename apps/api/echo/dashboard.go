package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/dashboard"
	"github.com/adz4needz/portal/core/portal"
)

// now is the server clock.
var now = time.Now

type dashboardApi struct {
	svc    *dashboard.Service
	policy attendance.Policy
}

func registerDashboardAPI(g *echo.Group, deps *Deps, jwt, auth echo.MiddlewareFunc) {
	api := dashboardApi{
		svc:    deps.DashboardSvc,
		policy: deps.AttendanceSvc.Policy(),
	}
	g.GET("/dashboard", api.retrieve, jwt, auth)
}

type DashboardResponse struct {
	View      string      `json:"view"` // mentor | student
	Dashboard interface{} `json:"dashboard"`
}

// retrieve dispatches on the user's role, the same way the portal shell does.
func (api *dashboardApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rctx := ctx.Request().Context()
	today := api.policy.Today(now())
	sub, ok := portal.Route(usr.Role)
	switch {
	case ok && sub == portal.MentorSubtree:
		d, err := api.svc.MentorView(rctx, today)
		if err != nil {
			return errors.Wrap(err, "building mentor dashboard")
		}
		return ctx.JSON(http.StatusOK, DashboardResponse{View: string(portal.ScreenMentor), Dashboard: d})
	case ok && sub == portal.StudentSubtree:
		d, err := api.svc.StudentView(rctx, usr, today)
		if err != nil {
			return errors.Wrap(err, "building student dashboard")
		}
		return ctx.JSON(http.StatusOK, DashboardResponse{View: string(portal.ScreenStudent), Dashboard: d})
	}
	return errHttpForbidden
}
