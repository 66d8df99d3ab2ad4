package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/user"
	reportsvc "github.com/adz4needz/portal/services/report"
)

type attendanceApi struct {
	svc    attendance.Service
	usrSvc user.Service
}

func registerAttendanceAPI(g *echo.Group, deps *Deps, jwt, auth echo.MiddlewareFunc) {
	api := attendanceApi{
		svc:    deps.AttendanceSvc,
		usrSvc: deps.UserSvc,
	}

	ag := g.Group("/attendance", jwt, auth)
	ag.GET("", api.query)
	ag.GET("/today", api.today, memberMiddleware)
	ag.POST("/clock-in", api.clockIn, memberMiddleware)
	ag.GET("/export", api.export, mentorMiddleware)
}

type TodayResponse struct {
	Date   string                 `json:"date"`
	Record *attendance.Attendance `json:"record"`
}

func (api *attendanceApi) clockIn(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	a, err := api.svc.ClockIn(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "clocking in")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *attendanceApi) today(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rec, err := api.svc.Today(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "finding today's record")
	}
	return ctx.JSON(http.StatusOK, TodayResponse{Date: api.svc.Policy().Today(now()), Record: rec})
}

// query returns the filtered records to mentors and their own history to members.
func (api *attendanceApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var records []attendance.Attendance
	if usr.IsMentor() {
		filter := new(attendance.QueryFilter)
		if err = ctx.Bind(filter); err != nil {
			return ctx.JSON(http.StatusOK, []attendance.Attendance{})
		}
		records, err = api.svc.Query(ctx.Request().Context(), filter)
	} else {
		records, err = api.svc.ByUser(ctx.Request().Context(), usr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, records)
}

// export downloads the records between ?from= and ?to= (inclusive) as a spreadsheet.
func (api *attendanceApi) export(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	for fld, val := range map[string]string{"from": filter.From, "to": filter.To} {
		if !core.IsDate(val) {
			return core.NewFieldValidationError(fld, fld+" must be a date formatted as YYYY-MM-DD")
		}
	}

	rctx := ctx.Request().Context()
	records, err := api.svc.Query(rctx, &attendance.QueryFilter{From: filter.From, To: filter.To})
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	users, err := api.usrSvc.Query(rctx, nil, nil)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}

	var buf bytes.Buffer
	if err = reportsvc.WriteAttendance(&buf, records, users, api.svc.Policy()); err != nil {
		return errors.Wrap(err, "writing attendance report")
	}
	filename := fmt.Sprintf("attendance_%s_%s.xlsx", filter.From, filter.To)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, reportsvc.ContentType, buf.Bytes())
}
