package echoapi_test

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	echoapi "github.com/adz4needz/portal/apps/api/echo"
	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/user"
	reportsvc "github.com/adz4needz/portal/services/report"
)

func Test_attendanceApi(t *testing.T) {
	f := setup(t)
	mentor := f.createUser(t, "Vikram Iyer", "vikram@example.com", user.RoleMentor, user.DeptNone)
	asha := f.createUser(t, "Asha Rao", "asha@example.com", user.RoleIntern, user.DeptHR)
	ravi := f.createUser(t, "Ravi Kumar", "ravi@example.com", user.RoleTelecaller, user.DeptTelecaller)
	mentorToken, ashaToken, raviToken := f.token(t, mentor), f.token(t, asha), f.token(t, ravi)

	clockIn := func(token string) (*attendance.Attendance, int) {
		rec := f.serve(newAuthRequest(http.MethodPost, "/api/attendance/clock-in", token))
		if rec.Code != http.StatusCreated {
			return nil, rec.Code
		}
		a := new(attendance.Attendance)
		unmarshal(t, rec, a)
		return a, rec.Code
	}
	today := func(token string) echoapi.TodayResponse {
		rec := f.serve(newAuthRequest(http.MethodGet, "/api/attendance/today", token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp echoapi.TodayResponse
		unmarshal(t, rec, &resp)
		return resp
	}

	t.Run("clock in", func(t *testing.T) {
		resp := today(ashaToken)
		assert.Equal(t, testToday, resp.Date)
		assert.Nil(t, resp.Record)

		a, code := clockIn(ashaToken) // 10:00 IST
		require.Equal(t, http.StatusCreated, code)
		assert.Equal(t, attendance.StatusPresent, a.Status)
		assert.Equal(t, testToday, a.Date)

		resp = today(ashaToken)
		require.NotNil(t, resp.Record)
		assert.Equal(t, a.ID, resp.Record.ID)

		_, code = clockIn(ashaToken)
		assert.Equal(t, http.StatusConflict, code)

		*f.clock = testNow.Add(20 * time.Minute)
		a, code = clockIn(raviToken)
		require.Equal(t, http.StatusCreated, code)
		assert.Equal(t, attendance.StatusLate, a.Status)
	})

	t.Run("mentors do not clock in", func(t *testing.T) {
		_, code := clockIn(mentorToken)
		assert.Equal(t, http.StatusForbidden, code)
		rec := f.serve(newAuthRequest(http.MethodGet, "/api/attendance/today", mentorToken))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	// the next office day
	*f.clock = testNow.Add(24 * time.Hour)
	_, code := clockIn(ashaToken)
	require.Equal(t, http.StatusCreated, code)

	t.Run("query", func(t *testing.T) {
		count := func(t *testing.T, path, token string) int {
			rec := f.serve(newAuthRequest(http.MethodGet, path, token))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var records []attendance.Attendance
			unmarshal(t, rec, &records)
			return len(records)
		}
		assert.Equal(t, 3, count(t, "/api/attendance", mentorToken))
		assert.Equal(t, 2, count(t, "/api/attendance?date="+testToday, mentorToken))
		assert.Equal(t, 2, count(t, "/api/attendance?user_id="+asha.ID, mentorToken))
		assert.Equal(t, 1, count(t, "/api/attendance?from=2024-03-02&to=2024-03-31", mentorToken))
		assert.Equal(t, 2, count(t, "/api/attendance", ashaToken))
		assert.Equal(t, 1, count(t, "/api/attendance", raviToken))
	})

	t.Run("export", func(t *testing.T) {
		rec := f.serve(newAuthRequest(http.MethodGet, "/api/attendance/export?from=2024-03-01&to=2024-03-01", mentorToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, reportsvc.ContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_2024-03-01_2024-03-01.xlsx")

		xlsx, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer xlsx.Close()
		rows, err := xlsx.GetRows("Attendance")
		require.NoError(t, err)
		assert.Len(t, rows, 3) // header + 2 records

		tests := []httpTest{
			{
				name:     "members are forbidden",
				method:   http.MethodGet,
				path:     "/api/attendance/export?from=2024-03-01&to=2024-03-01",
				token:    ashaToken,
				wantCode: http.StatusForbidden,
			},
			{
				name:     "missing range",
				method:   http.MethodGet,
				path:     "/api/attendance/export?from=2024-03-01",
				token:    mentorToken,
				wantCode: http.StatusBadRequest,
				wantData: []byte(`{"to":"to must be a date formatted as YYYY-MM-DD"}`),
			},
			{
				name:     "invalid date",
				method:   http.MethodGet,
				path:     "/api/attendance/export?from=01/03/2024&to=2024-03-01",
				token:    mentorToken,
				wantCode: http.StatusBadRequest,
				wantData: []byte(`{"from":"from must be a date formatted as YYYY-MM-DD"}`),
			},
		}
		runHTTPTests(t, f, tests)
	})
}
