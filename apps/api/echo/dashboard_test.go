package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adz4needz/portal/core/dashboard"
	"github.com/adz4needz/portal/core/submission"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
)

func Test_dashboardApi(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mentor := f.createUser(t, "Vikram Iyer", "vikram@example.com", user.RoleMentor, user.DeptNone)
	asha := f.createUser(t, "Asha Rao", "asha@example.com", user.RoleIntern, user.DeptHR)
	f.createUser(t, "Ravi Kumar", "ravi@example.com", user.RoleTelecaller, user.DeptTelecaller)

	deadline := testNow.Add(-time.Minute)
	tsk, err := f.taskSvc.Create(ctx, mentor, task.NewTask{Title: "Standup", Date: testToday, Deadline: &deadline})
	require.NoError(t, err)
	_, err = f.subSvc.Submit(ctx, asha, tsk.ID, submission.NewSubmission{Content: "late"})
	require.NoError(t, err)
	_, err = f.attSvc.ClockIn(ctx, asha)
	require.NoError(t, err)

	retrieve := func(t *testing.T, usr user.User, d interface{}) string {
		rec := f.serve(newAuthRequest(http.MethodGet, "/api/dashboard", f.token(t, usr)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp struct {
			View      string          `json:"view"`
			Dashboard json.RawMessage `json:"dashboard"`
		}
		unmarshal(t, rec, &resp)
		require.NoError(t, json.Unmarshal(resp.Dashboard, d))
		return resp.View
	}

	t.Run("mentor", func(t *testing.T) {
		var d dashboard.MentorDashboard
		assert.Equal(t, "mentor", retrieve(t, mentor, &d))
		assert.Equal(t, testToday, d.Today)
		assert.Len(t, d.Members, 2)
		assert.Equal(t, 1, d.PresentCount)
		assert.Equal(t, 1, d.LateSubmissions)
	})

	t.Run("student", func(t *testing.T) {
		var d dashboard.StudentDashboard
		assert.Equal(t, "student", retrieve(t, asha, &d))
		assert.Equal(t, asha.ID, d.User.ID)
		require.NotNil(t, d.TodayRecord)
		assert.Equal(t, submission.StatusLate, d.Submitted[tsk.ID])
		assert.Len(t, d.Tasks, 1)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := f.serve(newRequest(http.MethodGet, "/api/dashboard"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
