package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/classsession"
	"github.com/adz4needz/portal/core/dashboard"
	"github.com/adz4needz/portal/core/submission"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
	inmemdb "github.com/adz4needz/portal/storage/database/inmem"
	testutil "github.com/adz4needz/portal/tests"
)

func TestDashboards(t *testing.T) {
	ctx := context.Background()
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)

	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	policy := attendance.Policy{Location: time.UTC, OfficeStart: 10 * time.Hour, GracePeriod: 15 * time.Minute}

	usrSvc := user.NewServiceMock(usrRepo, nil, conf, clock)
	taskSvc := task.NewService(inmemdb.NewTaskRepository(db), usrSvc)
	subSvc := submission.NewService(inmemdb.NewSubmissionRepository(db), taskSvc, clock)
	attSvc := attendance.NewService(inmemdb.NewAttendanceRepository(db), usrSvc, policy, clock)
	csSvc := classsession.NewService(inmemdb.NewClassSessionRepository(db))
	svc := dashboard.NewService(usrSvc, taskSvc, subSvc, attSvc, csSvc)

	mentor := testutil.CreateUser(t, usrRepo, "Vikram Iyer", "vikram@example.com", "", user.RoleMentor, user.DeptNone, true)
	asha := testutil.CreateUser(t, usrRepo, "Asha Rao", "asha@example.com", "", user.RoleIntern, user.DeptHR, true)
	ravi := testutil.CreateUser(t, usrRepo, "Ravi Kumar", "ravi@example.com", "", user.RoleTelecaller, user.DeptTelecaller, true)

	deadline := now.Add(-time.Hour)
	hr := user.DeptHR
	hrTask, err := taskSvc.Create(ctx, mentor, task.NewTask{Title: "Policies", AssignedToDepartment: &hr, Date: "2024-03-01", Deadline: &deadline})
	require.NoError(t, err)
	_, err = taskSvc.Create(ctx, mentor, task.NewTask{Title: "Call list", AssignedToUserID: &ravi.ID, Date: "2024-03-01", Deadline: &deadline})
	require.NoError(t, err)
	_, err = csSvc.Create(ctx, mentor, classsession.NewClassSession{Date: "2024-03-01", Topic: "Payroll", Department: user.DeptHR})
	require.NoError(t, err)
	_, err = csSvc.Create(ctx, mentor, classsession.NewClassSession{Date: "2024-03-01", Topic: "Scripts", Department: user.DeptTelecaller})
	require.NoError(t, err)

	_, err = attSvc.ClockIn(ctx, asha) // 10:30, late
	require.NoError(t, err)
	_, err = subSvc.Submit(ctx, asha, hrTask.ID, submission.NewSubmission{Content: "read"})
	require.NoError(t, err)

	t.Run("mentor", func(t *testing.T) {
		d, err := svc.MentorView(ctx, "2024-03-01")
		require.NoError(t, err)
		assert.Len(t, d.Tasks, 2)
		assert.Len(t, d.Submissions, 1)
		assert.Len(t, d.ClassSessions, 2)
		assert.Len(t, d.Members, 2)
		assert.Len(t, d.Attendance, 1)
		assert.Zero(t, d.PresentCount)
		assert.Equal(t, 1, d.LateCount)
		assert.Equal(t, 1, d.LateSubmissions)
	})

	t.Run("student", func(t *testing.T) {
		d, err := svc.StudentView(ctx, asha, "2024-03-01")
		require.NoError(t, err)
		assert.Equal(t, asha.ID, d.User.ID)
		require.Len(t, d.Tasks, 1)
		assert.Equal(t, hrTask.ID, d.Tasks[0].ID)
		require.Len(t, d.ClassSessions, 1)
		assert.Equal(t, "Payroll", d.ClassSessions[0].Topic)
		require.NotNil(t, d.TodayRecord)
		assert.Equal(t, attendance.StatusLate, d.TodayRecord.Status)
		assert.Equal(t, submission.StatusLate, d.Submitted[hrTask.ID])

		d, err = svc.StudentView(ctx, ravi, "2024-03-01")
		require.NoError(t, err)
		assert.Len(t, d.Tasks, 1)
		assert.Nil(t, d.TodayRecord)
		assert.Empty(t, d.Submitted)
	})
}
