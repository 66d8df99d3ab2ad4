package submission_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/file"
	"github.com/adz4needz/portal/core/submission"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
	inmemdb "github.com/adz4needz/portal/storage/database/inmem"
	testutil "github.com/adz4needz/portal/tests"
)

func TestStatusAt(t *testing.T) {
	deadline := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, submission.StatusSubmitted, submission.StatusAt(deadline.Add(-time.Hour), deadline))
	assert.Equal(t, submission.StatusSubmitted, submission.StatusAt(deadline, deadline))
	assert.Equal(t, submission.StatusLate, submission.StatusAt(deadline.Add(time.Millisecond), deadline))
}

func TestNewSubmissionValidate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	ns := submission.NewSubmission{Content: "   "}
	err := ns.Validate(validate, 0)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))

	ns = submission.NewSubmission{Content: " done "}
	require.NoError(t, ns.Validate(validate, 0))
	assert.Equal(t, "done", ns.Content)

	ns = submission.NewSubmission{Files: file.StoredFiles{file.NewStoredFile("report.csv", "text/csv", []byte("a,b\n1,2\n"))}}
	require.NoError(t, ns.Validate(validate, 1024))
	assert.Error(t, ns.Validate(validate, 4), "too large")

	ns = submission.NewSubmission{Files: file.StoredFiles{{FileName: "broken.txt", Data: "not a data url"}}}
	assert.Error(t, ns.Validate(validate, 0))
}

func TestAttachments(t *testing.T) {
	stored := file.NewStoredFile("notes.txt", "text/plain", []byte("notes"))
	s := submission.Submission{FileURL: "a.pdf, b.pdf", Files: file.StoredFiles{stored}}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "notes.txt"}, s.Attachments().Names())
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	conf := core.NewTestConfig()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	taskSvc := task.NewService(inmemdb.NewTaskRepository(db), user.NewServiceMock(usrRepo, nil, conf))

	mentor := testutil.CreateUser(t, usrRepo, "Vikram Iyer", "vikram@example.com", "", user.RoleMentor, user.DeptNone, true)
	asha := testutil.CreateUser(t, usrRepo, "Asha Rao", "asha@example.com", "", user.RoleIntern, user.DeptWebDeveloper, true)
	ravi := testutil.CreateUser(t, usrRepo, "Ravi Kumar", "ravi@example.com", "", user.RoleTelecaller, user.DeptTelecaller, true)

	deadline := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	dept := user.DeptWebDeveloper
	web, err := taskSvc.Create(ctx, mentor, task.NewTask{Title: "Landing page", AssignedToDepartment: &dept, Date: "2024-03-01", Deadline: &deadline})
	require.NoError(t, err)

	now := deadline.Add(-time.Hour)
	svc := submission.NewService(inmemdb.NewSubmissionRepository(db), taskSvc, func() time.Time { return now })

	first, err := svc.Submit(ctx, asha, web.ID, submission.NewSubmission{Content: "draft"})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusSubmitted, first.Status)
	assert.Equal(t, asha.ID, first.UserID)

	now = deadline.Add(time.Hour)
	second, err := svc.Submit(ctx, asha, web.ID, submission.NewSubmission{Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusLate, second.Status)

	_, err = svc.Submit(ctx, mentor, web.ID, submission.NewSubmission{Content: "x"})
	assert.Equal(t, submission.ErrNotAllowed, err)
	_, err = svc.Submit(ctx, ravi, web.ID, submission.NewSubmission{Content: "x"})
	assert.Equal(t, task.ErrNotFound, err, "task is not visible to ravi")
	_, err = svc.Submit(ctx, asha, "missing", submission.NewSubmission{Content: "x"})
	assert.Equal(t, task.ErrNotFound, err)

	// submissions are kept, most recent first
	subs, err := svc.ByUser(ctx, asha.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "final", subs[0].Content)
	assert.Equal(t, "draft", subs[1].Content)

	subs, err = svc.Query(ctx, &submission.QueryFilter{TaskID: web.ID, UserID: ravi.ID})
	require.NoError(t, err)
	assert.Empty(t, subs)
}
