package classsession_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adz4needz/portal/core/classsession"
	"github.com/adz4needz/portal/core/file"
	"github.com/adz4needz/portal/core/user"
	inmemdb "github.com/adz4needz/portal/storage/database/inmem"
	testutil "github.com/adz4needz/portal/tests"
)

var (
	mentor = user.User{ID: "E100", FullName: "Vikram Iyer", Role: user.RoleMentor, Department: user.DeptNone}
	asha   = user.User{ID: "E101", FullName: "Asha Rao", Role: user.RoleIntern, Department: user.DeptDataAnalyst}
	meera  = user.User{ID: "E102", FullName: "Meera Shah", Role: user.RoleEmployee, Department: user.DeptNone}
)

func TestNewClassSessionValidate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	ncs := classsession.NewClassSession{Date: "2024-03-01", Topic: " SQL joins "}
	require.NoError(t, ncs.Validate(validate, 0))
	assert.Equal(t, user.DeptNone, ncs.Department, "no department means everyone")
	assert.Equal(t, "SQL joins", ncs.Topic)

	ncs = classsession.NewClassSession{Date: "2024-03-01", Topic: "SQL", Department: "SALES"}
	assert.Error(t, ncs.Validate(validate, 0))

	ncs = classsession.NewClassSession{Date: "2024-13-01", Topic: "SQL"}
	assert.Error(t, ncs.Validate(validate, 0))

	ncs = classsession.NewClassSession{Date: "2024-03-01", Topic: "SQL", Attachments: file.Attachments{file.LegacyFile(" ")}}
	assert.Error(t, ncs.Validate(validate, 0))
}

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := classsession.NewService(inmemdb.NewClassSessionRepository(inmemdb.Open()))

	slides := file.NewStoredFile("slides.txt", "", []byte("week one"))
	general, err := svc.Create(ctx, mentor, classsession.NewClassSession{
		Date: "2024-03-01", Topic: "Orientation", Department: user.DeptNone,
		Attachments: file.Attachments{slides},
	})
	require.NoError(t, err)
	assert.Equal(t, mentor.ID, general.UploadedBy)
	assert.False(t, general.UploadedAt.IsZero())

	data, err := svc.Create(ctx, mentor, classsession.NewClassSession{Date: "2024-03-04", Topic: "Pivot tables", Department: user.DeptDataAnalyst})
	require.NoError(t, err)
	_, err = svc.Create(ctx, mentor, classsession.NewClassSession{Date: "2024-03-05", Topic: "SEO basics", Department: user.DeptDigitalMarketing})
	require.NoError(t, err)

	visible, err := svc.VisibleTo(ctx, asha)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, data.ID, visible[0].ID, "most recent first")
	assert.Equal(t, general.ID, visible[1].ID)

	visible, err = svc.VisibleTo(ctx, meera)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, general.ID, visible[0].ID)

	visible, err = svc.VisibleTo(ctx, mentor)
	require.NoError(t, err)
	assert.Len(t, visible, 3)

	a, err := svc.Attachment(ctx, meera, general.ID, 0)
	require.NoError(t, err)
	content, mime, err := a.Content()
	require.NoError(t, err)
	assert.Equal(t, "week one", string(content))
	assert.Contains(t, mime, "text/plain")

	_, err = svc.Attachment(ctx, meera, data.ID, 0)
	assert.Equal(t, classsession.ErrNotFound, err)
	_, err = svc.Attachment(ctx, asha, data.ID, 0)
	assert.Equal(t, classsession.ErrAttachmentNotFound, err)

	updated, err := svc.Update(ctx, data.ID, classsession.NewClassSession{Date: "2024-03-04", Topic: "Pivot tables", Department: user.DeptNone})
	require.NoError(t, err)
	assert.Equal(t, user.DeptNone, updated.Department)
	assert.True(t, updated.VisibleTo(meera))

	require.NoError(t, svc.Delete(ctx, data.ID))
	assert.Equal(t, classsession.ErrNotFound, svc.Delete(ctx, data.ID))
	_, err = svc.Update(ctx, data.ID, classsession.NewClassSession{Date: "2024-03-04", Topic: "x", Department: user.DeptNone})
	assert.Equal(t, classsession.ErrNotFound, err)
}
