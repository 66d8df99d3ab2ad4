package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adz4needz/portal/core/classsession"
	"github.com/adz4needz/portal/core/file"
	"github.com/adz4needz/portal/core/user"
)

func Test_classSessionApi(t *testing.T) {
	f := setup(t)
	mentor := f.createUser(t, "Vikram Iyer", "vikram@example.com", user.RoleMentor, user.DeptNone)
	asha := f.createUser(t, "Asha Rao", "asha@example.com", user.RoleIntern, user.DeptHR)
	ravi := f.createUser(t, "Ravi Kumar", "ravi@example.com", user.RoleTelecaller, user.DeptTelecaller)
	mentorToken, ashaToken, raviToken := f.token(t, mentor), f.token(t, asha), f.token(t, ravi)

	slides := file.NewStoredFile("slides.txt", "text/plain", []byte("payroll 101"))
	payroll := classsession.NewClassSession{
		Date:        testToday,
		Topic:       "Payroll",
		Department:  user.DeptHR,
		Attachments: file.Attachments{slides},
	}

	var created classsession.ClassSession
	t.Run("create", func(t *testing.T) {
		rec := f.serve(newAuthRequest(http.MethodPost, "/api/class-sessions", ashaToken, marshalObj(t, payroll)))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.serve(newAuthRequest(http.MethodPost, "/api/class-sessions", mentorToken, []byte(`{"date":"tomorrow"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"date"`)
		assert.Contains(t, rec.Body.String(), `"topic"`)

		rec = f.serve(newAuthRequest(http.MethodPost, "/api/class-sessions", mentorToken, marshalObj(t, payroll)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &created)
		assert.Equal(t, mentor.ID, created.UploadedBy)
		assert.Equal(t, user.DeptHR, created.Department)
	})

	_, err := f.csSvc.Create(context.Background(), mentor, classsession.NewClassSession{Date: testToday, Topic: "Welcome", Department: user.DeptNone})
	require.NoError(t, err)

	topics := func(t *testing.T, path, token string) []string {
		rec := f.serve(newAuthRequest(http.MethodGet, path, token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sessions []classsession.ClassSession
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
		res := make([]string, 0, len(sessions))
		for _, cs := range sessions {
			res = append(res, cs.Topic)
		}
		return res
	}

	t.Run("query", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"Payroll", "Welcome"}, topics(t, "/api/class-sessions", mentorToken))
		assert.Equal(t, []string{"Payroll"}, topics(t, "/api/class-sessions?department=HR", mentorToken))
		assert.ElementsMatch(t, []string{"Payroll", "Welcome"}, topics(t, "/api/class-sessions", ashaToken))
		assert.Equal(t, []string{"Welcome"}, topics(t, "/api/class-sessions", raviToken))
		// members cannot widen their scope
		assert.Equal(t, []string{"Welcome"}, topics(t, "/api/class-sessions?department=HR", raviToken))
	})

	t.Run("attachments", func(t *testing.T) {
		path := "/api/class-sessions/" + created.ID + "/attachments/0"
		rec := f.serve(newAuthRequest(http.MethodGet, path, ashaToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "payroll 101", rec.Body.String())

		rec = f.serve(newAuthRequest(http.MethodGet, path, raviToken))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		upd := payroll
		upd.Department = user.DeptTelecaller
		rec := f.serve(newAuthRequest(http.MethodPut, "/api/class-sessions/"+created.ID, mentorToken, marshalObj(t, upd)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.ElementsMatch(t, []string{"Payroll", "Welcome"}, topics(t, "/api/class-sessions", raviToken))

		rec = f.serve(newAuthRequest(http.MethodPut, "/api/class-sessions/nope", mentorToken, marshalObj(t, upd)))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := f.serve(newAuthRequest(http.MethodDelete, "/api/class-sessions/"+created.ID, raviToken))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.serve(newAuthRequest(http.MethodDelete, "/api/class-sessions/"+created.ID, mentorToken))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"Welcome"}, topics(t, "/api/class-sessions", raviToken))
	})
}
