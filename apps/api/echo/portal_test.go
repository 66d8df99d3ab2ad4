package echoapi_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/adz4needz/portal/apps/api/echo"
	"github.com/adz4needz/portal/core/user"
	testutil "github.com/adz4needz/portal/tests"
)

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == echoapi.SessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", echoapi.SessionCookieName)
	return nil
}

func loginForm(id, pwd string) url.Values {
	return url.Values{"employeeId": {id}, "password": {pwd}}
}

func Test_portal(t *testing.T) {
	f := setup(t)
	mentor := f.createUser(t, "Vikram Iyer", "vikram@example.com", user.RoleMentor, user.DeptNone)
	asha := f.createUser(t, "Asha Rao", "asha@example.com", user.RoleIntern, user.DeptWebDeveloper)

	get := func(path string, cookies ...*http.Cookie) string {
		req := newRequest(http.MethodGet, path)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := f.serve(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return rec.Body.String()
	}

	t.Run("anonymous", func(t *testing.T) {
		body := get("/")
		assert.Contains(t, body, `class="screen-auth"`)
		assert.Contains(t, body, `id="login"`)
		assert.NotContains(t, body, "sidebar")

		body = get("/?mode=register")
		assert.Contains(t, body, `id="register"`)
		assert.Contains(t, body, "Internship Student")

		// unknown or revoked cookies fall back to the auth screen
		body = get("/", &http.Cookie{Name: echoapi.SessionCookieName, Value: "garbage"})
		assert.Contains(t, body, `class="screen-auth"`)
	})

	t.Run("login failures", func(t *testing.T) {
		rec := f.serve(newFormRequest("/login", loginForm(asha.ID, "nope")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), user.ErrAuthenticationFailed.Error())
		assert.Contains(t, rec.Body.String(), `value="E101"`)
		assert.Empty(t, rec.Result().Cookies())

		rec = f.serve(newFormRequest("/login", url.Values{}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Employee ID and password are required")
	})

	t.Run("student", func(t *testing.T) {
		rec := f.serve(newFormRequest("/login", loginForm(asha.ID, testutil.DefaultPassword)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		cookie := sessionCookie(t, rec.Result())
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.NotEmpty(t, cookie.Value)

		body := rec.Body.String()
		assert.Contains(t, body, `class="screen-student"`)
		assert.Contains(t, body, `<div class="avatar">A</div>`)
		assert.Contains(t, body, `<span class="role">INTERN</span>`)
		assert.Contains(t, body, `<span class="employee-id">E101</span>`)
		assert.Contains(t, body, "accent-blue")
		assert.Contains(t, body, "You have not clocked in today.")

		// the cookie keeps the user signed in
		body = get("/", cookie)
		assert.Contains(t, body, `class="screen-student"`)
		assert.NotContains(t, body, "mobile-menu")

		body = get("/?menu=open", cookie)
		assert.Contains(t, body, "menu-open")
		assert.Contains(t, body, "mobile-menu")
		assert.Contains(t, body, "My tasks")

		// already signed in
		rec = f.serve(newFormRequest("/login", loginForm(asha.ID, testutil.DefaultPassword), cookie))
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		// sign out twice: both land on the auth screen
		for i := 0; i < 2; i++ {
			rec = f.serve(newFormRequest("/logout", nil, cookie))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `class="screen-auth"`)
			cleared := sessionCookie(t, rec.Result())
			assert.Empty(t, cleared.Value)
			assert.True(t, cleared.MaxAge < 0)
		}
		body = get("/", cookie)
		assert.Contains(t, body, `class="screen-auth"`)
	})

	t.Run("mentor", func(t *testing.T) {
		rec := f.serve(newFormRequest("/login", loginForm(mentor.ID, testutil.DefaultPassword)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := rec.Body.String()
		assert.Contains(t, body, `class="screen-mentor"`)
		assert.Contains(t, body, "accent-purple")
		assert.Contains(t, body, `<span class="role">MENTOR</span>`)
		assert.Contains(t, body, "Asha Rao") // members table
		assert.NotContains(t, body, "You have not clocked in today.")
	})

	t.Run("unknown role", func(t *testing.T) {
		odd := f.createUser(t, "Odd One", "odd@example.com", user.Role("ADMIN"), user.DeptNone)
		rec := f.serve(newFormRequest("/login", loginForm(odd.ID, testutil.DefaultPassword)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `class="screen-error"`)
		assert.Contains(t, rec.Body.String(), "Your account has an unknown role.")
	})

	t.Run("register", func(t *testing.T) {
		form := url.Values{
			"fullName":   {"Ravi Kumar"},
			"email":      {"asha@example.com"},
			"phone":      {"+91 98765 43210"},
			"password":   {testutil.DefaultPassword},
			"role":       {string(user.RoleTelecaller)},
			"department": {string(user.DeptTelecaller)},
		}
		rec := f.serve(newFormRequest("/register", form))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `class="field-error"`)
		assert.Contains(t, rec.Body.String(), `value="Ravi Kumar"`)

		form.Set("email", "ravi@example.com")
		rec = f.serve(newFormRequest("/register", form))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NotEmpty(t, sessionCookie(t, rec.Result()).Value)
		assert.Contains(t, rec.Body.String(), `class="screen-student"`)
		assert.Contains(t, rec.Body.String(), `<div class="avatar">R</div>`)
		assert.Contains(t, rec.Body.String(), `<span class="role">TELECALLER</span>`)
	})
}
