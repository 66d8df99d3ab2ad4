package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/adz4needz/portal/apps/api/echo"
	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/classsession"
	"github.com/adz4needz/portal/core/dashboard"
	"github.com/adz4needz/portal/core/session"
	"github.com/adz4needz/portal/core/submission"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
	emailsvc "github.com/adz4needz/portal/services/email"
	inmemdb "github.com/adz4needz/portal/storage/database/inmem"
	testutil "github.com/adz4needz/portal/tests"
)

// testNow is 10:00 in the office time zone (Asia/Kolkata), the last minute before the grace period.
var testNow = time.Date(2024, 3, 1, 4, 30, 0, 0, time.UTC)

const testToday = "2024-03-01"

type fixture struct {
	srv     *echoapi.Server
	conf    *core.Config
	usrRepo user.Repository
	mgr     *session.Manager
	taskSvc task.Service
	subSvc  submission.Service
	attSvc  attendance.Service
	csSvc   classsession.Service
	clock   *time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Server.DisableReqLogs = true
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(logger, true)
	user.LoadCommonPasswords(logger)
	emailsvc.ClearSentMessages()
	validate, translator := testutil.NewValidator()

	f := &fixture{conf: conf}
	now := testNow
	f.clock = &now
	clock := func() time.Time { return *f.clock }
	t.Cleanup(echoapi.SetClock(clock))

	policy, err := attendance.NewPolicy(conf.Attendance)
	require.NoError(t, err)

	// set up DB & services; sessions run on the real clock since the JWT middleware does
	db := inmemdb.Open()
	f.usrRepo = inmemdb.NewUserRepository(db)
	usrSvc := user.NewServiceMock(f.usrRepo, emailsvc.NewConsoleServiceMock(logger, conf), conf)
	f.mgr = session.NewManager(inmemdb.NewSessionRepository(db), usrSvc, conf)
	f.taskSvc = task.NewService(inmemdb.NewTaskRepository(db), usrSvc)
	f.subSvc = submission.NewService(inmemdb.NewSubmissionRepository(db), f.taskSvc, clock)
	f.attSvc = attendance.NewService(inmemdb.NewAttendanceRepository(db), usrSvc, policy, clock)
	f.csSvc = classsession.NewService(inmemdb.NewClassSessionRepository(db))

	// set up server
	f.srv, err = echoapi.NewServer(&echoapi.Deps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		SessionMgr:      f.mgr,
		TaskSvc:         f.taskSvc,
		SubmissionSvc:   f.subSvc,
		AttendanceSvc:   f.attSvc,
		ClassSessionSvc: f.csSvc,
		DashboardSvc:    dashboard.NewService(usrSvc, f.taskSvc, f.subSvc, f.attSvc, f.csSvc),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.srv.Shutdown(context.Background()) })
	return f
}

func (f *fixture) createUser(t *testing.T, name, email string, role user.Role, dept user.Department, isActive ...bool) user.User {
	active := len(isActive) == 0 || isActive[0]
	return testutil.CreateUser(t, f.usrRepo, name, email, testutil.DefaultPassword, role, dept, active)
}

func (f *fixture) token(t *testing.T, usr user.User) string {
	_, token, err := f.mgr.Start(context.Background(), usr)
	require.NoError(t, err)
	return token
}

func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...[]byte) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func newFormRequest(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}

func runHTTPTests(t *testing.T, f *fixture, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.serve(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}
