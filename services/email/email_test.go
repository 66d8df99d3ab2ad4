package emailsvc_test

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/user"
	emailsvc "github.com/adz4needz/portal/services/email"
	testutil "github.com/adz4needz/portal/tests"
)

func TestNewService(t *testing.T) {
	conf := core.NewTestConfig()
	conf.SendgridApiKey = "SG.key"
	logger := testutil.NewLogger(conf)
	assert.IsType(t, emailsvc.NewConsoleService(logger, conf), emailsvc.NewService(logger, conf), "test mode never hits sendgrid")

	conf.TestMode = false
	assert.IsType(t, emailsvc.NewSendgridService(logger, conf), emailsvc.NewService(logger, conf))
}

func TestConsoleServiceMock(t *testing.T) {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(logger, true)
	emailsvc.ClearSentMessages()
	svc := emailsvc.NewConsoleServiceMock(logger, conf)

	to := mail.Address{Name: "Asha Rao", Address: "asha@example.com"}
	usr := user.User{ID: "E100", FullName: "Asha Rao", Role: user.RoleIntern, Department: user.DeptHR}
	welcome := core.NewEmailMessage(conf, "welcome", "Welcome", usr, to)

	plain := &core.EmailMessage{To: []mail.Address{to}, Subject: "Report", BodyStr: "see attached"}
	require.NoError(t, plain.Attach(strings.NewReader("a,b\n"), "report.csv", "text/csv"))

	noRecipient := &core.EmailMessage{Subject: "lost", BodyStr: "nobody"}
	missing := core.NewEmailMessage(conf, "no-such-template", "Empty", nil, to)

	svc.SendMessages(welcome, plain, noRecipient, missing)

	require.Len(t, emailsvc.SentMessages, 2)
	sent := emailsvc.SentMessages[0]
	assert.Contains(t, sent.TextContent, "Hi Asha Rao")
	assert.Contains(t, sent.TextContent, "Employee ID: E100")
	assert.Contains(t, sent.HTMLContent, "<strong>E100</strong>")

	sent = emailsvc.SentMessages[1]
	assert.Equal(t, "see attached", sent.TextContent)
	require.True(t, sent.HasAttachments())
	assert.Equal(t, "YSxiCg==", sent.Attachments[0].Content.String())
}
