package user

import (
	"time"

	"github.com/adz4needz/portal/core"
)

// NewServiceMock returns a Service that sends emails synchronously and, when now is given, uses it as clock.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config, now ...func() time.Time) Service {
	svc := &service{
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   nil,
		conf:     conf,
		now:      time.Now,
		syncMail: true,
	}
	if len(now) > 0 {
		svc.now = now[0]
	}
	return svc
}
