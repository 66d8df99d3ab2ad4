// Package schedsvc runs the portal's periodic jobs.
package schedsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/session"
)

const (
	jobTimeout            = 4 * time.Minute
	purgeSessionsSchedule = "@daily"
)

// Scheduler marks absentees every evening and purges dead sessions daily.
type Scheduler struct {
	cron    *cron.Cron
	attSvc  attendance.Service
	sessMgr *session.Manager
	logger  core.Logger
	now     func() time.Time
}

func New(attSvc attendance.Service, sessMgr *session.Manager, logger core.Logger, conf *core.Config) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(conf.Attendance.Location()),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		attSvc:  attSvc,
		sessMgr: sessMgr,
		logger:  logger,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(conf.Attendance.AbsenteeSchedule, s.MarkAbsentees); err != nil {
		return nil, errors.Wrapf(err, "scheduling absentee marking %q", conf.Attendance.AbsenteeSchedule)
	}
	if _, err := s.cron.AddFunc(purgeSessionsSchedule, s.PurgeSessions); err != nil {
		return nil, errors.Wrap(err, "scheduling session purge")
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and waits for running jobs to complete, or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MarkAbsentees records ABSENT for the members who did not clock in today.
func (s *Scheduler) MarkAbsentees() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	today := s.attSvc.Policy().Today(s.now())
	n, err := s.attSvc.MarkAbsentees(ctx, today)
	if err != nil {
		s.logger.Error(fmt.Sprintf("marking absentees of %s: %v", today, err), errors.Wrap(err, "marking absentees"))
		return
	}
	s.logger.Info(fmt.Sprintf("marked %d absentee(s) on %s", n, today))
}

func (s *Scheduler) PurgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.sessMgr.Purge(ctx)
	if err != nil {
		s.logger.Error(fmt.Sprintf("purging sessions: %v", err), errors.Wrap(err, "purging sessions"))
		return
	}
	s.logger.Debug(fmt.Sprintf("purged %d expired session(s)", n))
}
