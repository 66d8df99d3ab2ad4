// Package dashboard assembles the data behind the mentor and student views.
package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/classsession"
	"github.com/adz4needz/portal/core/submission"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
)

type MentorDashboard struct {
	Tasks           []task.Task                 `json:"tasks"`
	Submissions     []submission.Submission     `json:"submissions"`
	Attendance      []attendance.Attendance     `json:"attendance"` // today
	ClassSessions   []classsession.ClassSession `json:"classSessions"`
	Members         []user.User                 `json:"members"`
	Today           string                      `json:"today"`
	PresentCount    int                         `json:"presentCount"`
	LateCount       int                         `json:"lateCount"`
	LateSubmissions int                         `json:"lateSubmissions"`
}

type StudentDashboard struct {
	User          user.User                   `json:"user"`
	Tasks         []task.Task                 `json:"tasks"`
	Submissions   []submission.Submission     `json:"submissions"`
	Attendance    []attendance.Attendance     `json:"attendance"`
	TodayRecord   *attendance.Attendance      `json:"todayRecord"`
	ClassSessions []classsession.ClassSession `json:"classSessions"`
	Today         string                      `json:"today"`
	// Submitted maps task IDs to the latest submission status of the user.
	Submitted map[string]submission.Status `json:"submitted"`
}

type Service struct {
	usrSvc  user.Service
	taskSvc task.Service
	subSvc  submission.Service
	attSvc  attendance.Service
	csSvc   classsession.Service
}

func NewService(
	usrSvc user.Service,
	taskSvc task.Service,
	subSvc submission.Service,
	attSvc attendance.Service,
	csSvc classsession.Service,
) *Service {
	return &Service{usrSvc: usrSvc, taskSvc: taskSvc, subSvc: subSvc, attSvc: attSvc, csSvc: csSvc}
}

// MentorView returns everything a mentor manages.
func (svc *Service) MentorView(ctx context.Context, today string) (MentorDashboard, error) {
	var (
		d   = MentorDashboard{Today: today}
		err error
	)
	if d.Tasks, err = svc.taskSvc.Query(ctx, nil); err != nil {
		return d, errors.Wrap(err, "querying tasks")
	}
	if d.Submissions, err = svc.subSvc.Query(ctx, nil); err != nil {
		return d, errors.Wrap(err, "querying submissions")
	}
	if d.Attendance, err = svc.attSvc.Query(ctx, &attendance.QueryFilter{Date: today}); err != nil {
		return d, errors.Wrap(err, "querying attendance")
	}
	if d.ClassSessions, err = svc.csSvc.Query(ctx, nil); err != nil {
		return d, errors.Wrap(err, "querying class sessions")
	}
	if d.Members, err = svc.usrSvc.Members(ctx); err != nil {
		return d, errors.Wrap(err, "querying members")
	}

	for _, a := range d.Attendance {
		switch a.Status {
		case attendance.StatusPresent:
			d.PresentCount++
		case attendance.StatusLate:
			d.LateCount++
		}
	}
	for _, s := range d.Submissions {
		if s.Status == submission.StatusLate {
			d.LateSubmissions++
		}
	}
	return d, nil
}

// StudentView returns the data scoped to u: visible tasks, u's own submissions and
// attendance, and the class sessions of u's department.
func (svc *Service) StudentView(ctx context.Context, u user.User, today string) (StudentDashboard, error) {
	var (
		d   = StudentDashboard{User: u, Today: today}
		err error
	)
	if d.Tasks, err = svc.taskSvc.VisibleTo(ctx, u); err != nil {
		return d, errors.Wrap(err, "querying tasks")
	}
	if d.Submissions, err = svc.subSvc.ByUser(ctx, u.ID); err != nil {
		return d, errors.Wrap(err, "querying submissions")
	}
	if d.Attendance, err = svc.attSvc.ByUser(ctx, u.ID); err != nil {
		return d, errors.Wrap(err, "querying attendance")
	}
	if d.ClassSessions, err = svc.csSvc.VisibleTo(ctx, u); err != nil {
		return d, errors.Wrap(err, "querying class sessions")
	}

	for i, a := range d.Attendance {
		if a.Date == today {
			d.TodayRecord = &d.Attendance[i]
			break
		}
	}
	d.Submitted = make(map[string]submission.Status, len(d.Submissions))
	for _, s := range d.Submissions { // most recent first
		if _, ok := d.Submitted[s.TaskID]; !ok {
			d.Submitted[s.TaskID] = s.Status
		}
	}
	return d, nil
}
