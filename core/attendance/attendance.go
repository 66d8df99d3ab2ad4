// Package attendance handles member clock-ins and absentee marking.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/user"
)

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusLate    Status = "LATE"
	StatusAbsent  Status = "ABSENT"
)

var (
	ErrAlreadyClockedIn = errors.New("already clocked in today")
	ErrNotAllowed       = errors.New("only telecallers, interns and employees clock in")
)

type Attendance struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	Date        string    `json:"date" db:"date"` // YYYY-MM-DD, office timezone
	ClockInTime time.Time `json:"clockInTime" db:"clock_in_time"`
	Status      Status    `json:"status" db:"status"`
}

type QueryFilter struct {
	UserID string `query:"user_id"`
	Date   string `query:"date"`
	From   string `query:"from"` // inclusive
	To     string `query:"to"`   // inclusive
}

// Policy decides the status of a clock-in.
type Policy struct {
	Location    *time.Location
	OfficeStart time.Duration // since midnight
	GracePeriod time.Duration
}

// NewPolicy parses officeStart ("HH:MM") from the attendance config.
func NewPolicy(conf core.AttendanceConfig) (Policy, error) {
	var h, m int
	if _, err := fmt.Sscanf(conf.OfficeStart, "%d:%d", &h, &m); err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return Policy{}, errors.Errorf("invalid office start %q", conf.OfficeStart)
	}
	return Policy{
		Location:    conf.Location(),
		OfficeStart: time.Duration(h)*time.Hour + time.Duration(m)*time.Minute,
		GracePeriod: conf.GracePeriod,
	}, nil
}

// StatusAt returns PRESENT for clock-ins up to office start + grace period, LATE afterwards.
func (p Policy) StatusAt(t time.Time) Status {
	local := t.In(p.Location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.Location)
	if local.Sub(midnight) <= p.OfficeStart+p.GracePeriod {
		return StatusPresent
	}
	return StatusLate
}

// Today returns the office-local calendar date of t.
func (p Policy) Today(t time.Time) string {
	return core.Today(t, p.Location)
}

type (
	Repository interface {
		// CreateAttendance returns ErrAlreadyClockedIn if the user already has a record for that date.
		CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		// QueryAttendance returns records ordered by date (most recent first) then user.
		QueryAttendance(ctx context.Context, filter *QueryFilter) ([]Attendance, error)
	}

	Service interface {
		ClockIn(ctx context.Context, u user.User) (Attendance, error)
		Today(ctx context.Context, u user.User) (*Attendance, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Attendance, error)
		ByUser(ctx context.Context, userID string) ([]Attendance, error)
		// MarkAbsentees records ABSENT for every active member without a record on date.
		MarkAbsentees(ctx context.Context, date string) (int, error)
		Policy() Policy
	}

	service struct {
		repo   Repository
		usrSvc user.Service
		policy Policy
		now    func() time.Time
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, policy Policy, now ...func() time.Time) Service {
	svc := &service{repo: repo, usrSvc: usrSvc, policy: policy, now: time.Now}
	if len(now) > 0 {
		svc.now = now[0]
	}
	return svc
}

func (svc *service) Policy() Policy { return svc.policy }

func (svc *service) ClockIn(ctx context.Context, u user.User) (Attendance, error) {
	if !u.IsMember() {
		return Attendance{}, ErrNotAllowed
	}
	now := svc.now()
	a := Attendance{
		ID:          uuid.NewString(),
		UserID:      u.ID,
		Date:        svc.policy.Today(now),
		ClockInTime: now.UTC(),
		Status:      svc.policy.StatusAt(now),
	}
	return svc.repo.CreateAttendance(ctx, a)
}

// Today returns u's record for the current office day, or nil.
func (svc *service) Today(ctx context.Context, u user.User) (*Attendance, error) {
	records, err := svc.repo.QueryAttendance(ctx, &QueryFilter{UserID: u.ID, Date: svc.policy.Today(svc.now())})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, filter)
}

func (svc *service) ByUser(ctx context.Context, userID string) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, &QueryFilter{UserID: userID})
}

func (svc *service) MarkAbsentees(ctx context.Context, date string) (int, error) {
	day, err := time.ParseInLocation(core.DateLayout, date, svc.policy.Location)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing date %q", date)
	}
	members, err := svc.usrSvc.Members(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying members")
	}
	records, err := svc.repo.QueryAttendance(ctx, &QueryFilter{Date: date})
	if err != nil {
		return 0, errors.Wrap(err, "querying attendance")
	}
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[r.UserID] = true
	}

	var marked int
	for _, m := range members {
		if seen[m.ID] || m.CreatedAt.In(svc.policy.Location).After(day.AddDate(0, 0, 1)) {
			continue
		}
		a := Attendance{
			ID:          uuid.NewString(),
			UserID:      m.ID,
			Date:        date,
			ClockInTime: day.UTC(),
			Status:      StatusAbsent,
		}
		if _, err = svc.repo.CreateAttendance(ctx, a); err != nil {
			if errors.Cause(err) == ErrAlreadyClockedIn { // clocked in meanwhile
				continue
			}
			return marked, errors.Wrapf(err, "marking %s absent", m.ID)
		}
		marked++
	}
	return marked, nil
}
