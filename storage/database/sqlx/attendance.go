package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/attendance"
)

type attendanceRepository struct {
	db core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db core.DBExecutor) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) CreateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := `INSERT INTO attendance (id, user_id, date, clock_in_time, status)
		VALUES (:id, :user_id, :date, :clock_in_time, :status)`
	if _, err := repo.db.NamedExecContext(ctx, q, a); err != nil {
		if isUniqueViolation(err) { // UNIQUE (user_id, date)
			return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
		}
		return attendance.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return a, nil
}

func (repo *attendanceRepository) QueryAttendance(ctx context.Context, filter *attendance.QueryFilter) ([]attendance.Attendance, error) {
	var w where
	if filter != nil {
		if filter.UserID != "" {
			w.add("user_id = ?", filter.UserID)
		}
		if filter.Date != "" {
			w.add("date = ?::date", filter.Date)
		}
		if filter.From != "" {
			w.add("date >= ?::date", filter.From)
		}
		if filter.To != "" {
			w.add("date <= ?::date", filter.To)
		}
	}
	q := `SELECT id, user_id, date::text AS date, clock_in_time, status FROM attendance` + w.String() +
		` ORDER BY attendance.date DESC, substring(user_id FROM 2)::int`

	var records []attendance.Attendance
	if err := repo.db.SelectContext(ctx, &records, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	return records, nil
}
