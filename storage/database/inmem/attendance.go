package inmemdb

import (
	"context"
	"sort"

	"github.com/adz4needz/portal/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func attendanceKey(userID, date string) string { return userID + "/" + date }

func (repo *attendanceRepository) CreateAttendance(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := attendanceKey(a.UserID, a.Date)
	if _, ok := repo.db.table[key]; ok {
		return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
	}
	repo.db.table[key] = &a
	return a, nil
}

func (repo *attendanceRepository) QueryAttendance(_ context.Context, filter *attendance.QueryFilter) ([]attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Attendance, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		if filter != nil {
			if filter.UserID != "" && a.UserID != filter.UserID {
				continue
			}
			if filter.Date != "" && a.Date != filter.Date {
				continue
			}
			if filter.From != "" && a.Date < filter.From {
				continue
			}
			if filter.To != "" && a.Date > filter.To {
				continue
			}
		}
		records = append(records, *a)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		return employeeNumber(records[i].UserID) < employeeNumber(records[j].UserID)
	})
	return records, nil
}
