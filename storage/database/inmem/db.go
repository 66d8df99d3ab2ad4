package inmemdb

import (
	"sync"

	"github.com/adz4needz/portal/core/attendance"
	"github.com/adz4needz/portal/core/classsession"
	"github.com/adz4needz/portal/core/session"
	"github.com/adz4needz/portal/core/submission"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
)

// firstEmployeeNumber mirrors the start of the employee_id_seq postgres sequence.
const firstEmployeeNumber = 100

type (
	// DB is an in-memory database, used by tests and by the "memory" database engine.
	DB struct {
		user         *userTable
		session      *sessionTable
		task         *taskTable
		submission   *submissionTable
		attendance   *attendanceTable
		classSession *classSessionTable
	}

	userTable struct {
		sync.RWMutex
		table  map[string]*user.User
		nextID int
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*session.Session
	}

	taskTable struct {
		sync.RWMutex
		table map[string]*task.Task
	}

	submissionTable struct {
		sync.RWMutex
		table []submission.Submission // append-only
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Attendance
	}

	classSessionTable struct {
		sync.RWMutex
		table map[string]*classsession.ClassSession
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*user.User), nextID: firstEmployeeNumber},
		session:      &sessionTable{table: make(map[string]*session.Session)},
		task:         &taskTable{table: make(map[string]*task.Task)},
		submission:   &submissionTable{},
		attendance:   &attendanceTable{table: make(map[string]*attendance.Attendance)},
		classSession: &classSessionTable{table: make(map[string]*classsession.ClassSession)},
	}
}
