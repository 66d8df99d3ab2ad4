package task

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/file"
	"github.com/adz4needz/portal/core/user"
)

type Task struct {
	ID          string `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`

	// targeting: any combination, OR-matched against the viewer. No targeting means everyone.
	AssignedToDepartment *user.Department `json:"assignedToDepartment,omitempty" db:"assigned_to_department"`
	AssignedToRole       *user.Role       `json:"assignedToRole,omitempty" db:"assigned_to_role"`
	AssignedToUserID     *string          `json:"assignedToUserId,omitempty" db:"assigned_to_user_id"`

	Date        string           `json:"date" db:"date"` // YYYY-MM-DD
	Deadline    time.Time        `json:"deadline" db:"deadline"`
	Attachments file.Attachments `json:"attachments" db:"attachments"`
	CreatedBy   string           `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"-" db:"updated_at"`
}

// IsTargeted reports whether any targeting field is set.
func (t *Task) IsTargeted() bool {
	return t.AssignedToDepartment != nil || t.AssignedToRole != nil || t.AssignedToUserID != nil
}

// VisibleTo reports whether u may see the task. Mentors see every task.
func (t *Task) VisibleTo(u user.User) bool {
	if u.IsMentor() {
		return true
	}
	if !t.IsTargeted() {
		return true
	}
	if t.AssignedToDepartment != nil && *t.AssignedToDepartment == u.Department {
		return true
	}
	if t.AssignedToRole != nil && *t.AssignedToRole == u.Role {
		return true
	}
	return t.AssignedToUserID != nil && *t.AssignedToUserID == u.ID
}

// IsOverdue reports whether a submission made at `at` would be late.
func (t *Task) IsOverdue(at time.Time) bool {
	return at.After(t.Deadline)
}

// NewTask contains the information needed to create or replace a task.
type NewTask struct {
	Title                string           `json:"title" validate:"required,notblank"`
	Description          string           `json:"description"`
	AssignedToDepartment *user.Department `json:"assignedToDepartment" validate:"omitempty,department"`
	AssignedToRole       *user.Role       `json:"assignedToRole" validate:"omitempty,memberrole"`
	AssignedToUserID     *string          `json:"assignedToUserId" validate:"omitempty,notblank"`
	Date                 string           `json:"date" validate:"required,dateonly"`
	Deadline             *time.Time       `json:"deadline" validate:"required"`
	Attachments          file.Attachments `json:"attachments"`
}

func (nt *NewTask) Clean() {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.Date = core.CleanString(nt.Date)
	if nt.AssignedToUserID != nil {
		id := user.NormalizeEmployeeID(*nt.AssignedToUserID)
		nt.AssignedToUserID = &id
	}
	// empty strings sent by forms mean "no targeting"
	if nt.AssignedToDepartment != nil && *nt.AssignedToDepartment == "" {
		nt.AssignedToDepartment = nil
	}
	if nt.AssignedToRole != nil && *nt.AssignedToRole == "" {
		nt.AssignedToRole = nil
	}
	if nt.AssignedToUserID != nil && *nt.AssignedToUserID == "" {
		nt.AssignedToUserID = nil
	}
}

func (nt *NewTask) Validate(validate *validator.Validate, maxFileSize int64) error {
	nt.Clean()
	if err := validate.Struct(nt); err != nil {
		return err
	}
	if err := nt.Attachments.Check(maxFileSize); err != nil {
		return core.NewFieldValidationError("attachments", err.Error())
	}
	return nil
}

type QueryFilter struct {
	Date      string `query:"date"`
	CreatedBy string `query:"created_by"`
}
