// Package classsession manages the class material mentors upload for a department.
package classsession

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/file"
	"github.com/adz4needz/portal/core/user"
)

var (
	ErrNotFound           = errors.New("class session not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

type ClassSession struct {
	ID          string           `json:"id" db:"id"`
	Date        string           `json:"date" db:"date"` // YYYY-MM-DD
	Topic       string           `json:"topic" db:"topic"`
	Description string           `json:"description" db:"description"`
	Attachments file.Attachments `json:"attachments" db:"attachments"`
	UploadedBy  string           `json:"uploadedBy" db:"uploaded_by"`
	UploadedAt  time.Time        `json:"uploadedAt" db:"uploaded_at"`
	Department  user.Department  `json:"department" db:"department"`
}

// VisibleTo reports whether u may see the session: mentors see all, members see their
// department's sessions and the ones targeted to NONE.
func (cs *ClassSession) VisibleTo(u user.User) bool {
	if u.IsMentor() {
		return true
	}
	return cs.Department == user.DeptNone || cs.Department == u.Department
}

type NewClassSession struct {
	Date        string           `json:"date" validate:"required,dateonly"`
	Topic       string           `json:"topic" validate:"required,notblank"`
	Description string           `json:"description"`
	Attachments file.Attachments `json:"attachments"`
	Department  user.Department  `json:"department" validate:"required,department"`
}

func (ncs *NewClassSession) Validate(validate *validator.Validate, maxFileSize int64) error {
	ncs.Date = core.CleanString(ncs.Date)
	ncs.Topic = core.CleanString(ncs.Topic)
	ncs.Description = core.CleanString(ncs.Description)
	if ncs.Department == "" {
		ncs.Department = user.DeptNone
	}
	if err := validate.Struct(ncs); err != nil {
		return err
	}
	if err := ncs.Attachments.Check(maxFileSize); err != nil {
		return core.NewFieldValidationError("attachments", err.Error())
	}
	return nil
}

type QueryFilter struct {
	Departments []user.Department `query:"department"`
}

type (
	Repository interface {
		CreateClassSession(ctx context.Context, cs ClassSession) (ClassSession, error)
		// QueryClassSessions returns sessions ordered by date, most recent first.
		QueryClassSessions(ctx context.Context, filter *QueryFilter) ([]ClassSession, error)
		GetClassSession(ctx context.Context, id string) (ClassSession, error)
		UpdateClassSession(ctx context.Context, cs ClassSession) (ClassSession, error)
		DeleteClassSession(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, mentor user.User, ncs NewClassSession) (ClassSession, error)
		Update(ctx context.Context, id string, ncs NewClassSession) (ClassSession, error)
		Delete(ctx context.Context, id string) error
		Query(ctx context.Context, filter *QueryFilter) ([]ClassSession, error)
		VisibleTo(ctx context.Context, u user.User) ([]ClassSession, error)
		Attachment(ctx context.Context, u user.User, id string, idx int) (file.Attachment, error)
	}

	service struct {
		repo Repository
		now  func() time.Time
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (svc *service) Create(ctx context.Context, mentor user.User, ncs NewClassSession) (ClassSession, error) {
	cs := ClassSession{
		ID:          uuid.NewString(),
		Date:        ncs.Date,
		Topic:       ncs.Topic,
		Description: ncs.Description,
		Attachments: ncs.Attachments,
		UploadedBy:  mentor.ID,
		UploadedAt:  svc.now().UTC(),
		Department:  ncs.Department,
	}
	return svc.repo.CreateClassSession(ctx, cs)
}

func (svc *service) Update(ctx context.Context, id string, ncs NewClassSession) (ClassSession, error) {
	cs, err := svc.repo.GetClassSession(ctx, id)
	if err != nil {
		return ClassSession{}, err
	}
	cs.Date = ncs.Date
	cs.Topic = ncs.Topic
	cs.Description = ncs.Description
	cs.Attachments = ncs.Attachments
	cs.Department = ncs.Department
	return svc.repo.UpdateClassSession(ctx, cs)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteClassSession(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]ClassSession, error) {
	return svc.repo.QueryClassSessions(ctx, filter)
}

func (svc *service) VisibleTo(ctx context.Context, u user.User) ([]ClassSession, error) {
	if u.IsMentor() {
		return svc.repo.QueryClassSessions(ctx, nil)
	}
	depts := []user.Department{user.DeptNone}
	if u.Department != user.DeptNone {
		depts = append(depts, u.Department)
	}
	return svc.repo.QueryClassSessions(ctx, &QueryFilter{Departments: depts})
}

func (svc *service) Attachment(ctx context.Context, u user.User, id string, idx int) (file.Attachment, error) {
	cs, err := svc.repo.GetClassSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cs.VisibleTo(u) {
		return nil, ErrNotFound
	}
	if idx < 0 || idx >= len(cs.Attachments) {
		return nil, ErrAttachmentNotFound
	}
	return cs.Attachments[idx], nil
}
