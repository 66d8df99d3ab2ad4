package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/file"
	"github.com/adz4needz/portal/core/user"
)

var (
	ErrNotFound           = errors.New("task not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		// QueryTasks returns tasks ordered by date then deadline, most recent first.
		QueryTasks(ctx context.Context, filter *QueryFilter) ([]Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTask(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, mentor user.User, nt NewTask) (Task, error)
		Update(ctx context.Context, id string, nt NewTask) (Task, error)
		Delete(ctx context.Context, id string) error
		GetByID(ctx context.Context, id string) (Task, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Task, error)
		// VisibleTo returns the tasks u is allowed to see.
		VisibleTo(ctx context.Context, u user.User) ([]Task, error)
		Attachment(ctx context.Context, u user.User, id string, idx int) (file.Attachment, error)
	}

	service struct {
		repo   Repository
		usrSvc user.Service
		now    func() time.Time
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service) Service {
	return &service{repo: repo, usrSvc: usrSvc, now: time.Now}
}

func (svc *service) checkAssignee(ctx context.Context, nt NewTask) error {
	if nt.AssignedToUserID == nil {
		return nil
	}
	usr, err := svc.usrSvc.GetByID(ctx, *nt.AssignedToUserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewFieldValidationError("assignedToUserId", "no such employee")
		}
		return errors.Wrap(err, "finding assignee")
	}
	if usr.IsMentor() {
		return core.NewFieldValidationError("assignedToUserId", "tasks cannot be assigned to a mentor")
	}
	return nil
}

// Create stores a new task. nt must have been validated.
func (svc *service) Create(ctx context.Context, mentor user.User, nt NewTask) (Task, error) {
	if err := svc.checkAssignee(ctx, nt); err != nil {
		return Task{}, err
	}
	now := svc.now().UTC()
	t := Task{
		ID:                   uuid.NewString(),
		Title:                nt.Title,
		Description:          nt.Description,
		AssignedToDepartment: nt.AssignedToDepartment,
		AssignedToRole:       nt.AssignedToRole,
		AssignedToUserID:     nt.AssignedToUserID,
		Date:                 nt.Date,
		Deadline:             nt.Deadline.UTC(),
		Attachments:          nt.Attachments,
		CreatedBy:            mentor.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	return svc.repo.CreateTask(ctx, t)
}

// Update replaces the editable fields of a task. nt must have been validated.
func (svc *service) Update(ctx context.Context, id string, nt NewTask) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if err = svc.checkAssignee(ctx, nt); err != nil {
		return Task{}, err
	}
	t.Title = nt.Title
	t.Description = nt.Description
	t.AssignedToDepartment = nt.AssignedToDepartment
	t.AssignedToRole = nt.AssignedToRole
	t.AssignedToUserID = nt.AssignedToUserID
	t.Date = nt.Date
	t.Deadline = nt.Deadline.UTC()
	t.Attachments = nt.Attachments
	t.UpdatedAt = svc.now().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteTask(ctx, id)
}

func (svc *service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, filter)
}

func (svc *service) VisibleTo(ctx context.Context, u user.User) ([]Task, error) {
	tasks, err := svc.repo.QueryTasks(ctx, nil)
	if err != nil {
		return nil, err
	}
	visible := tasks[:0]
	for _, t := range tasks {
		if t.VisibleTo(u) {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

// Attachment returns the idx-th attachment of a task visible to u.
func (svc *service) Attachment(ctx context.Context, u user.User, id string, idx int) (file.Attachment, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.VisibleTo(u) {
		return nil, ErrNotFound
	}
	if idx < 0 || idx >= len(t.Attachments) {
		return nil, ErrAttachmentNotFound
	}
	return t.Attachments[idx], nil
}
