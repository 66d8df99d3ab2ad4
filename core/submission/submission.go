// Package submission records the work members hand in for tasks.
// Submissions are append-only.
package submission

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/file"
	"github.com/adz4needz/portal/core/task"
	"github.com/adz4needz/portal/core/user"
)

type Status string

const (
	StatusSubmitted Status = "SUBMITTED"
	StatusLate      Status = "LATE"
)

var (
	ErrNotFound   = errors.New("submission not found")
	ErrNotAllowed = errors.New("only telecallers, interns and employees can submit work")
)

type Submission struct {
	ID          string           `json:"id" db:"id"`
	TaskID      string           `json:"taskId" db:"task_id"`
	UserID      string           `json:"userId" db:"user_id"`
	Content     string           `json:"content" db:"content"`
	FileURL     string           `json:"fileUrl,omitempty" db:"file_url"` // legacy comma-joined filenames
	Files       file.StoredFiles `json:"files,omitempty" db:"files"`
	SubmittedAt time.Time        `json:"submittedAt" db:"submitted_at"`
	Status      Status           `json:"status" db:"status"`
}

// Attachments returns the legacy filenames followed by the stored files.
func (s *Submission) Attachments() file.Attachments {
	legacy := file.SplitLegacy(s.FileURL)
	as := make(file.Attachments, 0, len(legacy)+len(s.Files))
	for _, f := range legacy {
		as = append(as, f)
	}
	for _, f := range s.Files {
		as = append(as, f)
	}
	return as
}

// StatusAt derives the status of a submission made at `at` for a task due at deadline.
func StatusAt(at, deadline time.Time) Status {
	if at.After(deadline) {
		return StatusLate
	}
	return StatusSubmitted
}

type NewSubmission struct {
	Content string           `json:"content"`
	Files   file.StoredFiles `json:"files"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate, maxFileSize int64) error {
	ns.Content = core.CleanString(ns.Content)
	if ns.Content == "" && len(ns.Files) == 0 {
		return core.NewFieldValidationError("content", "provide some content or at least one file")
	}
	for _, f := range ns.Files {
		if err := f.Check(maxFileSize); err != nil {
			return core.NewFieldValidationError("files", err.Error())
		}
	}
	return validate.Struct(ns)
}

type QueryFilter struct {
	TaskID string `query:"task_id"`
	UserID string `query:"user_id"`
}

type (
	Repository interface {
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		// QuerySubmissions returns the most recent submissions first.
		QuerySubmissions(ctx context.Context, filter *QueryFilter) ([]Submission, error)
	}

	Service interface {
		Submit(ctx context.Context, u user.User, taskID string, ns NewSubmission) (Submission, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Submission, error)
		ByUser(ctx context.Context, userID string) ([]Submission, error)
	}

	service struct {
		repo    Repository
		taskSvc task.Service
		now     func() time.Time
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, taskSvc task.Service, now ...func() time.Time) Service {
	svc := &service{repo: repo, taskSvc: taskSvc, now: time.Now}
	if len(now) > 0 {
		svc.now = now[0]
	}
	return svc
}

// Submit appends a submission by u for a task visible to them. ns must have been validated.
func (svc *service) Submit(ctx context.Context, u user.User, taskID string, ns NewSubmission) (Submission, error) {
	if !u.IsMember() {
		return Submission{}, ErrNotAllowed
	}
	t, err := svc.taskSvc.GetByID(ctx, taskID)
	if err != nil {
		return Submission{}, err
	}
	if !t.VisibleTo(u) {
		return Submission{}, task.ErrNotFound
	}

	now := svc.now().UTC()
	s := Submission{
		ID:          uuid.NewString(),
		TaskID:      t.ID,
		UserID:      u.ID,
		Content:     ns.Content,
		Files:       ns.Files,
		SubmittedAt: now,
		Status:      StatusAt(now, t.Deadline),
	}
	return svc.repo.CreateSubmission(ctx, s)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, filter)
}

func (svc *service) ByUser(ctx context.Context, userID string) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, &QueryFilter{UserID: userID})
}
