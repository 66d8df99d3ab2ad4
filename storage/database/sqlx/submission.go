package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/submission"
)

type submissionRepository struct {
	db core.DBExecutor
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db core.DBExecutor) submission.Repository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	q := `INSERT INTO submissions (id, task_id, user_id, content, file_url, files, submitted_at, status)
		VALUES (:id, :task_id, :user_id, :content, :file_url, :files, :submitted_at, :status)`
	if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.QueryFilter) ([]submission.Submission, error) {
	var w where
	if filter != nil {
		if filter.TaskID != "" {
			w.add("task_id = ?", filter.TaskID)
		}
		if filter.UserID != "" {
			w.add("user_id = ?", filter.UserID)
		}
	}
	q := `SELECT id, task_id, user_id, content, file_url, files, submitted_at, status FROM submissions` +
		w.String() + ` ORDER BY submitted_at DESC`

	var subs []submission.Submission
	if err := repo.db.SelectContext(ctx, &subs, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return subs, nil
}
