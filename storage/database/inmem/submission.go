package inmemdb

import (
	"context"
	"sort"

	"github.com/adz4needz/portal/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db.submission}
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table = append(repo.db.table, s)
	return s, nil
}

func (repo *submissionRepository) QuerySubmissions(_ context.Context, filter *submission.QueryFilter) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]submission.Submission, 0, len(repo.db.table))
	for i := len(repo.db.table) - 1; i >= 0; i-- {
		s := repo.db.table[i]
		if filter != nil {
			if filter.TaskID != "" && s.TaskID != filter.TaskID {
				continue
			}
			if filter.UserID != "" && s.UserID != filter.UserID {
				continue
			}
		}
		subs = append(subs, s)
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}
