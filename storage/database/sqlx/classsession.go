package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/classsession"
)

const classSessionColumns = `id, date::text AS date, topic, description, attachments, uploaded_by, uploaded_at, department`

type classSessionRepository struct {
	db core.DBExecutor
}

var _ classsession.Repository = (*classSessionRepository)(nil)

func NewClassSessionRepository(db core.DBExecutor) classsession.Repository {
	return &classSessionRepository{db: db}
}

func (repo *classSessionRepository) CreateClassSession(ctx context.Context, cs classsession.ClassSession) (classsession.ClassSession, error) {
	q := `INSERT INTO class_sessions (id, date, topic, description, attachments, uploaded_by, uploaded_at, department)
		VALUES (:id, :date, :topic, :description, :attachments, :uploaded_by, :uploaded_at, :department)`
	if _, err := repo.db.NamedExecContext(ctx, q, cs); err != nil {
		return classsession.ClassSession{}, errors.Wrap(err, "inserting class session")
	}
	return cs, nil
}

func (repo *classSessionRepository) QueryClassSessions(ctx context.Context, filter *classsession.QueryFilter) ([]classsession.ClassSession, error) {
	var w where
	if filter != nil && len(filter.Departments) > 0 {
		depts := make([]string, 0, len(filter.Departments))
		for _, d := range filter.Departments {
			depts = append(depts, string(d))
		}
		w.add("department = ANY(?)", pq.Array(depts))
	}
	q := `SELECT ` + classSessionColumns + ` FROM class_sessions` + w.String() +
		` ORDER BY class_sessions.date DESC, uploaded_at DESC`

	var sessions []classsession.ClassSession
	if err := repo.db.SelectContext(ctx, &sessions, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying class sessions")
	}
	return sessions, nil
}

func (repo *classSessionRepository) GetClassSession(ctx context.Context, id string) (classsession.ClassSession, error) {
	var cs classsession.ClassSession
	err := repo.db.GetContext(ctx, &cs, `SELECT `+classSessionColumns+` FROM class_sessions WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return classsession.ClassSession{}, classsession.ErrNotFound
		}
		return classsession.ClassSession{}, errors.Wrap(err, "getting class session")
	}
	return cs, nil
}

func (repo *classSessionRepository) UpdateClassSession(ctx context.Context, cs classsession.ClassSession) (classsession.ClassSession, error) {
	q := `UPDATE class_sessions SET
			date = :date, topic = :topic, description = :description, attachments = :attachments, department = :department
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, cs)
	if err != nil {
		return classsession.ClassSession{}, errors.Wrap(err, "updating class session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classsession.ClassSession{}, classsession.ErrNotFound
	}
	return cs, nil
}

func (repo *classSessionRepository) DeleteClassSession(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM class_sessions WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting class session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classsession.ErrNotFound
	}
	return nil
}
