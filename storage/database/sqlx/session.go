package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/session"
)

type sessionRepository struct {
	db core.DBExecutor
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db core.DBExecutor) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, s session.Session) (session.Session, error) {
	q := `INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (:id, :user_id, :created_at, :expires_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, s); err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string) (session.Session, error) {
	var s session.Session
	err := repo.db.GetContext(ctx, &s, `SELECT id, user_id, created_at, expires_at, revoked_at FROM sessions WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, errors.Wrap(err, "getting session")
	}
	return s, nil
}

func (repo *sessionRepository) RevokeSession(ctx context.Context, id string, at time.Time) error {
	var found bool
	err := repo.db.GetContext(ctx, &found, `
		WITH s AS (SELECT id FROM sessions WHERE id = $1),
		     u AS (UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL)
		SELECT EXISTS (SELECT 1 FROM s)`, id, at)
	if err != nil {
		return errors.Wrap(err, "revoking session")
	}
	if !found {
		return session.ErrNotFound
	}
	return nil
}

func (repo *sessionRepository) DeleteExpiredSessions(ctx context.Context, t time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, t)
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired sessions")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted sessions")
}
