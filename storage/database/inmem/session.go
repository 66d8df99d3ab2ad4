package inmemdb

import (
	"context"
	"time"

	"github.com/adz4needz/portal/core/session"
)

type sessionRepository struct {
	db *sessionTable
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db.session}
}

func (repo *sessionRepository) CreateSession(_ context.Context, s session.Session) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (repo *sessionRepository) RevokeSession(_ context.Context, id string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	s, ok := repo.db.table[id]
	if !ok {
		return session.ErrNotFound
	}
	if s.RevokedAt == nil {
		s.RevokedAt = &at
	}
	return nil
}

func (repo *sessionRepository) DeleteExpiredSessions(_ context.Context, t time.Time) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	var deleted int
	for id, s := range repo.db.table {
		if s.ExpiresAt.Before(t) {
			delete(repo.db.table, id)
			deleted++
		}
	}
	return deleted, nil
}
