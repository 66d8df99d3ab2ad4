package inmemdb

import (
	"context"
	"sort"

	"github.com/adz4needz/portal/core/classsession"
)

type classSessionRepository struct {
	db *classSessionTable
}

var _ classsession.Repository = (*classSessionRepository)(nil)

func NewClassSessionRepository(db *DB) classsession.Repository {
	return &classSessionRepository{db: db.classSession}
}

func (repo *classSessionRepository) CreateClassSession(_ context.Context, cs classsession.ClassSession) (classsession.ClassSession, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[cs.ID] = &cs
	return cs, nil
}

func (repo *classSessionRepository) QueryClassSessions(_ context.Context, filter *classsession.QueryFilter) ([]classsession.ClassSession, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]classsession.ClassSession, 0, len(repo.db.table))
	for _, cs := range repo.db.table {
		if filter != nil && len(filter.Departments) > 0 && !containsDepartment(filter.Departments, cs.Department) {
			continue
		}
		sessions = append(sessions, *cs)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date > sessions[j].Date
		}
		return sessions[i].UploadedAt.After(sessions[j].UploadedAt)
	})
	return sessions, nil
}

func (repo *classSessionRepository) GetClassSession(_ context.Context, id string) (classsession.ClassSession, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if cs, ok := repo.db.table[id]; ok {
		return *cs, nil
	}
	return classsession.ClassSession{}, classsession.ErrNotFound
}

func (repo *classSessionRepository) UpdateClassSession(_ context.Context, cs classsession.ClassSession) (classsession.ClassSession, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.table[cs.ID]; !ok {
		return classsession.ClassSession{}, classsession.ErrNotFound
	}
	repo.db.table[cs.ID] = &cs
	return cs, nil
}

func (repo *classSessionRepository) DeleteClassSession(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.table[id]; !ok {
		return classsession.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
