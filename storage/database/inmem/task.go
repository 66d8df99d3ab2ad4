package inmemdb

import (
	"context"
	"sort"

	"github.com/adz4needz/portal/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.task}
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) QueryTasks(_ context.Context, filter *task.QueryFilter) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tasks := make([]task.Task, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		if filter != nil {
			if filter.Date != "" && t.Date != filter.Date {
				continue
			}
			if filter.CreatedBy != "" && t.CreatedBy != filter.CreatedBy {
				continue
			}
		}
		tasks = append(tasks, *t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Date != tasks[j].Date {
			return tasks[i].Date > tasks[j].Date
		}
		if !tasks[i].Deadline.Equal(tasks[j].Deadline) {
			return tasks[i].Deadline.After(tasks[j].Deadline)
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (repo *taskRepository) GetTask(_ context.Context, id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.table[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	if _, ok := repo.db.table[id]; !ok {
		return task.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
