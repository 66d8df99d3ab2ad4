package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/task"
)

const taskColumns = `id, title, description, assigned_to_department, assigned_to_role, assigned_to_user_id,
	date::text AS date, deadline, attachments, created_by, created_at, updated_at`

type taskRepository struct {
	db core.DBExecutor
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db core.DBExecutor) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	q := `INSERT INTO tasks (id, title, description, assigned_to_department, assigned_to_role, assigned_to_user_id,
			date, deadline, attachments, created_by, created_at, updated_at)
		VALUES (:id, :title, :description, :assigned_to_department, :assigned_to_role, :assigned_to_user_id,
			:date, :deadline, :attachments, :created_by, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, t); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter) ([]task.Task, error) {
	var w where
	if filter != nil {
		if filter.Date != "" {
			w.add("date = ?::date", filter.Date)
		}
		if filter.CreatedBy != "" {
			w.add("created_by = ?", filter.CreatedBy)
		}
	}
	q := `SELECT ` + taskColumns + ` FROM tasks` + w.String() + ` ORDER BY tasks.date DESC, deadline DESC, created_at DESC`

	var tasks []task.Task
	if err := repo.db.SelectContext(ctx, &tasks, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	return tasks, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	var t task.Task
	if err := repo.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "getting task")
	}
	return t, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	q := `UPDATE tasks SET
			title = :title, description = :description, assigned_to_department = :assigned_to_department,
			assigned_to_role = :assigned_to_role, assigned_to_user_id = :assigned_to_user_id, date = :date,
			deadline = :deadline, attachments = :attachments, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, t)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.ErrNotFound
	}
	return nil
}
