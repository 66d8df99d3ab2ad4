package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/user"
)

const userColumns = `id, full_name, email, phone, role, department, password_hash, is_active, created_at, updated_at, last_login`

var userOrderings = map[string]bool{"full_name": true, "email": true, "role": true, "department": true, "created_at": true}

type userRepository struct {
	db core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DBExecutor) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	var w where
	w.add("email = ?", email)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		w.add("NOT (id = ANY(?))", pq.Array(ids))
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users`+w.String()+`)`, w.args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO users (id, full_name, email, phone, role, department, password_hash, is_active, created_at, updated_at)
		VALUES ('E' || nextval('employee_id_seq'), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q,
		usr.FullName, usr.Email, usr.Phone, usr.Role, usr.Department, usr.PasswordHash, usr.IsActive, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			w.add("(id ILIKE '%' || ? || '%' OR full_name ILIKE '%' || ? || '%' OR email ILIKE '%' || ? || '%')", filter.Search)
		}
		if len(filter.Roles) > 0 {
			roles := make([]string, 0, len(filter.Roles))
			for _, r := range filter.Roles {
				roles = append(roles, string(r))
			}
			w.add("role = ANY(?)", pq.Array(roles))
		}
		if len(filter.Departments) > 0 {
			depts := make([]string, 0, len(filter.Departments))
			for _, d := range filter.Departments {
				depts = append(depts, string(d))
			}
			w.add("department = ANY(?)", pq.Array(depts))
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
	}

	q := `SELECT ` + userColumns + ` FROM users` + w.String() +
		orderBy(ordering, userOrderings, `substring(id FROM 2)::int`)
	var users []user.User
	if err := repo.db.SelectContext(ctx, &users, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	switch {
	case filter.ID != "":
		w.add("id = ?", filter.ID)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users`+w.String(), w.args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET
			full_name = :full_name, email = :email, phone = :phone, role = :role, department = :department,
			password_hash = :password_hash, is_active = :is_active, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, usr)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted users")
}
