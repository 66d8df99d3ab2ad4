package inmemdb

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.table))
	for _, u := range repo.db.table {
		users = append(users, *u)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.table {
		if usr.Email == email && !isExcluded(*usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.table {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	usr.ID = fmt.Sprintf("E%d", repo.db.nextID)
	repo.db.nextID++
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()
	if filter != nil {
		users = filterUsers(users, *filter)
	}
	sortUsers(users, ordering)
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.table {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.table {
		if u.ID != usr.ID && u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var deleted int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			deleted++
		}
	}
	return deleted, nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}

func filterUsers(users []user.User, filter user.QueryFilter) []user.User {
	search := strings.ToLower(filter.Search)
	filtered := users[:0]
	for _, usr := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(usr.ID), search) &&
			!strings.Contains(strings.ToLower(usr.FullName), search) &&
			!strings.Contains(strings.ToLower(usr.Email), search) {
			continue
		}
		if len(filter.Roles) > 0 && !containsRole(filter.Roles, usr.Role) {
			continue
		}
		if len(filter.Departments) > 0 && !containsDepartment(filter.Departments, usr.Department) {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		filtered = append(filtered, usr)
	}
	return filtered
}

func containsRole(roles []user.Role, role user.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func containsDepartment(depts []user.Department, dept user.Department) bool {
	for _, d := range depts {
		if d == dept {
			return true
		}
	}
	return false
}

// employeeNumber returns the numeric part of an employee ID, so that "E99" < "E100".
func employeeNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "E"))
	if err != nil {
		return -1
	}
	return n
}

// sortUsers sorts by the given orderings, then by employee ID.
func sortUsers(users []user.User, ordering []core.DBOrdering) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "full_name":
				cmp = strings.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
			case "email":
				cmp = strings.Compare(a.Email, b.Email)
			case "role":
				cmp = strings.Compare(string(a.Role), string(b.Role))
			case "department":
				cmp = strings.Compare(string(a.Department), string(b.Department))
			case "created_at":
				switch {
				case a.CreatedAt.Before(b.CreatedAt):
					cmp = -1
				case a.CreatedAt.After(b.CreatedAt):
					cmp = 1
				}
			case "id":
				cmp = employeeNumber(a.ID) - employeeNumber(b.ID)
			}
			if cmp != 0 {
				if ord.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return employeeNumber(a.ID) < employeeNumber(b.ID)
	})
}
