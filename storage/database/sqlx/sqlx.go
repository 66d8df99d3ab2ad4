// Package sqlxrepos implements the repositories on postgres with sqlx.
package sqlxrepos

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/adz4needz/portal/core"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

// where accumulates AND-ed conditions with their positional arguments.
type where struct {
	conds []string
	args  []interface{}
}

// add appends a condition; every "?" in cond is replaced by the placeholder of arg.
func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// orderBy renders orderings, keeping only the columns in allowed.
func orderBy(ordering []core.DBOrdering, allowed map[string]bool, fallback string) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if allowed[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	clauses = append(clauses, fallback)
	return " ORDER BY " + strings.Join(clauses, ", ")
}
