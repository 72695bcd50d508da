package pg

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/ligaac/practica/shared/domain"
)

// filter accumulates AND-ed conditions with positional arguments.
type filter struct {
	conds []string
	args  []any
}

// arg registers a positional argument and returns its placeholder.
func (f *filter) arg(v any) string {
	f.args = append(f.args, v)
	return fmt.Sprintf("$%d", len(f.args))
}

// add appends a condition whose single "%d" is replaced by the argument's position.
func (f *filter) add(cond string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, fmt.Sprintf(cond, len(f.args)))
}

// scope restricts groupColumn to the scope's groups. A restricted scope with
// no groups matches nothing, and rows without a group never match.
func (f *filter) scope(s domain.Scope, groupColumn string) {
	if !s.Restricted() {
		return
	}
	f.add(groupColumn+" = ANY($%d)", pq.Array(s.Groups()))
}

func (f *filter) search(text string, columns ...string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	f.args = append(f.args, "%"+escapeLike(text)+"%")
	n := len(f.args)
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", c, n)
	}
	f.conds = append(f.conds, "("+strings.Join(parts, " OR ")+")")
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.conds, " AND ")
}

func (f *filter) page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	f.args = append(f.args, limit, max(offset, 0))
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(f.args)-1, len(f.args))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
