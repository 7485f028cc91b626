package postgres

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mvaleed/seedwork/internal/query"
)

// Listing describes the table a compiled query runs against.
type Listing struct {
	Table string
	// Columns are selected in order and are the only columns conditions and
	// orderings may name.
	Columns []string
	// Where is an extra predicate always applied, e.g. "deleted_at IS NULL".
	Where string
	// Tiebreak columns end every ORDER BY so pages are deterministic.
	Tiebreak []string
}

// Statement is SQL text with its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

var sqlOperators = map[query.Operator]string{
	query.Eq: "=",
	// IS DISTINCT FROM lets NULL columns satisfy ne, like the in-memory plan.
	query.Ne: "IS DISTINCT FROM",
	query.Lt: "<",
	query.Le: "<=",
	query.Gt: ">",
	query.Ge: ">=",
}

// BuildSelect renders the page query and the matching count query for plan.
// Ascending orderings put NULLs first and descending ones last, which is the
// order query.Plan uses in memory.
func BuildSelect[T any](l Listing, plan query.Plan[T]) (list, count Statement, err error) {
	var where []string
	if l.Where != "" {
		where = append(where, l.Where)
	}

	var args []any
	for _, c := range plan.Conditions() {
		if err := l.check(c.Column, c.Nested); err != nil {
			return Statement{}, Statement{}, err
		}
		op, ok := sqlOperators[c.Operator]
		if !ok {
			return Statement{}, Statement{}, fmt.Errorf("%w: operator %q", query.ErrUnsupported, c.Operator)
		}
		args = append(args, c.Value)
		where = append(where, c.Column+" "+op+" $"+strconv.Itoa(len(args)))
	}

	var whereSQL string
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var order []string
	for _, o := range plan.Ordering() {
		if err := l.check(o.Column, o.Nested); err != nil {
			return Statement{}, Statement{}, err
		}
		if o.Descending {
			order = append(order, o.Column+" DESC NULLS LAST")
		} else {
			order = append(order, o.Column+" ASC NULLS FIRST")
		}
	}
	order = append(order, l.Tiebreak...)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(l.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(l.Table)
	b.WriteString(whereSQL)
	if len(order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(order, ", "))
	}

	listArgs := slices.Clone(args)
	if plan.Limit() < math.MaxInt {
		listArgs = append(listArgs, plan.Limit())
		b.WriteString(" LIMIT $" + strconv.Itoa(len(listArgs)))
	}
	if plan.Offset() > 0 {
		listArgs = append(listArgs, plan.Offset())
		b.WriteString(" OFFSET $" + strconv.Itoa(len(listArgs)))
	}

	list = Statement{SQL: b.String(), Args: listArgs}
	count = Statement{SQL: "SELECT COUNT(*) FROM " + l.Table + whereSQL, Args: args}
	return list, count, nil
}

func (l Listing) check(column string, nested bool) error {
	if nested || !slices.Contains(l.Columns, column) {
		return fmt.Errorf("%w: column %q of %s", query.ErrUnsupported, column, l.Table)
	}
	return nil
}
