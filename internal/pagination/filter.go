package pagination

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lagimmo/api/internal/validation"
)

const dateLayout = "2006-01-02"

// Filter accumulates AND-ed predicates and their positional arguments.
type Filter struct {
	conds []string
	args  []any
}

func NewFilter() *Filter {
	return &Filter{}
}

// Arg appends v and returns its placeholder.
func (f *Filter) Arg(v any) string {
	f.args = append(f.args, v)
	return "$" + strconv.Itoa(len(f.args))
}

// Where adds a raw predicate; every "?" in cond is bound to the next arg.
func (f *Filter) Where(cond string, args ...any) *Filter {
	var b strings.Builder
	i := 0
	for _, r := range cond {
		if r == '?' && i < len(args) {
			b.WriteString(f.Arg(args[i]))
			i++
			continue
		}
		b.WriteRune(r)
	}
	f.conds = append(f.conds, b.String())
	return f
}

// Search matches term case-insensitively against any of columns.
func (f *Filter) Search(term string, columns ...string) *Filter {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return f
	}
	ph := f.Arg("%" + escapeLike(term) + "%")
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + " ILIKE " + ph
	}
	f.conds = append(f.conds, "("+strings.Join(parts, " OR ")+")")
	return f
}

// Eq adds column = value when value is non-nil.
func (f *Filter) Eq(column string, value any) *Filter {
	if isNil(value) {
		return f
	}
	f.conds = append(f.conds, column+" = "+f.Arg(deref(value)))
	return f
}

// In adds column = ANY(values) when values is non-empty.
func (f *Filter) In(column string, values []string) *Filter {
	if len(values) == 0 {
		return f
	}
	f.conds = append(f.conds, column+" = ANY("+f.Arg(values)+")")
	return f
}

// Range adds inclusive bounds on a numeric column.
func (f *Filter) Range(column string, min, max *float64) *Filter {
	if min != nil {
		f.conds = append(f.conds, column+" >= "+f.Arg(*min))
	}
	if max != nil {
		f.conds = append(f.conds, column+" <= "+f.Arg(*max))
	}
	return f
}

// NullIf filters on whether column is null. want=true keeps non-null rows.
func (f *Filter) NullIf(column string, want *bool) *Filter {
	if want == nil {
		return f
	}
	if *want {
		f.conds = append(f.conds, column+" IS NOT NULL")
	} else {
		f.conds = append(f.conds, column+" IS NULL")
	}
	return f
}

// DateRange adds the bounds of r on column.
func (f *Filter) DateRange(column string, r DateRange) *Filter {
	if r.From != nil {
		f.conds = append(f.conds, column+" >= "+f.Arg(*r.From))
	}
	if r.To != nil {
		op := " <= "
		if r.toExclusive {
			op = " < "
		}
		f.conds = append(f.conds, column+op+f.Arg(*r.To))
	}
	return f
}

// Clause renders "WHERE a AND b", or "" when no predicate was added.
func (f *Filter) Clause() string {
	if len(f.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conds, " AND ")
}

func (f *Filter) Args() []any {
	return f.args
}

// Page renders the LIMIT/OFFSET tail and binds its arguments.
func (f *Filter) Page(opts Options) string {
	return "LIMIT " + f.Arg(opts.Limit) + " OFFSET " + f.Arg(opts.Offset())
}

// OrderBy resolves sortBy against allowed (API field -> SQL column). Unknown
// fields fall back to fallback.
func OrderBy(sortBy, order string, allowed map[string]string, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = fallback
	}
	if strings.ToUpper(order) != SortAsc {
		order = SortDesc
	} else {
		order = SortAsc
	}
	return fmt.Sprintf("ORDER BY %s %s", column, order)
}

// DateRange is an inclusive creation-time window.
type DateRange struct {
	From        *time.Time
	To          *time.Time
	toExclusive bool
}

// ParseDateRange accepts RFC3339 timestamps or YYYY-MM-DD dates. A date-only
// upper bound covers the whole day.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	if from != "" {
		t, _, err := parseTime(from)
		if err != nil {
			return DateRange{}, validation.New("fromDate", "fromDate must be a date (YYYY-MM-DD) or RFC3339 timestamp")
		}
		r.From = &t
	}
	if to != "" {
		t, dateOnly, err := parseTime(to)
		if err != nil {
			return DateRange{}, validation.New("toDate", "toDate must be a date (YYYY-MM-DD) or RFC3339 timestamp")
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
			r.toExclusive = true
		}
		r.To = &t
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return DateRange{}, validation.New("toDate", "toDate must not be before fromDate")
	}
	return r, nil
}

func parseTime(s string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, false, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func isNil(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case *string:
		return x == nil
	case *bool:
		return x == nil
	case *int:
		return x == nil
	case *float64:
		return x == nil
	}
	return false
}

func deref(v any) any {
	switch x := v.(type) {
	case *string:
		return *x
	case *bool:
		return *x
	case *int:
		return *x
	case *float64:
		return *x
	}
	return v
}
