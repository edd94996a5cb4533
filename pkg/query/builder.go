package query

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// condition renders one WHERE term. param returns the next positional
// placeholder and must be called once per arg, in order.
type condition struct {
	render func(param func() string) string
	args   []any
}

// SortField represents a single column in an ORDER BY clause.
// Field is the logical field name (mapped via ProjectionMap).
type SortField struct {
	Field      string
	Descending bool
}

// Builder assembles SELECT statements over a ProjectionMap. Conditions are
// ANDed and numbered $1..$n in the order they were added.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses "Filename,-CreatedAt" into sort fields; a leading
// "-" means descending. Returns nil for empty input.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Build returns a SELECT query with the current conditions and ordering.
func (b *Builder) Build() (string, []any) {
	where, args := b.where()
	return b.selectFrom() + where + b.orderBy(), args
}

// BuildCount returns a COUNT(*) query with the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return "SELECT COUNT(*) FROM " + b.projection.From() + where, args
}

// BuildPage returns Build with LIMIT and OFFSET for a 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	sql, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, pageSize, (page-1)*pageSize), args
}

// BuildSingle returns a SELECT query for a single record by ID, ignoring
// any conditions already added.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return fmt.Sprintf("%s WHERE %s = $1", b.selectFrom(), b.projection.Column(idField)), []any{id}
}

// OrderByFields sets the sort order, overriding default sort fields.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.compare(field, "=", value)
}

// WhereContains adds a case-insensitive substring match. No-op for nil or empty values.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.compare(field, "ILIKE", "%"+*value+"%")
}

// WhereAny matches field against any element of values using = ANY($n),
// binding the slice as one array parameter. No-op for an empty slice.
func WhereAny[T any](b *Builder, field string, values []T) *Builder {
	if len(values) == 0 {
		return b
	}
	col := b.projection.Column(field)
	b.conditions = append(b.conditions, condition{
		render: func(param func() string) string { return col + " = ANY(" + param() + ")" },
		args:   []any{values},
	})
	return b
}

// WhereRange bounds a timestamp field to [from, until). Either end may be nil.
func (b *Builder) WhereRange(field string, from, until *time.Time) *Builder {
	if from != nil {
		b.compare(field, ">=", *from)
	}
	if until != nil {
		b.compare(field, "<", *until)
	}
	return b
}

// WhereNull adds an IS NULL or IS NOT NULL condition.
func (b *Builder) WhereNull(field string, null bool) *Builder {
	term := b.projection.Column(field) + " IS NOT NULL"
	if null {
		term = b.projection.Column(field) + " IS NULL"
	}
	b.conditions = append(b.conditions, condition{
		render: func(func() string) string { return term },
	})
	return b
}

// WhereSearch ORs a case-insensitive substring match across fields.
// No-op for nil or empty search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	args := make([]any, len(fields))
	for i := range fields {
		args[i] = pattern
	}

	b.conditions = append(b.conditions, condition{
		render: func(param func() string) string {
			terms := make([]string, len(fields))
			for i, f := range fields {
				terms[i] = b.projection.Column(f) + " ILIKE " + param()
			}
			return "(" + strings.Join(terms, " OR ") + ")"
		},
		args: args,
	})
	return b
}

func (b *Builder) compare(field, op string, value any) *Builder {
	col := b.projection.Column(field)
	b.conditions = append(b.conditions, condition{
		render: func(param func() string) string { return col + " " + op + " " + param() },
		args:   []any{value},
	})
	return b
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From()
}

// orderBy honors only projected fields; sort input comes from requests.
func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	var parts []string
	for _, f := range fields {
		if !b.projection.Has(f.Field) {
			continue
		}
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		parts = append(parts, b.projection.Column(f.Field)+dir)
	}

	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var (
		args  []any
		terms = make([]string, 0, len(b.conditions))
		n     = 0
	)
	param := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}

	for _, c := range b.conditions {
		terms = append(terms, c.render(param))
		args = append(args, c.args...)
	}
	return " WHERE " + strings.Join(terms, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// TimeParam reads an RFC 3339 timestamp or YYYY-MM-DD date (UTC midnight)
// from a query value. Missing or malformed values yield nil.
func TimeParam(values url.Values, key string) *time.Time {
	s := values.Get(key)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
