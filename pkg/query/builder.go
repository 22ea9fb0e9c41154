package query

import (
	"fmt"
	"strings"
)

// SortField orders by a logical field.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// ParseSort parses "model,-started_at" into sort fields; a leading '-'
// sorts descending.
func ParseSort(s string) []SortField {
	var out []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		out = append(out, SortField{Field: name, Descending: desc})
	}
	return out
}

type condition struct {
	// clause holds one "?" per arg, numbered when the query is built.
	clause string
	args   []any
}

// Builder accumulates conditions and ordering for a projection.
type Builder struct {
	proj        *Projection
	conds       []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder that orders by defaultSort unless OrderBy
// supplies valid fields.
func NewBuilder(proj *Projection, defaultSort ...SortField) *Builder {
	return &Builder{proj: proj, defaultSort: defaultSort}
}

// WhereEquals adds field = value. Nil pointers and empty strings are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isEmpty(value) {
		return b
	}
	col, ok := b.proj.Column(field)
	if !ok {
		return b
	}
	b.conds = append(b.conds, condition{clause: col + " = ?", args: []any{deref(value)}})
	return b
}

// WhereSearch adds a case-insensitive substring match across fields.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" {
		return b
	}

	var clauses []string
	var args []any
	for _, f := range fields {
		if col, ok := b.proj.Column(f); ok {
			clauses = append(clauses, col+" ILIKE ?")
			args = append(args, "%"+*search+"%")
		}
	}
	if len(clauses) == 0 {
		return b
	}

	b.conds = append(b.conds, condition{clause: "(" + strings.Join(clauses, " OR ") + ")", args: args})
	return b
}

// OrderBy replaces the default ordering. Unknown fields are dropped.
func (b *Builder) OrderBy(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// Build returns the unpaged SELECT.
func (b *Builder) Build() (string, []any) {
	where, args := b.where()
	return fmt.Sprintf("SELECT %s FROM %s%s%s", b.proj.Columns(), b.proj.From(), where, b.orderBy()), args
}

// BuildCount returns a COUNT(*) over the same conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.proj.From(), where), args
}

// BuildPage returns the SELECT limited to one page.
func (b *Builder) BuildPage(limit, offset int) (string, []any) {
	q, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", q, limit, offset), args
}

func (b *Builder) where() (string, []any) {
	if len(b.conds) == 0 {
		return "", nil
	}

	var (
		clauses []string
		args    []any
	)
	for _, c := range b.conds {
		clause := c.clause
		for _, arg := range c.args {
			args = append(args, arg)
			clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses = append(clauses, clause)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (b *Builder) orderBy() string {
	parts := b.sortParts(b.sort)
	if len(parts) == 0 {
		parts = b.sortParts(b.defaultSort)
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) sortParts(fields []SortField) []string {
	var parts []string
	for _, f := range fields {
		col, ok := b.proj.Column(f.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return parts
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case *string:
		return t == nil || *t == ""
	case *bool:
		return t == nil
	case *int:
		return t == nil
	}
	return false
}

func deref(v any) any {
	switch t := v.(type) {
	case *string:
		return *t
	case *bool:
		return *t
	case *int:
		return *t
	}
	return v
}
