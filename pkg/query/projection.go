// Package query builds parameterized PostgreSQL SELECT statements over a
// projection of logical field names onto table columns.
package query

import (
	"fmt"
	"strings"
)

// Projection maps logical field names to alias-qualified columns of one table.
type Projection struct {
	table   string
	alias   string
	byField map[string]string
	ordered []string
}

// NewProjection creates a projection over table, referenced as alias.
func NewProjection(table, alias string) *Projection {
	return &Projection{
		table:   table,
		alias:   alias,
		byField: make(map[string]string),
	}
}

// Project adds column under the logical name field.
func (p *Projection) Project(column, field string) *Projection {
	qualified := p.alias + "." + column
	p.byField[field] = qualified
	p.ordered = append(p.ordered, qualified)
	return p
}

// Column resolves a logical field. The second result is false for
// unknown fields, which must never reach SQL.
func (p *Projection) Column(field string) (string, bool) {
	col, ok := p.byField[field]
	return col, ok
}

// Columns returns the select list.
func (p *Projection) Columns() string {
	return strings.Join(p.ordered, ", ")
}

// From returns the table reference with its alias.
func (p *Projection) From() string {
	return fmt.Sprintf("%s %s", p.table, p.alias)
}
