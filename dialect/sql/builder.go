package sql

import (
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/syssam/dynrepo/dialect"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// IsValidIdentifier checks if the string is a valid SQL identifier.
func IsValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// SelectAll returns "SELECT * FROM <table>".
func SelectAll(table string) string {
	return "SELECT * FROM " + table
}

// SelectByKey returns "SELECT * FROM <table> WHERE <key> = ?".
func SelectByKey(table, key string) string {
	return SelectAll(table) + " WHERE " + key + " = ?"
}

// DeleteByKey returns "DELETE FROM <table> WHERE <key> = ?".
func DeleteByKey(table, key string) string {
	return "DELETE FROM " + table + " WHERE " + key + " = ?"
}

// Update returns "UPDATE <table> SET c1 = ?, c2 = ? WHERE <key> = ?".
// The key argument is expected to be bound last.
func Update(table string, columns []string, key string) string {
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
		b.WriteString(" = ?")
	}
	b.WriteString(" WHERE ")
	b.WriteString(key)
	b.WriteString(" = ?")
	return b.String()
}

// Insert returns "INSERT INTO <table> (c1, c2) VALUES (?, ?)".
func Insert(table string, columns []string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
	}
	b.WriteByte(')')
	return b.String()
}

// Returning appends a RETURNING clause for the given column.
func Returning(query, column string) string {
	return query + " RETURNING " + column
}

// SupportsReturning reports whether generated keys are read with RETURNING
// instead of LastInsertId.
func SupportsReturning(name string) bool {
	return DialectOf(name) == dialect.Postgres
}

// Rebind converts the "?" placeholders of a query to the bind style of
// the dialect. MySQL and SQLite keep "?", Postgres uses "$n".
func Rebind(name, query string) string {
	return sqlx.Rebind(sqlx.BindType(DialectOf(name)), query)
}

// Selector builds the statement of a lazy query: a base SELECT followed
// by equality predicates joined with AND and an ORDER BY list. Values are
// inlined as literals, so the resulting statement takes no arguments.
type Selector struct {
	dialect string
	table   string
	where   []string
	order   []string
	err     error
}

// Select returns a Selector reading all columns of table.
func Select(name, table string) *Selector {
	return &Selector{dialect: DialectOf(name), table: table}
}

// WhereEQ appends "column = literal", or "column IS NULL" for a nil value.
func (s *Selector) WhereEQ(column string, v any) *Selector {
	if v == nil {
		s.where = append(s.where, column+" IS NULL")
		return s
	}
	lit, err := Literal(s.dialect, v)
	if err != nil {
		if s.err == nil {
			s.err = err
		}
		return s
	}
	s.where = append(s.where, column+" = "+lit)
	return s
}

// OrderBy appends columns to the ORDER BY list.
func (s *Selector) OrderBy(columns ...string) *Selector {
	s.order = append(s.order, columns...)
	return s
}

// Query returns the statement, or the first literal error.
func (s *Selector) Query() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var b strings.Builder
	b.WriteString(SelectAll(s.table))
	if len(s.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(s.where, " AND "))
	}
	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.order, ", "))
	}
	return b.String(), nil
}
