// Package sqlgraph classifies driver errors raised while repositories
// write rows.
package sqlgraph

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// sqlStateError is an interface for errors that provide SQLSTATE codes.
// Implemented by: pgconn.PgError (pgx).
type sqlStateError interface {
	SQLState() string
}

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlBadNull                = 1048
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// violation describes how each driver reports one class of constraint failure.
type violation struct {
	sqlState string
	mysql    []uint16
	messages []string
}

var (
	uniqueViolation = violation{
		sqlState: pgerrcode.UniqueViolation,
		mysql:    []uint16{mysqlDuplicateEntry},
		messages: []string{
			"Error 1062",                 // MySQL (string fallback)
			"violates unique constraint", // Postgres (string fallback)
			"UNIQUE constraint failed",   // SQLite
		},
	}
	foreignKeyViolation = violation{
		sqlState: pgerrcode.ForeignKeyViolation,
		mysql:    []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild},
		messages: []string{
			"Error 1451",                      // MySQL (Cannot delete or update a parent row)
			"Error 1452",                      // MySQL (Cannot add or update a child row)
			"violates foreign key constraint", // Postgres
			"FOREIGN KEY constraint failed",   // SQLite
		},
	}
	checkViolation = violation{
		sqlState: pgerrcode.CheckViolation,
		mysql:    []uint16{mysqlCheckConstraintViolate},
		messages: []string{
			"Error 3819",                // MySQL
			"violates check constraint", // Postgres
			"CHECK constraint failed",   // SQLite
		},
	}
	notNullViolation = violation{
		sqlState: pgerrcode.NotNullViolation,
		mysql:    []uint16{mysqlBadNull},
		messages: []string{
			"Error 1048",                   // MySQL
			"violates not-null constraint", // Postgres
			"NOT NULL constraint failed",   // SQLite
		},
	}
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return uniqueViolation.match(err)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return foreignKeyViolation.match(err)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return checkViolation.match(err)
}

// IsNotNullConstraintError reports if the error resulted from writing NULL
// into a NOT NULL column.
func IsNotNullConstraintError(err error) bool {
	return notNullViolation.match(err)
}

func (v violation) match(err error) bool {
	if err == nil {
		return false
	}
	// MySQL reports a generic SQLSTATE for several classes, so the error
	// number is checked instead of the state.
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		for _, n := range v.mysql {
			if me.Number == n {
				return true
			}
		}
		return false
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return string(pe.Code) == v.sqlState
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == v.sqlState {
		return true
	}
	// Fallback to string matching for drivers that don't implement interfaces
	return containsAny(err.Error(), v.messages...)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
