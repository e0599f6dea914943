// Package sql implements dialect.Driver on top of database/sql and renders
// the statements issued by dynrepo repositories.
//
// # Statements
//
// Repositories only issue a fixed set of statement shapes, written with
// "?" placeholders and converted to the dialect's bind style by Rebind:
//
//	SelectAll("users")                        // SELECT * FROM users
//	SelectByKey("users", "id")                // SELECT * FROM users WHERE id = ?
//	DeleteByKey("users", "id")                // DELETE FROM users WHERE id = ?
//	Update("users", []string{"name"}, "id")   // UPDATE users SET name = ? WHERE id = ?
//	Insert("users", []string{"name"})         // INSERT INTO users (name) VALUES (?)
//
// Lazy queries are rendered with a Selector, which inlines predicate values
// as quoted literals:
//
//	sql.Select(dialect.SQLite, "channels").
//	    WhereEQ("type", "PUBLIC").
//	    OrderBy("name").
//	    Query()
//	// SELECT * FROM channels WHERE type = 'PUBLIC' ORDER BY name
//
// # Drivers
//
// Open and OpenDB return a *Driver. The database/sql driver name is mapped
// to a dialect ("pgx" and "postgres" are both Postgres). StatsDriver and
// DebugDriver wrap a Driver to collect statistics or log every statement
// through log/slog.
package sql
