// Package dialect defines the connection contract consumed by dynrepo
// repositories.
//
// A repository sends every statement through a Driver. Its Dialect
// decides the bind style of placeholders ("?" or "$1"), how string
// literals are escaped in lazy queries, and whether an insert reads its
// generated key with RETURNING (Postgres) or from LastInsertId (MySQL,
// SQLite).
//
// The database/sql implementation lives in dialect/sql:
//
//	drv, err := sql.Open("sqlite", "file:chat.db?_time_format=sqlite")
//	if err != nil {
//		return err
//	}
//	defer drv.Close()
//	users, err := repository.New[int64, chat.User](drv)
//
// Drivers compose. sql.NewStatsDriver counts statements by kind and
// sql.NewDebugDriver logs them; both satisfy Driver and can be handed to
// a registry in place of the plain driver.
package dialect
