// Package repository derives repositories from entity schemas.
//
// A Registry owns one table per entity type. Building the table of an
// entity builds the tables of the entities it references first, so that
// reading a row can load its relations. Tables are reserved before their
// relations are walked, which lets schemas reference each other or
// themselves.
//
// Repository is the typed view over a table:
//
//	reg := repository.NewRegistry(drv, repository.WithLogger(logger))
//	channels, err := repository.For[string, chat.Channel](reg)
//	if err != nil {
//		return err
//	}
//	general, err := channels.GetByID(ctx, "General")
//
// Statements use "?" placeholders rebound for the driver dialect:
//
//	SELECT * FROM <table> WHERE <key> = ?
//	SELECT * FROM <table>
//	DELETE FROM <table> WHERE <key> = ?
//	UPDATE <table> SET <column> = ?, ... WHERE <key> = ?
//	INSERT INTO <table> (<column>, ...) VALUES (?, ...)
//
// Lazy queries (FindAll) inline their predicate values as literals.
package repository
