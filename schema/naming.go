package schema

import (
	"github.com/go-openapi/inflect"
	"github.com/iancoleman/strcase"
)

// Naming derives a table or column name from a Go type or field name.
type Naming func(string) string

var (
	// SnakeCase maps "MaxMembers" and "maxMembers" to "max_members".
	SnakeCase Naming = strcase.ToSnake

	// PluralSnakeCase maps "Message" to "messages" and "ChannelMember"
	// to "channel_members". It is meant for table names.
	PluralSnakeCase Naming = func(s string) string {
		return inflect.Pluralize(strcase.ToSnake(s))
	}
)
