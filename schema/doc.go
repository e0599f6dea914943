// Package schema describes how Go entities map to table rows.
//
// An entity is a plain struct whose schema is declared once, with typed
// accessors instead of struct tags, and returned by a value-receiver
// Schema method:
//
//	type Channel struct {
//	    Name       string
//	    Type       ChannelType
//	    MaxMembers int
//	}
//
//	var channelSchema = schema.MustNew[Channel](schema.Config{Table: "channels", ColumnNaming: schema.SnakeCase},
//	    schema.String("name", func(c *Channel) *string { return &c.Name }).Key(),
//	    schema.Enum("type", func(c *Channel) *ChannelType { return &c.Type }, Public, Private),
//	    schema.Int("maxMembers", func(c *Channel) *int { return &c.MaxMembers }),
//	)
//
//	func (Channel) Schema() *schema.Schema[Channel] { return channelSchema }
//
// Fields are listed in the order used for inserts and updates. Exactly one
// field is the key; integer keys are generated by the database.
//
// # Relations
//
// A relation field holds another entity and stores its key:
//
//	schema.Relation("channel", func(m *Message) *Channel { return &m.Channel }).Column("channel_name")
//
// The referenced schema is looked up through the target's Schema method
// when a repository is built, so entities may reference each other in
// cycles. Cyclic and self references use OptionalRelation on a pointer
// field.
//
// # Errors
//
// New reports invalid schemas with a *dynrepo.ConfigurationError: a table
// name that cannot be resolved, zero or several key fields, or duplicate
// and invalid column names.
package schema
