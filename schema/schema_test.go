package schema_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/schema"
	"github.com/syssam/dynrepo/schema/field"
)

type ChannelType string

const (
	Public  ChannelType = "PUBLIC"
	Private ChannelType = "PRIVATE"
)

type Channel struct {
	Name       string
	Type       ChannelType
	CreatedAt  int64
	IsArchived bool
	MaxMembers int
}

var channelSchema = schema.MustNew[Channel](schema.Config{Table: "channels", ColumnNaming: schema.SnakeCase},
	schema.String("name", func(c *Channel) *string { return &c.Name }).Key(),
	schema.Enum("type", func(c *Channel) *ChannelType { return &c.Type }, Public, Private),
	schema.Int64("createdAt", func(c *Channel) *int64 { return &c.CreatedAt }),
	schema.Bool("isArchived", func(c *Channel) *bool { return &c.IsArchived }),
	schema.Int("maxMembers", func(c *Channel) *int { return &c.MaxMembers }),
)

func (Channel) Schema() *schema.Schema[Channel] { return channelSchema }

type Message struct {
	ID        int64
	Content   string
	Timestamp time.Time
	Channel   Channel
}

var messageSchema = schema.MustNew[Message](schema.Config{TableNaming: schema.PluralSnakeCase},
	schema.Int64("id", func(m *Message) *int64 { return &m.ID }).Key(),
	schema.String("content", func(m *Message) *string { return &m.Content }),
	schema.Time("timestamp", func(m *Message) *time.Time { return &m.Timestamp }),
	schema.Relation("channel", func(m *Message) *Channel { return &m.Channel }).Column("channel_name"),
)

func (Message) Schema() *schema.Schema[Message] { return messageSchema }

// Node references itself, so its schema is built in init.
type Node struct {
	ID     int32
	Parent *Node
}

var nodeSchema *schema.Schema[Node]

func init() {
	nodeSchema = schema.MustNew[Node](schema.Config{},
		schema.Int32("id", func(n *Node) *int32 { return &n.ID }).Key(),
		schema.OptionalRelation("parent", func(n *Node) **Node { return &n.Parent }),
	)
}

func (Node) Schema() *schema.Schema[Node] { return nodeSchema }

func TestSchema(t *testing.T) {
	t.Run("Channel", func(t *testing.T) {
		s := channelSchema
		assert.Equal(t, "Channel", s.Name())
		assert.Equal(t, "channels", s.Table())
		assert.Equal(t, 0, s.KeyIndex())
		assert.Equal(t, "name", s.Key().Column)
		assert.False(t, s.Key().Generated())

		var columns []string
		var kinds []field.Kind
		for _, d := range s.Fields() {
			columns = append(columns, d.Column)
			kinds = append(kinds, d.Kind())
		}
		assert.Equal(t, []string{"name", "type", "created_at", "is_archived", "max_members"}, columns)
		assert.Equal(t, []field.Kind{
			field.KindPrimitive, field.KindEnum, field.KindPrimitive, field.KindPrimitive, field.KindPrimitive,
		}, kinds)
		assert.Equal(t, []string{"PUBLIC", "PRIVATE"}, s.Fields()[1].Enums)
	})

	t.Run("Message", func(t *testing.T) {
		s := messageSchema
		assert.Equal(t, "messages", s.Table())
		assert.True(t, s.Key().Generated())

		rel := s.Fields()[3]
		assert.Equal(t, "channel_name", rel.Column)
		assert.Equal(t, field.KindRelation, rel.Kind())
		assert.False(t, rel.Optional)
		require.NotNil(t, rel.Target())
		assert.Same(t, channelSchema, rel.Target())
		assert.Nil(t, s.Fields()[1].Target())
	})

	t.Run("SelfReference", func(t *testing.T) {
		s := nodeSchema
		assert.Equal(t, "Node", s.Table())
		parent := s.Fields()[1]
		assert.True(t, parent.Optional)
		assert.Same(t, nodeSchema, parent.Target())
	})
}

func TestSchemaLookup(t *testing.T) {
	i, ok := channelSchema.Lookup("maxMembers")
	require.True(t, ok)
	assert.Equal(t, 4, i)

	i, ok = channelSchema.Lookup("MAX_MEMBERS")
	require.True(t, ok)
	assert.Equal(t, 4, i)

	_, ok = channelSchema.Lookup("members")
	assert.False(t, ok)
}

func TestSchemaValues(t *testing.T) {
	c := &Channel{Name: "general", Type: Private, MaxMembers: 10}

	v, err := channelSchema.Value(c, 1)
	require.NoError(t, err)
	assert.Equal(t, "PRIVATE", v)
	assert.Equal(t, "general", channelSchema.KeyOf(c))

	require.NoError(t, channelSchema.SetValue(c, 1, "PUBLIC"))
	assert.Equal(t, Public, c.Type)
	require.NoError(t, channelSchema.SetValue(c, 4, 20))
	assert.Equal(t, 20, c.MaxMembers)

	err = channelSchema.SetValue(c, 4, int64(20))
	assert.True(t, dynrepo.IsUnsupportedType(err))

	_, err = channelSchema.Value(Channel{}, 0)
	assert.EqualError(t, err, "schema Channel: unexpected entity schema_test.Channel")

	m := channelSchema.New()
	assert.IsType(t, &Channel{}, m)
}

func TestRelationValues(t *testing.T) {
	m := &Message{Channel: Channel{Name: "general"}}
	v, err := messageSchema.Value(m, 3)
	require.NoError(t, err)
	assert.Equal(t, &Channel{Name: "general"}, v)

	require.NoError(t, messageSchema.SetValue(m, 3, &Channel{Name: "random"}))
	assert.Equal(t, "random", m.Channel.Name)
	assert.True(t, dynrepo.IsUnsupportedType(messageSchema.SetValue(m, 3, nil)))

	n := &Node{ID: 2}
	v, err = nodeSchema.Value(n, 1)
	require.NoError(t, err)
	assert.Nil(t, v)

	root := &Node{ID: 1}
	require.NoError(t, nodeSchema.SetValue(n, 1, root))
	assert.Same(t, root, n.Parent)
	require.NoError(t, nodeSchema.SetValue(n, 1, nil))
	assert.Nil(t, n.Parent)
}

type plain struct {
	ID   int64
	Name string
	Kind ChannelType
	Ref  Channel
}

func TestSchemaErrors(t *testing.T) {
	id := schema.Int64("id", func(p *plain) *int64 { return &p.ID })
	name := func() *schema.Builder[plain] {
		return schema.String("name", func(p *plain) *string { return &p.Name })
	}
	tests := []struct {
		name   string
		build  func() error
		errMsg string
	}{
		{
			name: "no_key",
			build: func() error {
				_, err := schema.New[plain](schema.Config{}, name())
				return err
			},
			errMsg: "dynrepo: schema plain: no key field",
		},
		{
			name: "multiple_keys",
			build: func() error {
				_, err := schema.New[plain](schema.Config{},
					schema.Int64("id", func(p *plain) *int64 { return &p.ID }).Key(),
					name().Key(),
				)
				return err
			},
			errMsg: `dynrepo: schema plain: field "name": multiple key fields (id and name)`,
		},
		{
			name: "no_fields",
			build: func() error {
				_, err := schema.New[plain](schema.Config{})
				return err
			},
			errMsg: "dynrepo: schema plain: no fields",
		},
		{
			name: "unnamed_type",
			build: func() error {
				_, err := schema.New[struct{ ID int }](schema.Config{},
					schema.Int("id", func(p *struct{ ID int }) *int { return &p.ID }).Key(),
				)
				return err
			},
			errMsg: "dynrepo: schema struct { ID int }: cannot resolve table name of an unnamed type",
		},
		{
			name: "not_a_struct",
			build: func() error {
				_, err := schema.New[int](schema.Config{})
				return err
			},
			errMsg: "dynrepo: schema int: entity type must be a struct, got int",
		},
		{
			name: "invalid_table",
			build: func() error {
				_, err := schema.New[plain](schema.Config{Table: "plain; DROP"}, id)
				return err
			},
			errMsg: `dynrepo: schema plain: invalid table name "plain; DROP"`,
		},
		{
			name: "invalid_column",
			build: func() error {
				_, err := schema.New[plain](schema.Config{},
					schema.Int64("id", func(p *plain) *int64 { return &p.ID }).Key().Column("1d"),
				)
				return err
			},
			errMsg: `dynrepo: schema plain: field "id": invalid column name "1d"`,
		},
		{
			name: "duplicate_column",
			build: func() error {
				_, err := schema.New[plain](schema.Config{},
					schema.Int64("id", func(p *plain) *int64 { return &p.ID }).Key(),
					name().Column("ID"),
				)
				return err
			},
			errMsg: `dynrepo: schema plain: field "name": duplicate column "ID"`,
		},
		{
			name: "enum_without_values",
			build: func() error {
				_, err := schema.New[plain](schema.Config{},
					schema.Int64("id", func(p *plain) *int64 { return &p.ID }).Key(),
					schema.Enum[plain, ChannelType]("kind", func(p *plain) *ChannelType { return &p.Kind }),
				)
				return err
			},
			errMsg: `dynrepo: schema plain: field "kind": enum without values`,
		},
		{
			name: "nil_accessor",
			build: func() error {
				_, err := schema.New[plain](schema.Config{},
					schema.Int64[plain]("id", nil).Key(),
				)
				return err
			},
			errMsg: `dynrepo: schema plain: field "id": nil field accessor`,
		},
		{
			name: "relation_key",
			build: func() error {
				_, err := schema.New[plain](schema.Config{},
					schema.Relation("ref", func(p *plain) *Channel { return &p.Ref }).Key(),
				)
				return err
			},
			errMsg: `dynrepo: schema plain: field "ref": relation cannot be the key`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.Error(t, err)
			assert.EqualError(t, err, tt.errMsg)
			assert.True(t, dynrepo.IsConfigurationError(err))
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() {
		schema.MustNew[plain](schema.Config{}, schema.String("name", func(p *plain) *string { return &p.Name }))
	})
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "max_members", schema.SnakeCase("maxMembers"))
	assert.Equal(t, "max_members", schema.SnakeCase("MaxMembers"))
	assert.Equal(t, "messages", schema.PluralSnakeCase("Message"))
	assert.Equal(t, "channel_members", schema.PluralSnakeCase("ChannelMember"))
	assert.True(t, errors.Is(dynrepo.NewConfigurationError("a", "", "b"), dynrepo.ErrConfiguration))
}
