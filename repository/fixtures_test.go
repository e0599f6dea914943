package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dynrepo/dialect/sql"
	"github.com/syssam/dynrepo/schema"
)

type User struct {
	ID    int64
	Name  string
	Email string
}

var userSchema = schema.MustNew[User](schema.Config{TableNaming: schema.PluralSnakeCase},
	schema.Int64("id", func(u *User) *int64 { return &u.ID }).Key(),
	schema.String("name", func(u *User) *string { return &u.Name }),
	schema.String("email", func(u *User) *string { return &u.Email }),
)

func (User) Schema() *schema.Schema[User] { return userSchema }

type ChannelType string

const (
	Public  ChannelType = "PUBLIC"
	Private ChannelType = "PRIVATE"
)

type Channel struct {
	Name       string
	Type       ChannelType
	IsReadOnly bool
	MaxMembers int
}

var channelSchema = schema.MustNew[Channel](schema.Config{Table: "channels", ColumnNaming: schema.SnakeCase},
	schema.String("name", func(c *Channel) *string { return &c.Name }).Key(),
	schema.Enum("type", func(c *Channel) *ChannelType { return &c.Type }, Public, Private),
	schema.Bool("isReadOnly", func(c *Channel) *bool { return &c.IsReadOnly }),
	schema.Int("maxMembers", func(c *Channel) *int { return &c.MaxMembers }),
)

func (Channel) Schema() *schema.Schema[Channel] { return channelSchema }

var channelColumns = []string{"name", "type", "is_read_only", "max_members"}

type Message struct {
	ID      int64
	Content string
	Channel Channel
	User    User
}

var messageSchema = schema.MustNew[Message](schema.Config{Table: "messages"},
	schema.Int64("id", func(m *Message) *int64 { return &m.ID }).Key(),
	schema.String("content", func(m *Message) *string { return &m.Content }),
	schema.Relation("channel", func(m *Message) *Channel { return &m.Channel }).Column("channel_name"),
	schema.Relation("user", func(m *Message) *User { return &m.User }).Column("user_id"),
)

func (Message) Schema() *schema.Schema[Message] { return messageSchema }

var messageColumns = []string{"id", "content", "channel_name", "user_id"}

// Employee references itself.
type Employee struct {
	ID      int
	Name    string
	Manager *Employee
}

// Author and Book reference each other.
type (
	Author struct {
		ID       int64
		Name     string
		Favorite *Book
	}
	Book struct {
		ID     int64
		Title  string
		Author Author
	}
)

var (
	employeeSchema *schema.Schema[Employee]
	authorSchema   *schema.Schema[Author]
	bookSchema     *schema.Schema[Book]
)

func init() {
	employeeSchema = schema.MustNew[Employee](schema.Config{TableNaming: schema.PluralSnakeCase},
		schema.Int("id", func(e *Employee) *int { return &e.ID }).Key(),
		schema.String("name", func(e *Employee) *string { return &e.Name }),
		schema.OptionalRelation("manager", func(e *Employee) **Employee { return &e.Manager }).Column("manager_id"),
	)
	authorSchema = schema.MustNew[Author](schema.Config{TableNaming: schema.PluralSnakeCase},
		schema.Int64("id", func(a *Author) *int64 { return &a.ID }).Key(),
		schema.String("name", func(a *Author) *string { return &a.Name }),
		schema.OptionalRelation("favorite", func(a *Author) **Book { return &a.Favorite }).Column("favorite_id"),
	)
	bookSchema = schema.MustNew[Book](schema.Config{TableNaming: schema.PluralSnakeCase},
		schema.Int64("id", func(b *Book) *int64 { return &b.ID }).Key(),
		schema.String("title", func(b *Book) *string { return &b.Title }),
		schema.Relation("author", func(b *Book) *Author { return &b.Author }).Column("author_id"),
	)
}

func (Employee) Schema() *schema.Schema[Employee] { return employeeSchema }
func (Author) Schema() *schema.Schema[Author] { return authorSchema }
func (Book) Schema() *schema.Schema[Book] { return bookSchema }

// Parent references Orphan, whose schema is missing.
type (
	Good struct {
		ID int64
	}
	Orphan struct {
		ID int64
	}
	Parent struct {
		ID     int64
		Good   Good
		Orphan Orphan
	}
)

var (
	goodSchema = schema.MustNew[Good](schema.Config{Table: "goods"},
		schema.Int64("id", func(g *Good) *int64 { return &g.ID }).Key(),
	)
	parentSchema = schema.MustNew[Parent](schema.Config{Table: "parents"},
		schema.Int64("id", func(p *Parent) *int64 { return &p.ID }).Key(),
		schema.Relation("good", func(p *Parent) *Good { return &p.Good }),
		schema.Relation("orphan", func(p *Parent) *Orphan { return &p.Orphan }),
	)
)

func (Good) Schema() *schema.Schema[Good] { return goodSchema }
func (Orphan) Schema() *schema.Schema[Orphan] { return nil }
func (Parent) Schema() *schema.Schema[Parent] { return parentSchema }

// mockDriver returns a driver of the given dialect over sqlmock, matching
// statements exactly.
func mockDriver(t *testing.T, dialect string) (*sql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(dialect, db), mock
}
