package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/dialect"
)

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	drv, mock := mockDriver(t, dialect.SQLite)
	messages, err := New[int64, Message](drv)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT * FROM messages WHERE id = ?").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(messageColumns).AddRow(int64(10), "hello", "General", int64(2))).
		RowsWillBeClosed()
	mock.ExpectQuery("SELECT * FROM channels WHERE name = ?").
		WithArgs("General").
		WillReturnRows(sqlmock.NewRows(channelColumns).AddRow("General", "PUBLIC", false, int64(400))).
		RowsWillBeClosed()
	mock.ExpectQuery("SELECT * FROM users WHERE id = ?").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(int64(2), "Bob", "b@x.com")).
		RowsWillBeClosed()

	m, err := messages.GetByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, &Message{
		ID:      10,
		Content: "hello",
		Channel: Channel{Name: "General", Type: Public, MaxMembers: 400},
		User:    User{ID: 2, Name: "Bob", Email: "b@x.com"},
	}, m)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDFirstRow(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	channels, err := New[string, Channel](drv)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT * FROM channels WHERE name = ?").
		WithArgs("General").
		WillReturnRows(sqlmock.NewRows(channelColumns).
			AddRow("General", "PUBLIC", true, int64(1)).
			AddRow("General", "PRIVATE", false, int64(2))).
		RowsWillBeClosed()
	c, err := channels.GetByID(context.Background(), "General")
	require.NoError(t, err)
	assert.Equal(t, 1, c.MaxMembers)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDErrors(t *testing.T) {
	ctx := context.Background()
	drv, mock := mockDriver(t, dialect.SQLite)
	messages, err := New[int64, Message](drv)
	require.NoError(t, err)

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT * FROM messages WHERE id = ?").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(messageColumns))
		_, err := messages.GetByID(ctx, 1)
		require.True(t, dynrepo.IsNotFound(err))
		var nf *dynrepo.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, int64(1), nf.ID())
	})

	t.Run("DanglingReference", func(t *testing.T) {
		mock.ExpectQuery("SELECT * FROM messages WHERE id = ?").
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(messageColumns).AddRow(int64(2), "hi", "Gone", int64(1)))
		mock.ExpectQuery("SELECT * FROM channels WHERE name = ?").
			WithArgs("Gone").
			WillReturnRows(sqlmock.NewRows(channelColumns))
		_, err := messages.GetByID(ctx, 2)
		var derr *dynrepo.DanglingReferenceError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "Channel", derr.Target)
		assert.Equal(t, "Gone", derr.Key)
		assert.False(t, dynrepo.IsNotFound(err))
	})

	t.Run("UnknownVariant", func(t *testing.T) {
		mock.ExpectQuery("SELECT * FROM messages WHERE id = ?").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(messageColumns).AddRow(int64(3), "hi", "Odd", int64(1)))
		mock.ExpectQuery("SELECT * FROM channels WHERE name = ?").
			WithArgs("Odd").
			WillReturnRows(sqlmock.NewRows(channelColumns).AddRow("Odd", "SECRET", false, int64(0)))
		_, err := messages.GetByID(ctx, 3)
		assert.ErrorIs(t, err, dynrepo.ErrUnknownVariant)
	})

	t.Run("Driver", func(t *testing.T) {
		mock.ExpectQuery("SELECT * FROM messages WHERE id = ?").
			WithArgs(int64(4)).
			WillReturnError(errors.New("connection refused"))
		_, err := messages.GetByID(ctx, 4)
		assert.True(t, dynrepo.IsQueryError(err))
		assert.ErrorContains(t, err, "connection refused")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAll(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	channels, err := New[string, Channel](drv)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT * FROM channels").
		WillReturnRows(sqlmock.NewRows(channelColumns).
			AddRow("General", "PUBLIC", false, int64(400)).
			AddRow("Random", "PRIVATE", true, nil)).
		RowsWillBeClosed()
	list, err := channels.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*Channel{
		{Name: "General", Type: Public, MaxMembers: 400},
		{Name: "Random", Type: Private, IsReadOnly: true},
	}, list)

	mock.ExpectQuery("SELECT * FROM channels").WillReturnRows(sqlmock.NewRows(channelColumns))
	list, err = channels.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	drv, mock := mockDriver(t, dialect.Postgres)
	channels, err := New[string, Channel](drv)
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM channels WHERE name = $1").
		WithArgs("General").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM channels WHERE name = $1").
		WithArgs("General").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, channels.DeleteByID(ctx, "General"))
	require.NoError(t, channels.DeleteByID(ctx, "General"), "delete is idempotent")

	mock.ExpectExec("DELETE FROM channels WHERE name = $1").
		WithArgs("General").
		WillReturnError(errors.New("disk full"))
	err = channels.DeleteByID(ctx, "General")
	assert.True(t, dynrepo.IsMutationError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	drv, mock := mockDriver(t, dialect.SQLite)
	channels, err := New[string, Channel](drv)
	require.NoError(t, err)

	const update = "UPDATE channels SET type = ?, is_read_only = ?, max_members = ? WHERE name = ?"
	mock.ExpectExec(update).
		WithArgs("PUBLIC", false, int64(200), "General").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(update).
		WithArgs("PRIVATE", true, int64(0), "Missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, channels.Update(ctx, &Channel{Name: "General", Type: Public, MaxMembers: 200}))
	require.NoError(t, channels.Update(ctx, &Channel{Name: "Missing", Type: Private, IsReadOnly: true}), "updating a missing row succeeds")
	assert.Error(t, channels.Update(ctx, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRelation(t *testing.T) {
	drv, mock := mockDriver(t, dialect.Postgres)
	employees, err := New[int, Employee](drv)
	require.NoError(t, err)

	const update = "UPDATE employees SET name = $1, manager_id = $2 WHERE id = $3"
	mock.ExpectExec(update).
		WithArgs("a8m", int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(update).
		WithArgs("root", nil, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, employees.Update(context.Background(), &Employee{ID: 2, Name: "a8m", Manager: &Employee{ID: 1}}))
	require.NoError(t, employees.Update(context.Background(), &Employee{ID: 1, Name: "root"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

// lastInsertIDError is a result whose LastInsertId fails.
type lastInsertIDError struct{}

func (lastInsertIDError) LastInsertId() (int64, error) { return 0, errors.New("not supported") }
func (lastInsertIDError) RowsAffected() (int64, error) { return 1, nil }

var _ driver.Result = lastInsertIDError{}

func TestInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("LastInsertId", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.SQLite)
		users, err := New[int64, User](drv)
		require.NoError(t, err)
		mock.ExpectExec("INSERT INTO users (name, email) VALUES (?, ?)").
			WithArgs("Alice", "a@x.com").
			WillReturnResult(sqlmock.NewResult(1, 1))
		in := &User{Name: "Alice", Email: "a@x.com"}
		u, err := users.Insert(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, &User{ID: 1, Name: "Alice", Email: "a@x.com"}, u)
		assert.Zero(t, in.ID, "input is not modified")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Returning", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		users, err := New[int64, User](drv)
		require.NoError(t, err)
		mock.ExpectQuery("INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id").
			WithArgs("Alice", "a@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7))).
			RowsWillBeClosed()
		u, err := users.Insert(ctx, &User{Name: "Alice", Email: "a@x.com"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), u.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NaturalKey", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.Postgres)
		channels, err := New[string, Channel](drv)
		require.NoError(t, err)
		mock.ExpectExec("INSERT INTO channels (name, type, is_read_only, max_members) VALUES ($1, $2, $3, $4)").
			WithArgs("General", "PUBLIC", false, int64(400)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		in := &Channel{Name: "General", Type: Public, MaxMembers: 400}
		c, err := channels.Insert(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in, c)
		assert.NotSame(t, in, c)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Relations", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.SQLite)
		messages, err := New[int64, Message](drv)
		require.NoError(t, err)
		mock.ExpectExec("INSERT INTO messages (content, channel_name, user_id) VALUES (?, ?, ?)").
			WithArgs("hello", "General", int64(2)).
			WillReturnResult(sqlmock.NewResult(5, 1))
		m, err := messages.Insert(ctx, &Message{Content: "hello", Channel: Channel{Name: "General"}, User: User{ID: 2, Name: "Bob"}})
		require.NoError(t, err)
		assert.Equal(t, int64(5), m.ID)
		assert.Equal(t, "Bob", m.User.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoRowsAffected", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.SQLite)
		users, err := New[int64, User](drv)
		require.NoError(t, err)
		mock.ExpectExec("INSERT INTO users (name, email) VALUES (?, ?)").
			WillReturnResult(sqlmock.NewResult(0, 0))
		_, err = users.Insert(ctx, &User{Name: "Alice"})
		var nerr *dynrepo.NoRowsAffectedError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "users", nerr.Table)
	})

	t.Run("NoGeneratedKey", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.SQLite)
		users, err := New[int64, User](drv)
		require.NoError(t, err)
		mock.ExpectExec("INSERT INTO users (name, email) VALUES (?, ?)").
			WillReturnResult(lastInsertIDError{})
		_, err = users.Insert(ctx, &User{Name: "Alice"})
		assert.ErrorIs(t, err, dynrepo.ErrNoGeneratedKey)
		assert.ErrorContains(t, err, "not supported")

		drv, mock = mockDriver(t, dialect.Postgres)
		users, err = New[int64, User](drv)
		require.NoError(t, err)
		mock.ExpectQuery("INSERT INTO users (name, email) VALUES ($1, $2) RETURNING id").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		_, err = users.Insert(ctx, &User{Name: "Alice"})
		assert.ErrorIs(t, err, dynrepo.ErrNoGeneratedKey)
	})

	t.Run("Constraint", func(t *testing.T) {
		drv, mock := mockDriver(t, dialect.MySQL)
		channels, err := New[string, Channel](drv)
		require.NoError(t, err)
		mock.ExpectExec("INSERT INTO channels (name, type, is_read_only, max_members) VALUES (?, ?, ?, ?)").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'General' for key 'PRIMARY'"})
		_, err = channels.Insert(ctx, &Channel{Name: "General", Type: Public})
		assert.True(t, dynrepo.IsConstraintError(err))
		assert.True(t, dynrepo.IsMutationError(err))
	})

	t.Run("Nil", func(t *testing.T) {
		drv, _ := mockDriver(t, dialect.SQLite)
		users, err := New[int64, User](drv)
		require.NoError(t, err)
		_, err = users.Insert(ctx, nil)
		assert.Error(t, err)
	})
}

func TestKeyOf(t *testing.T) {
	drv, _ := mockDriver(t, dialect.SQLite)
	reg := NewRegistry(drv)
	users := MustFor[int32, User](reg)
	assert.Equal(t, int32(9), users.KeyOf(&User{ID: 9}))
	channels := MustFor[ChannelType, Channel](reg)
	assert.Equal(t, ChannelType("General"), channels.KeyOf(&Channel{Name: "General"}))
	assert.Same(t, reg, users.Registry())
	assert.Equal(t, userSchema, users.Schema())
}
