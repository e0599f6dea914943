package repository

import (
	"bytes"
	"context"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dynrepo/cache"
	"github.com/syssam/dynrepo/dialect"
)

var (
	employeeColumns = []string{"id", "name", "manager_id"}
	authorColumns   = []string{"id", "name", "favorite_id"}
	bookColumns     = []string{"id", "title", "author_id"}
)

func TestGetByIDSelfReference(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	employees, err := New[int, Employee](drv)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT * FROM employees WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(employeeColumns).AddRow(int64(1), "boss", int64(1))).
		RowsWillBeClosed()
	e, err := employees.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "boss", e.Name)
	assert.Same(t, e, e.Manager)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDMutualReference(t *testing.T) {
	ctx := context.Background()
	drv, mock := mockDriver(t, dialect.SQLite)
	reg := NewRegistry(drv)
	authors := MustFor[int64, Author](reg)
	books := MustFor[int64, Book](reg)

	expectAuthor := func() {
		mock.ExpectQuery("SELECT * FROM authors WHERE id = ?").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(authorColumns).AddRow(int64(1), "Ann", int64(10))).
			RowsWillBeClosed()
	}
	expectBook := func() {
		mock.ExpectQuery("SELECT * FROM books WHERE id = ?").
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(bookColumns).AddRow(int64(10), "Go", int64(1))).
			RowsWillBeClosed()
	}

	t.Run("FromAuthor", func(t *testing.T) {
		expectAuthor()
		expectBook()
		a, err := authors.GetByID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, a.Favorite)
		assert.Equal(t, "Go", a.Favorite.Title)
		// The book holds a copy of the author taken while its favorite
		// was still being loaded.
		assert.Equal(t, Author{ID: 1, Name: "Ann"}, a.Favorite.Author)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FromBook", func(t *testing.T) {
		expectBook()
		expectAuthor()
		b, err := books.GetByID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, "Ann", b.Author.Name)
		assert.Same(t, b, b.Author.Favorite)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SeparateCalls", func(t *testing.T) {
		expectAuthor()
		expectBook()
		expectAuthor()
		expectBook()
		a1, err := authors.GetByID(ctx, 1)
		require.NoError(t, err)
		a2, err := authors.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.NotSame(t, a1, a2, "identities do not outlive a call")
		assert.Equal(t, a1, a2)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAllSharesIdentities(t *testing.T) {
	ctx := context.Background()
	drv, mock := mockDriver(t, dialect.SQLite)
	employees, err := New[int, Employee](drv)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT * FROM employees").
		WillReturnRows(sqlmock.NewRows(employeeColumns).
			AddRow(int64(1), "boss", int64(1)).
			AddRow(int64(2), "dev", int64(1))).
		RowsWillBeClosed()
	list, err := employees.All(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Same(t, list[0], list[0].Manager)
	assert.Same(t, list[0], list[1].Manager)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery("SELECT * FROM employees").
		WillReturnRows(sqlmock.NewRows(employeeColumns).
			AddRow(int64(2), "dev", int64(1)).
			AddRow(int64(3), "ops", int64(1))).
		RowsWillBeClosed()
	mock.ExpectQuery("SELECT * FROM employees WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(employeeColumns).AddRow(int64(1), "boss", nil)).
		RowsWillBeClosed()
	list, err = employees.All(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Manager)
	assert.Nil(t, list[0].Manager.Manager)
	assert.Same(t, list[0].Manager, list[1].Manager, "one lookup per referenced row")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIterSelfReference(t *testing.T) {
	ctx := context.Background()
	drv, mock := mockDriver(t, dialect.SQLite)
	employees, err := New[int, Employee](drv)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT * FROM employees ORDER BY id").
		WillReturnRows(sqlmock.NewRows(employeeColumns).
			AddRow(int64(1), "boss", int64(1)).
			AddRow(int64(2), "dev", int64(1))).
		RowsWillBeClosed()
	mock.ExpectQuery("SELECT * FROM employees WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(employeeColumns).AddRow(int64(1), "boss", int64(1))).
		RowsWillBeClosed()

	var got []*Employee
	for e, err := range employees.FindAll().OrderBy("id").Seq(ctx) {
		require.NoError(t, err)
		got = append(got, e)
	}
	require.Len(t, got, 2)
	assert.Same(t, got[0], got[0].Manager)
	require.NotNil(t, got[1].Manager)
	assert.NotSame(t, got[0], got[1].Manager, "each row is a separate read")
	assert.Same(t, got[1].Manager, got[1].Manager.Manager)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedSkipsCycles(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv, mock := mockDriver(t, dialect.SQLite)
	employees, err := New[int, Employee](drv, WithLogger(logger))
	require.NoError(t, err)
	mem := cache.NewMemory()
	cached := NewCached(employees, mem, time.Minute)

	for range 2 {
		mock.ExpectQuery("SELECT * FROM employees WHERE id = ?").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(employeeColumns).AddRow(int64(1), "boss", int64(1)))
		e, err := cached.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Same(t, e, e.Manager)
	}
	assert.Zero(t, mem.Len())
	assert.Contains(t, buf.String(), "not caching cyclic entity")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCyclic(t *testing.T) {
	boss := &Employee{ID: 1}
	boss.Manager = boss
	dev := &Employee{ID: 2, Manager: &Employee{ID: 1}}
	book := &Book{ID: 10, Author: Author{ID: 1}}
	book.Author.Favorite = book

	assert.True(t, cyclic(reflect.ValueOf(boss)))
	assert.False(t, cyclic(reflect.ValueOf(dev)))
	assert.True(t, cyclic(reflect.ValueOf(book)))
	assert.False(t, cyclic(reflect.ValueOf(&Message{ID: 1})))
	assert.False(t, cyclic(reflect.ValueOf((*Employee)(nil))))
}

func TestIdentities(t *testing.T) {
	ctx, ids := withIdentities(context.Background())
	same, again := withIdentities(ctx)
	assert.Equal(t, ctx, same)
	typ := reflect.TypeOf(Employee{})
	e := &Employee{ID: 1}
	again.put(typ, int64(1), e)

	got, ok := ids.get(typ, int64(1))
	require.True(t, ok)
	assert.Same(t, e, got)
	_, ok = ids.get(reflect.TypeOf(User{}), int64(1))
	assert.False(t, ok, "keyed by type")

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ids.put(typ, at, e)
	_, ok = ids.get(typ, at.In(time.FixedZone("CET", 3600)))
	assert.True(t, ok, "times match by instant")

	ids.put(typ, []byte("k"), e)
	_, ok = ids.get(typ, []byte("k"))
	assert.False(t, ok, "incomparable keys are not tracked")
}
