package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/codec"
	"github.com/syssam/dynrepo/dialect/sql"
)

// Query is a lazy query over the table of T. Predicates and orderings are
// recorded in chain order and turned into a statement when the first row
// is pulled. A Query produces a single cursor.
//
//	it := channels.FindAll().
//		WhereEquals("type", chat.Public).
//		WhereEquals("isReadOnly", true).
//		OrderBy("name").
//		Iter(ctx)
//	defer it.Close()
//	for it.HasNext() {
//		c, err := it.Next()
//		...
//	}
type Query[T any] struct {
	t        *table
	preds    []predicate
	orders   []string
	consumed bool
}

type predicate struct {
	field string
	value any
}

// WhereEquals appends the predicate "field = value". A nil value matches
// NULL. For relation fields, value is the referenced entity or its key.
// Fields are named by field name or column name; unknown fields are
// reported when the query runs.
func (q *Query[T]) WhereEquals(field string, value any) *Query[T] {
	q.preds = append(q.preds, predicate{field: field, value: value})
	return q
}

// OrderBy appends field to the ordering keys, ascending.
func (q *Query[T]) OrderBy(field string) *Query[T] {
	q.orders = append(q.orders, field)
	return q
}

// SQL returns the statement the query would run, without running it.
func (q *Query[T]) SQL() (string, error) {
	return q.statement()
}

func (q *Query[T]) statement() (string, error) {
	s := q.t.schema
	sel := sql.Select(q.t.dialect, s.Table())
	for _, p := range q.preds {
		i, ok := s.Lookup(p.field)
		if !ok {
			return "", dynrepo.NewConfigurationError(s.Name(), p.field, "unknown field in predicate")
		}
		var v any
		if p.value != nil {
			var err error
			if v, err = q.t.plan.EncodeValue(i, p.value); err != nil {
				return "", err
			}
		}
		sel.WhereEQ(s.Fields()[i].Column, v)
	}
	for _, o := range q.orders {
		i, ok := s.Lookup(o)
		if !ok {
			return "", dynrepo.NewConfigurationError(s.Name(), o, "unknown field in ordering")
		}
		sel.OrderBy(s.Fields()[i].Column)
	}
	return sel.Query()
}

// Iter returns an iterator over the query results. The query runs on the
// first call to HasNext.
func (q *Query[T]) Iter(ctx context.Context) *Iterator[T] {
	return &Iterator[T]{ctx: ctx, q: q}
}

// Seq returns the query results as a range function. The cursor is closed
// when the loop ends, including on break. Errors are yielded with a nil
// entity and stop the iteration.
//
//	for c, err := range channels.FindAll().OrderBy("name").Seq(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(c.Name)
//	}
func (q *Query[T]) Seq(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		it := q.Iter(ctx)
		defer it.Close()
		for it.HasNext() {
			e, err := it.Next()
			if !yield(e, err) || err != nil {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Iterator is a forward-only, single-pass cursor over query results.
// It holds an open cursor from the first HasNext until the results are
// exhausted or Close is called.
type Iterator[T any] struct {
	ctx     context.Context
	q       *Query[T]
	rows    *sql.Rows
	scanner *codec.Scanner
	next    *codec.Record
	err     error
	started bool
	done    bool
}

// HasNext reports whether another row is available, reading it from the
// cursor if none is buffered. It returns false at the end of the results
// or on error; the cursor is closed in both cases.
func (it *Iterator[T]) HasNext() bool {
	if it.next != nil {
		return true
	}
	if it.done {
		return false
	}
	if !it.started && !it.open() {
		return false
	}
	rec, err := it.scanner.Next()
	switch {
	case err != nil:
		it.fail(dynrepo.NewQueryError(it.q.t.schema.Name(), "iterate", err))
		return false
	case rec == nil:
		if err := it.Close(); err != nil {
			it.err = err
		}
		return false
	}
	it.next = rec
	return true
}

// Next decodes and returns the row buffered by the last HasNext. Without
// a buffered row it returns dynrepo.ErrNoSuchElement.
func (it *Iterator[T]) Next() (*T, error) {
	if it.next == nil {
		return nil, dynrepo.ErrNoSuchElement
	}
	rec := it.next
	it.next = nil
	ctx, ids := withIdentities(it.ctx)
	e, err := it.q.t.decode(ctx, ids, rec)
	if err != nil {
		return nil, err
	}
	return e.(*T), nil
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Close releases the cursor. It is safe to call Close more than once and
// before the iteration started.
func (it *Iterator[T]) Close() error {
	it.done = true
	it.next = nil
	if it.rows == nil {
		return nil
	}
	rows := it.rows
	it.rows = nil
	if err := rows.Close(); err != nil {
		return fmt.Errorf("repository: closing cursor: %w", err)
	}
	return nil
}

// open runs the query. The query is consumed even if it fails.
func (it *Iterator[T]) open() bool {
	it.started = true
	q := it.q
	if q.consumed {
		it.fail(dynrepo.ErrQueryConsumed)
		return false
	}
	q.consumed = true
	query, err := q.statement()
	q.preds, q.orders = nil, nil
	if err != nil {
		it.fail(err)
		return false
	}
	rows, err := q.t.query(it.ctx, query, []any{})
	if err != nil {
		it.fail(dynrepo.NewQueryError(q.t.schema.Name(), "iterate", err))
		return false
	}
	it.rows = rows
	it.scanner = codec.NewScanner(rows)
	return true
}

func (it *Iterator[T]) fail(err error) {
	it.err = err
	if cerr := it.Close(); cerr != nil {
		it.err = errors.Join(err, cerr)
	}
}
