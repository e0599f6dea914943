package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/codec"
	"github.com/syssam/dynrepo/dialect"
	"github.com/syssam/dynrepo/dialect/sql"
	"github.com/syssam/dynrepo/dialect/sql/sqlgraph"
	"github.com/syssam/dynrepo/schema"
)

// table is the type-erased repository of one entity type. Entities are
// passed and returned as pointers created by the schema.
type table struct {
	drv     dialect.Driver
	dialect string
	schema  schema.Describer
	plan    *codec.Plan

	selectAll   string
	selectByKey string
	deleteByKey string
	update      string
	insert      string

	// updateFields lists the non-key fields followed by the key.
	updateFields []int
	// insertFields lists every field except a generated key.
	insertFields []int
	generated    bool
	returning    bool
}

func newTable(drv dialect.Driver, s schema.Describer) *table {
	t := &table{
		drv:     drv,
		dialect: drv.Dialect(),
		schema:  s,
	}
	var (
		key        = s.Key()
		setColumns []string
		insColumns []string
	)
	for i, d := range s.Fields() {
		if i != s.KeyIndex() {
			setColumns = append(setColumns, d.Column)
			t.updateFields = append(t.updateFields, i)
		}
		if !d.Generated() {
			insColumns = append(insColumns, d.Column)
			t.insertFields = append(t.insertFields, i)
		}
	}
	t.updateFields = append(t.updateFields, s.KeyIndex())
	t.generated = key.Generated()
	t.returning = t.generated && sql.SupportsReturning(t.dialect)

	t.selectAll = sql.SelectAll(s.Table())
	t.selectByKey = t.rebind(sql.SelectByKey(s.Table(), key.Column))
	t.deleteByKey = t.rebind(sql.DeleteByKey(s.Table(), key.Column))
	if len(setColumns) > 0 {
		t.update = t.rebind(sql.Update(s.Table(), setColumns, key.Column))
	}
	insert := sql.Insert(s.Table(), insColumns)
	if len(insColumns) == 0 && t.dialect != dialect.MySQL {
		insert = "INSERT INTO " + s.Table() + " DEFAULT VALUES"
	}
	if t.returning {
		insert = sql.Returning(insert, key.Column)
	}
	t.insert = t.rebind(insert)
	return t
}

func (t *table) rebind(query string) string {
	return sql.Rebind(t.dialect, query)
}

// lookup loads referenced entities for the codec of other tables.
func (t *table) lookup(ctx context.Context, key any) (any, error) {
	return t.get(ctx, key)
}

func (t *table) get(ctx context.Context, key any) (any, error) {
	arg, err := t.plan.EncodeValue(t.schema.KeyIndex(), key)
	if err != nil {
		return nil, err
	}
	ctx, ids := withIdentities(ctx)
	if e, ok := ids.get(t.schema.Type(), arg); ok {
		return e, nil
	}
	records, err := t.records(ctx, t.selectByKey, []any{arg}, 1)
	if err != nil {
		return nil, dynrepo.NewQueryError(t.schema.Name(), "get", err)
	}
	if len(records) == 0 {
		return nil, dynrepo.NewNotFoundErrorWithID(t.schema.Name(), key)
	}
	return t.decode(ctx, ids, records[0])
}

func (t *table) all(ctx context.Context) ([]any, error) {
	records, err := t.records(ctx, t.selectAll, []any{}, 0)
	if err != nil {
		return nil, dynrepo.NewQueryError(t.schema.Name(), "all", err)
	}
	ctx, ids := withIdentities(ctx)
	entities := make([]any, 0, len(records))
	for _, rec := range records {
		e, err := t.decode(ctx, ids, rec)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// decode returns the entity of rec. A row already decoded in this read
// returns its existing pointer.
func (t *table) decode(ctx context.Context, ids identities, rec *codec.Record) (any, error) {
	i := t.schema.KeyIndex()
	key, err := t.plan.DecodeField(ctx, rec, i)
	if err != nil {
		return nil, err
	}
	arg, err := t.plan.EncodeValue(i, key)
	if err != nil {
		return nil, err
	}
	if e, ok := ids.get(t.schema.Type(), arg); ok {
		return e, nil
	}
	e := t.schema.New()
	ids.put(t.schema.Type(), arg, e)
	if err := t.plan.Decode(ctx, rec, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (t *table) deleteByID(ctx context.Context, key any) error {
	arg, err := t.plan.EncodeValue(t.schema.KeyIndex(), key)
	if err != nil {
		return err
	}
	if err := t.drv.Exec(ctx, t.deleteByKey, []any{arg}, nil); err != nil {
		return t.mutationError("delete", err)
	}
	return nil
}

// updateEntity writes every non-key field of e. Updating a missing row is
// not an error.
func (t *table) updateEntity(ctx context.Context, e any) error {
	if t.update == "" {
		return nil
	}
	args, err := t.plan.Args(e, t.updateFields)
	if err != nil {
		return err
	}
	if err := t.drv.Exec(ctx, t.update, args, nil); err != nil {
		return t.mutationError("update", err)
	}
	return nil
}

// records runs the query and reads up to limit rows, or every row if
// limit is 0. The cursor is closed before returning, so decoding the
// records may run other queries.
func (t *table) records(ctx context.Context, query string, args []any, limit int) (_ []*codec.Record, err error) {
	rows, err := t.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing rows: %w", cerr))
		}
	}()
	var (
		records []*codec.Record
		scanner = codec.NewScanner(rows)
	)
	for limit == 0 || len(records) < limit {
		rec, err := scanner.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		records = append(records, rec)
	}
	return records, nil
}

func (t *table) query(ctx context.Context, query string, args []any) (*sql.Rows, error) {
	rows := &sql.Rows{}
	if err := t.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// mutationError wraps a driver error, reporting constraint violations as
// dynrepo.ConstraintError.
func (t *table) mutationError(op string, err error) error {
	if sqlgraph.IsConstraintError(err) {
		err = dynrepo.NewConstraintError(err.Error(), err)
	}
	return dynrepo.NewMutationError(t.schema.Name(), op, err)
}
