package repository

import (
	"context"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/codec"
	"github.com/syssam/dynrepo/dialect/sql"
)

// insertEntity writes e and returns the stored entity. For generated keys
// a new entity is returned holding the key read back from the database;
// otherwise the result is a copy of e.
func (t *table) insertEntity(ctx context.Context, e any) (any, error) {
	args, err := t.plan.Args(e, t.insertFields)
	if err != nil {
		return nil, err
	}
	var key any
	switch {
	case t.returning:
		key, err = t.insertReturning(ctx, args)
	default:
		key, err = t.insertExec(ctx, args)
	}
	if err != nil {
		return nil, err
	}
	return t.stored(e, key)
}

// insertReturning reads the generated key from the RETURNING clause.
func (t *table) insertReturning(ctx context.Context, args []any) (any, error) {
	records, err := t.records(ctx, t.insert, args, 1)
	if err != nil {
		return nil, t.mutationError("insert", err)
	}
	if len(records) == 0 {
		return nil, dynrepo.NewNoGeneratedKeyError(t.schema.Table(), nil)
	}
	key, err := t.plan.DecodeField(ctx, records[0], t.schema.KeyIndex())
	if err != nil {
		return nil, dynrepo.NewNoGeneratedKeyError(t.schema.Table(), err)
	}
	return key, nil
}

// insertExec executes the insert and, for generated keys, reads the key
// from LastInsertId.
func (t *table) insertExec(ctx context.Context, args []any) (any, error) {
	var res sql.Result
	if err := t.drv.Exec(ctx, t.insert, args, &res); err != nil {
		return nil, t.mutationError("insert", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, t.mutationError("insert", err)
	}
	if affected == 0 {
		return nil, dynrepo.NewNoRowsAffectedError(t.schema.Table())
	}
	if !t.generated {
		return nil, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, dynrepo.NewNoGeneratedKeyError(t.schema.Table(), err)
	}
	key := t.schema.Key()
	rec := codec.NewRecord([]string{key.Column}, []any{id})
	return t.plan.DecodeField(ctx, rec, t.schema.KeyIndex())
}

// stored returns a new entity with every field of e and, for generated
// keys, the key set.
func (t *table) stored(e any, key any) (any, error) {
	out := t.schema.New()
	for i := range t.schema.Fields() {
		v, err := t.schema.Value(e, i)
		if err != nil {
			return nil, err
		}
		if i == t.schema.KeyIndex() && t.generated {
			v = key
		}
		if err := t.schema.SetValue(out, i, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}
