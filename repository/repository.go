package repository

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/dialect"
	"github.com/syssam/dynrepo/schema"
	"github.com/syssam/dynrepo/schema/field"
)

// Repository reads and writes entities of type T keyed by K. It is
// derived from the schema returned by T's Schema method.
//
//	users, err := repository.New[int64, User](drv)
//	if err != nil {
//		return err
//	}
//	u, err := users.GetByID(ctx, 1)
type Repository[K comparable, T schema.Entity[T]] struct {
	reg    *Registry
	schema *schema.Schema[T]
	t      *table
}

// New returns a repository of T with its own registry over drv.
func New[K comparable, T schema.Entity[T]](drv dialect.Driver, opts ...Option) (*Repository[K, T], error) {
	return For[K, T](NewRegistry(drv, opts...))
}

// For returns a repository of T sharing the tables of reg.
func For[K comparable, T schema.Entity[T]](reg *Registry) (*Repository[K, T], error) {
	var e T
	s := e.Schema()
	if s == nil {
		return nil, fmt.Errorf("repository: %T has no schema", e)
	}
	if err := checkKey[K](s.Key()); err != nil {
		return nil, dynrepo.NewConfigurationError(s.Name(), s.Key().Name, err.Error())
	}
	t, err := reg.resolve(s)
	if err != nil {
		return nil, err
	}
	return &Repository[K, T]{reg: reg, schema: s, t: t}, nil
}

// checkKey reports whether K can hold values of the key field.
func checkKey[K comparable](key *schema.Descriptor) error {
	k := reflect.TypeFor[K]()
	var ok bool
	switch key.Type {
	case field.TypeInt, field.TypeInt32, field.TypeInt64:
		switch k.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			ok = true
		}
	case field.TypeString, field.TypeEnum:
		ok = k.Kind() == reflect.String
	case field.TypeBool:
		ok = k.Kind() == reflect.Bool
	case field.TypeTime:
		ok = k == reflect.TypeFor[time.Time]()
	}
	if !ok {
		return fmt.Errorf("key type %s cannot be used as %s", key.Type, k)
	}
	return nil
}

// MustFor is like For but panics on error.
func MustFor[K comparable, T schema.Entity[T]](reg *Registry) *Repository[K, T] {
	r, err := For[K, T](reg)
	if err != nil {
		panic(err)
	}
	return r
}

// Schema returns the schema of T.
func (r *Repository[K, T]) Schema() *schema.Schema[T] { return r.schema }

// Table returns the table name of T.
func (r *Repository[K, T]) Table() string { return r.schema.Table() }

// Registry returns the registry the repository belongs to.
func (r *Repository[K, T]) Registry() *Registry { return r.reg }

// GetByID returns the entity with the given key, or a *dynrepo.NotFoundError
// if there is none. Relations are loaded recursively.
func (r *Repository[K, T]) GetByID(ctx context.Context, id K) (*T, error) {
	e, err := r.t.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.(*T), nil
}

// All returns every entity of the table, in cursor order.
func (r *Repository[K, T]) All(ctx context.Context) ([]*T, error) {
	list, err := r.t.all(ctx)
	if err != nil {
		return nil, err
	}
	entities := make([]*T, len(list))
	for i, e := range list {
		entities[i] = e.(*T)
	}
	return entities, nil
}

// DeleteByID deletes the entity with the given key. Deleting a missing
// entity is not an error.
func (r *Repository[K, T]) DeleteByID(ctx context.Context, id K) error {
	return r.t.deleteByID(ctx, id)
}

// Update writes every non-key field of e to the row with e's key. If no
// such row exists, nothing is written and no error is returned.
func (r *Repository[K, T]) Update(ctx context.Context, e *T) error {
	if e == nil {
		return fmt.Errorf("repository: update %s: nil entity", r.schema.Name())
	}
	return r.t.updateEntity(ctx, e)
}

// Insert writes e and returns the stored entity. If the key is generated
// by the database, the returned entity holds the new key and e is left
// unchanged.
func (r *Repository[K, T]) Insert(ctx context.Context, e *T) (*T, error) {
	if e == nil {
		return nil, fmt.Errorf("repository: insert %s: nil entity", r.schema.Name())
	}
	out, err := r.t.insertEntity(ctx, e)
	if err != nil {
		return nil, err
	}
	return out.(*T), nil
}

// FindAll returns a lazy query over the table. Nothing is executed until
// the first row is pulled from its iterator.
func (r *Repository[K, T]) FindAll() *Query[T] {
	return &Query[T]{t: r.t}
}

// KeyOf returns the key of e as a K.
func (r *Repository[K, T]) KeyOf(e *T) K {
	v := r.schema.KeyOf(e)
	if k, ok := v.(K); ok {
		return k
	}
	return reflect.ValueOf(v).Convert(reflect.TypeFor[K]()).Interface().(K)
}
