package repository

import (
	"context"
	"reflect"
	"time"
)

// identity names one row: the entity type and its encoded key.
type identity struct {
	typ reflect.Type
	key any
}

// identities maps the rows decoded by one read to their entity pointers.
// An entity is registered before its fields are decoded, so a relation
// cycle resolves to the entity already being decoded instead of loading
// it again.
type identities map[identity]any

type identitiesKey struct{}

// withIdentities returns a context carrying an identity map. A context
// that already carries one, as in nested relation lookups, is returned
// unchanged.
func withIdentities(ctx context.Context) (context.Context, identities) {
	if ids, ok := ctx.Value(identitiesKey{}).(identities); ok {
		return ctx, ids
	}
	ids := make(identities)
	return context.WithValue(ctx, identitiesKey{}, ids), ids
}

func newIdentity(typ reflect.Type, key any) (identity, bool) {
	switch k := key.(type) {
	case nil:
		return identity{}, false
	case time.Time:
		key = k.UTC()
	default:
		if !reflect.TypeOf(key).Comparable() {
			return identity{}, false
		}
	}
	return identity{typ: typ, key: key}, true
}

func (ids identities) get(typ reflect.Type, key any) (any, bool) {
	id, ok := newIdentity(typ, key)
	if !ok {
		return nil, false
	}
	e, ok := ids[id]
	return e, ok
}

func (ids identities) put(typ reflect.Type, key, e any) {
	if id, ok := newIdentity(typ, key); ok {
		ids[id] = e
	}
}

// cyclic reports whether a pointer reachable from v leads back to one of
// its ancestors.
func cyclic(v reflect.Value) bool {
	return walkCyclic(v, make(map[uintptr]bool))
}

func walkCyclic(v reflect.Value, path map[uintptr]bool) bool {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return false
		}
		p := v.Pointer()
		if path[p] {
			return true
		}
		path[p] = true
		defer delete(path, p)
		return walkCyclic(v.Elem(), path)
	case reflect.Struct:
		for i := range v.NumField() {
			if walkCyclic(v.Field(i), path) {
				return true
			}
		}
	}
	return false
}
