package schema

import (
	"errors"
	"time"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/schema/field"
)

// Descriptor describes one field of an entity.
type Descriptor struct {
	Name     string     // field name.
	Column   string     // column name, defaults to the field name.
	Type     field.Type // field type.
	Key      bool       // key field.
	Optional bool       // relation that may be nil, stored as NULL.
	Enums    []string   // enum variants in declaration order.
	Err      error      // builder error, reported by New.

	target func() Describer
}

// Kind returns the mapping kind of the field.
func (d *Descriptor) Kind() field.Kind {
	return field.Classify(d.Type)
}

// Target returns the schema of the entity a relation field references,
// or nil for other fields and for entities whose schema is missing.
func (d *Descriptor) Target() Describer {
	if d.target == nil {
		return nil
	}
	return d.target()
}

// Generated reports whether the field is a key assigned by the database.
func (d *Descriptor) Generated() bool {
	return d.Key && field.Generated(d.Type)
}

// Field is a field of an entity schema, created by one of the builders
// of this package (Bool, Int64, String, Enum, Relation, ...).
type Field[T any] interface {
	Descriptor() *Descriptor
	get(*T) any
	set(*T, any) error
}

// Builder builds a field of entity T.
type Builder[T any] struct {
	desc   *Descriptor
	getter func(*T) any
	setter func(*T, any) error
}

// Key marks the field as the entity key. Integer keys are generated by
// the database on insert.
func (b *Builder[T]) Key() *Builder[T] {
	b.desc.Key = true
	return b
}

// Column sets the column name of the field.
func (b *Builder[T]) Column(name string) *Builder[T] {
	b.desc.Column = name
	return b
}

// Descriptor implements the Field interface by returning its descriptor.
func (b *Builder[T]) Descriptor() *Descriptor {
	return b.desc
}

func (b *Builder[T]) get(e *T) any { return b.getter(e) }

func (b *Builder[T]) set(e *T, v any) error { return b.setter(e, v) }

var errNilAccessor = errors.New("nil field accessor")

// primitive returns a builder for a field stored as a V value.
func primitive[T, V any](name string, typ field.Type, ref func(*T) *V) *Builder[T] {
	b := &Builder[T]{desc: &Descriptor{Name: name, Type: typ}}
	if ref == nil {
		b.desc.Err = errNilAccessor
		return b
	}
	b.getter = func(e *T) any { return *ref(e) }
	b.setter = func(e *T, v any) error {
		x, ok := v.(V)
		if !ok {
			return dynrepo.NewUnsupportedTypeError(name, typ.String(), v)
		}
		*ref(e) = x
		return nil
	}
	return b
}

// Bool returns a builder for a boolean field.
//
//	schema.Bool("isArchived", func(c *Channel) *bool { return &c.IsArchived })
func Bool[T any](name string, ref func(*T) *bool) *Builder[T] {
	return primitive(name, field.TypeBool, ref)
}

// Int returns a builder for an int field.
func Int[T any](name string, ref func(*T) *int) *Builder[T] {
	return primitive(name, field.TypeInt, ref)
}

// Int32 returns a builder for an int32 field.
func Int32[T any](name string, ref func(*T) *int32) *Builder[T] {
	return primitive(name, field.TypeInt32, ref)
}

// Int64 returns a builder for an int64 field.
//
//	schema.Int64("id", func(u *User) *int64 { return &u.ID }).Key()
func Int64[T any](name string, ref func(*T) *int64) *Builder[T] {
	return primitive(name, field.TypeInt64, ref)
}

// String returns a builder for a string field.
func String[T any](name string, ref func(*T) *string) *Builder[T] {
	return primitive(name, field.TypeString, ref)
}

// Time returns a builder for a time field. Dates are time fields.
func Time[T any](name string, ref func(*T) *time.Time) *Builder[T] {
	return primitive(name, field.TypeTime, ref)
}

// Enum returns a builder for an enum field stored by variant name. The
// values list every variant of E; a stored name outside the list fails
// to decode.
//
//	schema.Enum("type", func(c *Channel) *ChannelType { return &c.Type }, Public, Private)
func Enum[T any, E ~string](name string, ref func(*T) *E, values ...E) *Builder[T] {
	b := &Builder[T]{desc: &Descriptor{Name: name, Type: field.TypeEnum}}
	if ref == nil {
		b.desc.Err = errNilAccessor
		return b
	}
	b.desc.Enums = make([]string, len(values))
	for i, v := range values {
		b.desc.Enums[i] = string(v)
	}
	b.getter = func(e *T) any { return string(*ref(e)) }
	b.setter = func(e *T, v any) error {
		s, ok := v.(string)
		if !ok {
			return dynrepo.NewUnsupportedTypeError(name, field.TypeEnum.String(), v)
		}
		*ref(e) = E(s)
		return nil
	}
	return b
}

// Relation returns a builder for a field holding another entity. The
// column stores the key of the referenced entity and reading a row loads
// the referenced entity through its own repository.
//
//	schema.Relation("channel", func(m *Message) *Channel { return &m.Channel }).Column("channel_name")
func Relation[T any, R Entity[R]](name string, ref func(*T) *R) *Builder[T] {
	b := relation[T, R](name, false)
	if ref == nil {
		b.desc.Err = errNilAccessor
		return b
	}
	b.getter = func(e *T) any { return ref(e) }
	b.setter = func(e *T, v any) error {
		r, ok := v.(*R)
		if !ok || r == nil {
			return dynrepo.NewUnsupportedTypeError(name, field.TypeRelation.String(), v)
		}
		*ref(e) = *r
		return nil
	}
	return b
}

// OptionalRelation is like Relation for a pointer field. A nil pointer is
// stored as NULL and NULL reads back as nil. Self references and cycles
// between entities need pointer fields.
func OptionalRelation[T any, R Entity[R]](name string, ref func(*T) **R) *Builder[T] {
	b := relation[T, R](name, true)
	if ref == nil {
		b.desc.Err = errNilAccessor
		return b
	}
	b.getter = func(e *T) any {
		if p := *ref(e); p != nil {
			return p
		}
		return nil
	}
	b.setter = func(e *T, v any) error {
		if v == nil {
			*ref(e) = nil
			return nil
		}
		r, ok := v.(*R)
		if !ok {
			return dynrepo.NewUnsupportedTypeError(name, field.TypeRelation.String(), v)
		}
		*ref(e) = r
		return nil
	}
	return b
}

func relation[T any, R Entity[R]](name string, optional bool) *Builder[T] {
	return &Builder[T]{desc: &Descriptor{
		Name:     name,
		Type:     field.TypeRelation,
		Optional: optional,
		target: func() Describer {
			var r R
			if s := r.Schema(); s != nil {
				return s
			}
			return nil
		},
	}}
}
