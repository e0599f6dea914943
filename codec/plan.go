package codec

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/schema"
	"github.com/syssam/dynrepo/schema/field"
)

// Lookup loads the entity with the given key from the table of a relation
// target. It returns a *dynrepo.NotFoundError if there is no such row.
type Lookup func(ctx context.Context, key any) (any, error)

// LookupFunc returns the Lookup of the target of the i-th field of a schema.
type LookupFunc func(i int, target schema.Describer) (Lookup, error)

// Binding is the codec of one field: how its column is read into the
// entity and how its value is bound as a statement argument.
type Binding struct {
	Index  int
	Field  *schema.Descriptor
	decode func(context.Context, *Record) (any, error)
	encode func(any) (any, error)
}

// Plan holds one binding per field of a schema, in field order. Decode is
// the get plan and Encode the set plan of the entity.
type Plan struct {
	schema   schema.Describer
	bindings []*Binding
}

// Build returns the plan of a schema. The lookup function is called once
// per relation field to obtain the loader of the referenced entities.
func Build(s schema.Describer, lookup LookupFunc) (*Plan, error) {
	p := &Plan{schema: s, bindings: make([]*Binding, len(s.Fields()))}
	for i, d := range s.Fields() {
		b := &Binding{Index: i, Field: d}
		switch d.Kind() {
		case field.KindPrimitive:
			b.decode, b.encode = primitiveCodec(d)
		case field.KindEnum:
			b.decode, b.encode = enumCodec(d)
		case field.KindRelation:
			target := d.Target()
			if target == nil {
				return nil, dynrepo.NewConfigurationError(s.Name(), d.Name, "relation target has no schema")
			}
			if lookup == nil {
				return nil, dynrepo.NewConfigurationError(s.Name(), d.Name, "no lookup for relation target "+target.Name())
			}
			load, err := lookup(i, target)
			if err != nil {
				return nil, err
			}
			b.decode, b.encode = relationCodec(s, d, target, load)
		default:
			return nil, dynrepo.NewUnsupportedTypeError(d.Name, d.Type.String(), nil)
		}
		p.bindings[i] = b
	}
	return p, nil
}

// Schema returns the schema of the plan.
func (p *Plan) Schema() schema.Describer { return p.schema }

// Bindings returns the bindings in field order.
func (p *Plan) Bindings() []*Binding { return p.bindings }

// Decode reads every field of the entity pointer e from the record.
func (p *Plan) Decode(ctx context.Context, rec *Record, e any) error {
	for _, b := range p.bindings {
		v, err := b.decode(ctx, rec)
		if err != nil {
			return err
		}
		if err := p.schema.SetValue(e, b.Index, v); err != nil {
			return err
		}
	}
	return nil
}

// DecodeField reads the value of the i-th field from the record.
func (p *Plan) DecodeField(ctx context.Context, rec *Record, i int) (any, error) {
	return p.bindings[i].decode(ctx, rec)
}

// New decodes the record into a new entity and returns its pointer.
func (p *Plan) New(ctx context.Context, rec *Record) (any, error) {
	e := p.schema.New()
	if err := p.Decode(ctx, rec, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Encode returns the statement argument of the i-th field of the entity
// pointer e.
func (p *Plan) Encode(e any, i int) (any, error) {
	v, err := p.schema.Value(e, i)
	if err != nil {
		return nil, err
	}
	return p.bindings[i].encode(v)
}

// EncodeValue returns the statement argument of a value of the i-th field.
// For relations, v may be the referenced entity, a pointer to it, or its
// key.
func (p *Plan) EncodeValue(i int, v any) (any, error) {
	return p.bindings[i].encode(v)
}

// Args returns the arguments of the given fields of e, in the given order.
func (p *Plan) Args(e any, fields []int) ([]any, error) {
	args := make([]any, 0, len(fields))
	for _, i := range fields {
		v, err := p.Encode(e, i)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func primitiveCodec(d *schema.Descriptor) (func(context.Context, *Record) (any, error), func(any) (any, error)) {
	decode := func(_ context.Context, rec *Record) (any, error) {
		v, err := rec.Value(d.Column)
		if err != nil {
			return nil, err
		}
		return decodePrimitive(d.Name, d.Type, v)
	}
	encode := func(v any) (any, error) {
		return encodePrimitive(d.Name, d.Type, v)
	}
	return decode, encode
}

func enumCodec(d *schema.Descriptor) (func(context.Context, *Record) (any, error), func(any) (any, error)) {
	decode := func(_ context.Context, rec *Record) (any, error) {
		v, err := rec.Value(d.Column)
		if err != nil {
			return nil, err
		}
		var name string
		switch v := v.(type) {
		case string:
			name = v
		case []byte:
			name = string(v)
		default:
			return nil, dynrepo.NewUnsupportedTypeError(d.Name, d.Type.String(), v)
		}
		if !slices.Contains(d.Enums, name) {
			return nil, dynrepo.NewUnknownVariantError(d.Name, name, d.Enums)
		}
		return name, nil
	}
	encode := func(v any) (any, error) {
		s, ok := toString(v)
		if !ok {
			return nil, dynrepo.NewUnsupportedTypeError(d.Name, d.Type.String(), v)
		}
		return s, nil
	}
	return decode, encode
}

// keyCodec returns the codec of a relation target's key, which is a
// primitive or an enum.
func keyCodec(key *schema.Descriptor) (func(context.Context, *Record) (any, error), func(any) (any, error)) {
	if key.Kind() == field.KindEnum {
		return enumCodec(key)
	}
	return primitiveCodec(key)
}

func relationCodec(s schema.Describer, d *schema.Descriptor, target schema.Describer, load Lookup) (func(context.Context, *Record) (any, error), func(any) (any, error)) {
	key := *target.Key()
	// The foreign key is read from the relation column with the rules of
	// the target key.
	key.Column = d.Column
	keyDecode, keyEncode := keyCodec(&key)
	entityType := target.Type()
	decode := func(ctx context.Context, rec *Record) (any, error) {
		raw, err := rec.Value(d.Column)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			if d.Optional {
				return nil, nil
			}
			return nil, dynrepo.NewDanglingReferenceError(s.Name(), d.Name, target.Name(), nil)
		}
		k, err := keyDecode(ctx, rec)
		if err != nil {
			return nil, err
		}
		e, err := load(ctx, k)
		switch {
		case dynrepo.IsNotFound(err):
			return nil, dynrepo.NewDanglingReferenceError(s.Name(), d.Name, target.Name(), k)
		case err != nil:
			return nil, fmt.Errorf("codec: loading %s.%s: %w", s.Name(), d.Name, err)
		}
		return e, nil
	}
	encode := func(v any) (any, error) {
		if v == nil {
			if d.Optional {
				return nil, nil
			}
			return nil, dynrepo.NewUnsupportedTypeError(d.Name, d.Type.String(), nil)
		}
		rv := reflect.ValueOf(v)
		switch {
		case rv.Type() == reflect.PointerTo(entityType):
			if rv.IsNil() {
				if d.Optional {
					return nil, nil
				}
				return nil, dynrepo.NewUnsupportedTypeError(d.Name, d.Type.String(), v)
			}
		case rv.Type() == entityType:
			ptr := reflect.New(entityType)
			ptr.Elem().Set(rv)
			v = ptr.Interface()
		default:
			// A key value.
			return keyEncode(v)
		}
		k, err := target.Value(v, target.KeyIndex())
		if err != nil {
			return nil, err
		}
		return keyEncode(k)
	}
	return decode, encode
}
