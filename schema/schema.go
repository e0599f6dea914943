package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/dialect/sql"
	"github.com/syssam/dynrepo/schema/field"
)

// Entity is implemented by types that expose their schema. The method
// must have a value receiver, since repositories and relations call it on
// the zero value of the type.
type Entity[T any] interface {
	Schema() *Schema[T]
}

// Describer is the type-erased view of a Schema. Repositories and the
// value codec work on it, so that relations can point at entities of any
// type.
type Describer interface {
	// Name returns the entity name, the Go type name.
	Name() string
	// Table returns the table the entity is stored in.
	Table() string
	// Type returns the entity type. It identifies the schema.
	Type() reflect.Type
	// Fields returns the field descriptors in declaration order.
	// The returned slice must not be modified.
	Fields() []*Descriptor
	// Key returns the descriptor of the key field.
	Key() *Descriptor
	// KeyIndex returns the position of the key field.
	KeyIndex() int
	// Lookup returns the position of a field by name or column.
	Lookup(name string) (int, bool)
	// New returns a pointer to a new zero entity.
	New() any
	// Value returns the value of the i-th field of the entity pointer e.
	Value(e any, i int) (any, error)
	// SetValue sets the value of the i-th field of the entity pointer e.
	SetValue(e any, i int, v any) error
}

// Config holds the table level settings of a schema.
type Config struct {
	// Table overrides the table name. When empty, the table is the
	// Go type name transformed by TableNaming.
	Table string
	// TableNaming derives the default table name from the type name.
	TableNaming Naming
	// ColumnNaming derives default column names from field names.
	// Fields with an explicit Column are not transformed.
	ColumnNaming Naming
}

// Schema describes how entities of type T map to rows of a table.
// A Schema is immutable once created and safe for concurrent use.
type Schema[T any] struct {
	name   string
	table  string
	typ    reflect.Type
	fields []Field[T]
	descs  []*Descriptor
	key    int
}

// New creates the schema of T from its fields. Fields are listed in the
// order used for inserts and updates. Exactly one field must be marked
// as the key.
func New[T any](cfg Config, fields ...Field[T]) (*Schema[T], error) {
	typ := reflect.TypeFor[T]()
	s := &Schema[T]{
		name:   typ.Name(),
		typ:    typ,
		fields: fields,
		descs:  make([]*Descriptor, 0, len(fields)),
		key:    -1,
	}
	if s.name == "" {
		s.name = typ.String()
	}
	if typ.Kind() != reflect.Struct {
		return nil, s.errorf("", "entity type must be a struct, got %s", typ.Kind())
	}
	switch {
	case cfg.Table != "":
		s.table = cfg.Table
	case typ.Name() == "":
		return nil, s.errorf("", "cannot resolve table name of an unnamed type")
	case cfg.TableNaming != nil:
		s.table = cfg.TableNaming(typ.Name())
	default:
		s.table = typ.Name()
	}
	if !sql.IsValidIdentifier(s.table) {
		return nil, s.errorf("", "invalid table name %q", s.table)
	}
	if len(fields) == 0 {
		return nil, s.errorf("", "no fields")
	}
	var (
		names   = make(map[string]struct{}, len(fields))
		columns = make(map[string]struct{}, len(fields))
	)
	for _, f := range fields {
		if f == nil {
			return nil, s.errorf("", "nil field")
		}
		d := *f.Descriptor()
		if d.Err != nil {
			return nil, s.errorf(d.Name, "%v", d.Err)
		}
		if d.Name == "" {
			return nil, s.errorf("", "field without a name")
		}
		if !d.Type.Valid() {
			return nil, dynrepo.NewUnsupportedTypeError(d.Name, d.Type.String(), nil)
		}
		if d.Column == "" {
			d.Column = d.Name
			if cfg.ColumnNaming != nil {
				d.Column = cfg.ColumnNaming(d.Name)
			}
		}
		if !sql.IsValidIdentifier(d.Column) {
			return nil, s.errorf(d.Name, "invalid column name %q", d.Column)
		}
		if _, ok := names[d.Name]; ok {
			return nil, s.errorf(d.Name, "duplicate field")
		}
		names[d.Name] = struct{}{}
		if _, ok := columns[strings.ToLower(d.Column)]; ok {
			return nil, s.errorf(d.Name, "duplicate column %q", d.Column)
		}
		columns[strings.ToLower(d.Column)] = struct{}{}
		if d.Type == field.TypeEnum && len(d.Enums) == 0 {
			return nil, s.errorf(d.Name, "enum without values")
		}
		if d.Key {
			if s.key >= 0 {
				return nil, s.errorf(d.Name, "multiple key fields (%s and %s)", s.descs[s.key].Name, d.Name)
			}
			if d.Type == field.TypeRelation {
				return nil, s.errorf(d.Name, "relation cannot be the key")
			}
			s.key = len(s.descs)
		}
		s.descs = append(s.descs, &d)
	}
	if s.key < 0 {
		return nil, s.errorf("", "no key field")
	}
	return s, nil
}

// MustNew is like New but panics if the schema is invalid.
// It simplifies the initialization of package level schema variables.
func MustNew[T any](cfg Config, fields ...Field[T]) *Schema[T] {
	s, err := New(cfg, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema[T]) errorf(field, format string, args ...any) error {
	return dynrepo.NewConfigurationError(s.name, field, fmt.Sprintf(format, args...))
}

// Name returns the entity name.
func (s *Schema[T]) Name() string { return s.name }

// Table returns the table name.
func (s *Schema[T]) Table() string { return s.table }

// Type returns the entity type.
func (s *Schema[T]) Type() reflect.Type { return s.typ }

// Fields returns the field descriptors in declaration order.
func (s *Schema[T]) Fields() []*Descriptor { return s.descs }

// Key returns the descriptor of the key field.
func (s *Schema[T]) Key() *Descriptor { return s.descs[s.key] }

// KeyIndex returns the position of the key field.
func (s *Schema[T]) KeyIndex() int { return s.key }

// Lookup returns the position of a field by its name. Column names are
// accepted as well and compared case-insensitively.
func (s *Schema[T]) Lookup(name string) (int, bool) {
	for i, d := range s.descs {
		if d.Name == name {
			return i, true
		}
	}
	for i, d := range s.descs {
		if strings.EqualFold(d.Column, name) {
			return i, true
		}
	}
	return -1, false
}

// New returns a pointer to a new zero entity.
func (s *Schema[T]) New() any { return new(T) }

// Value returns the value of the i-th field of e, a *T.
func (s *Schema[T]) Value(e any, i int) (any, error) {
	p, err := s.entity(e)
	if err != nil {
		return nil, err
	}
	return s.fields[i].get(p), nil
}

// SetValue sets the i-th field of e, a *T.
func (s *Schema[T]) SetValue(e any, i int, v any) error {
	p, err := s.entity(e)
	if err != nil {
		return err
	}
	return s.fields[i].set(p, v)
}

// KeyOf returns the key value of the entity.
func (s *Schema[T]) KeyOf(e *T) any {
	return s.fields[s.key].get(e)
}

func (s *Schema[T]) entity(e any) (*T, error) {
	p, ok := e.(*T)
	if !ok || p == nil {
		return nil, fmt.Errorf("schema %s: unexpected entity %T", s.name, e)
	}
	return p, nil
}

var _ Describer = (*Schema[struct{}])(nil)
