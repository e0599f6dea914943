package gen

import (
	"go/token"
	"path/filepath"
	"slices"
	"unicode"

	"github.com/syssam/dynrepo/compiler/load"
	"github.com/syssam/dynrepo/schema"
	"github.com/syssam/dynrepo/schema/field"
)

// Config holds the generator settings.
type Config struct {
	// Target is the output directory. Required.
	Target string
	// Package is the name of the generated package. It defaults to the
	// base name of Target.
	Package string
	// Workers limits the number of files written in parallel.
	// Zero means GOMAXPROCS.
	Workers int
}

// pkg returns the package name of the generated files.
func (c *Config) pkg() string {
	if c.Package != "" {
		return c.Package
	}
	return filepath.Base(c.Target)
}

type (
	// Graph holds the validated entities of a schema file.
	Graph struct {
		*Config
		Nodes []*Type
		Enums []*Enum
	}

	// Type is an entity to generate.
	Type struct {
		Name   string
		Table  string
		Snake  bool
		Fields []*Field
		Key    *Field
		Pos    string
		// enums lists the enum types declared in the file of this entity.
		enums []*Enum
	}

	// Field is a field of a Type.
	Field struct {
		Name     string
		Column   string
		Type     field.Type
		Key      bool
		Optional bool
		Comment  string
		// Enum is set for enum fields.
		Enum *Enum
		// Ref is the referenced entity of relation fields.
		Ref *Type
	}

	// Enum is a generated string type with one constant per value.
	Enum struct {
		Name   string
		Values []string
		Owner  *Type
	}
)

// NewGraph validates the schemas and links relation fields to their
// targets. Validation failures are returned as *SchemaError.
func NewGraph(c *Config, schemas ...*load.Schema) (*Graph, error) {
	if c == nil {
		return nil, &ConfigError{Option: "Config", Message: "nil config"}
	}
	g := &Graph{Config: c}
	byName := make(map[string]*Type, len(schemas))
	for _, s := range schemas {
		if msg := checkName(s.Name); msg != "" {
			return nil, &SchemaError{Pos: s.Pos, Entity: s.Name, Message: msg}
		}
		if _, ok := byName[s.Name]; ok {
			return nil, &SchemaError{Pos: s.Pos, Entity: s.Name, Message: "entity declared twice"}
		}
		t := &Type{
			Name:  s.Name,
			Table: s.Table,
			Snake: s.Naming == "snake",
			Pos:   s.Pos,
		}
		switch s.Naming {
		case "", "snake":
		default:
			return nil, &SchemaError{Pos: s.Pos, Entity: s.Name, Message: "unknown naming "+s.Naming}
		}
		if t.Table == "" {
			t.Table = schema.PluralSnakeCase(t.Name)
		}
		byName[s.Name] = t
		g.Nodes = append(g.Nodes, t)
	}
	for i, s := range schemas {
		if err := g.addFields(g.Nodes[i], s, byName); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Graph) addFields(t *Type, s *load.Schema, byName map[string]*Type) error {
	names := make(map[string]bool)
	for _, lf := range s.Fields {
		f := &Field{
			Name:     lf.Name,
			Column:   lf.Column,
			Type:     field.ParseType(lf.Type),
			Key:      lf.Key,
			Optional: lf.Optional,
			Comment:  lf.Comment,
		}
		if !f.Type.Valid() {
			return t.fail(f.Name, "unknown type "+lf.Type)
		}
		if !token.IsIdentifier(f.StructField()) {
			return t.fail(f.Name, "invalid field name")
		}
		if names[f.StructField()] {
			return t.fail(f.Name, "duplicate field")
		}
		names[f.StructField()] = true
		switch f.Type {
		case field.TypeRelation:
			if f.Ref = byName[lf.Ref]; f.Ref == nil {
				return t.fail(f.Name, "unknown relation target "+lf.Ref)
			}
			if f.Key {
				return t.fail(f.Name, "a relation cannot be the key")
			}
		case field.TypeEnum:
			e, err := g.enum(t, f, lf)
			if err != nil {
				return err
			}
			f.Enum = e
		}
		if f.Optional && f.Type != field.TypeRelation {
			return t.fail(f.Name, "only relations can be optional")
		}
		if f.Key {
			if t.Key != nil {
				return t.fail(f.Name, "duplicate key, already declared on "+t.Key.Name)
			}
			t.Key = f
		}
		t.Fields = append(t.Fields, f)
	}
	if t.Key == nil {
		return t.fail("", "missing key field")
	}
	return nil
}

func (t *Type) fail(field, msg string) *SchemaError {
	return &SchemaError{Pos: t.Pos, Entity: t.Name, Field: field, Message: msg}
}

// enum returns the enum type of f, declaring it on first use.
func (g *Graph) enum(t *Type, f *Field, lf *load.Field) (*Enum, error) {
	name := lf.Enum
	if name == "" {
		name = t.Name + f.StructField()
	}
	if msg := checkName(name); msg != "" {
		return nil, t.fail(f.Name, msg)
	}
	if len(lf.Values) == 0 {
		return nil, t.fail(f.Name, "enum without values")
	}
	consts := make(map[string]bool, len(lf.Values))
	for _, v := range lf.Values {
		c := enumConst(name, v)
		if v == "" || consts[c] {
			return nil, t.fail(f.Name, "invalid or duplicate enum value "+v)
		}
		consts[c] = true
	}
	for _, e := range g.Enums {
		if e.Name != name {
			continue
		}
		if !slices.Equal(e.Values, lf.Values) {
			return nil, t.fail(f.Name, "enum "+name+" redeclared with other values")
		}
		return e, nil
	}
	e := &Enum{Name: name, Values: lf.Values, Owner: t}
	g.Enums = append(g.Enums, e)
	t.enums = append(t.enums, e)
	return e, nil
}

// checkName returns why name cannot be a generated type name, or "".
func checkName(name string) string {
	switch {
	case name == "":
		return "missing name"
	case !token.IsIdentifier(name):
		return "invalid Go identifier " + name
	case !unicode.IsUpper([]rune(name)[0]):
		return name + " must be exported"
	}
	return ""
}

// Receiver returns the name of the schema variable of the type.
func (t *Type) Receiver() string {
	return lowerCamel(t.Name) + "Schema"
}

// Filename returns the name of the generated file of the type.
func (t *Type) Filename() string {
	return snake(t.Name) + ".go"
}

// HasRelations reports whether the type references other entities.
func (t *Type) HasRelations() bool {
	for _, f := range t.Fields {
		if f.Type == field.TypeRelation {
			return true
		}
	}
	return false
}

// InsertFields returns the fields passed to the typed Insert method:
// every field except a key assigned by the database.
func (t *Type) InsertFields() []*Field {
	fields := make([]*Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Key && field.Generated(f.Type) {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// StructField returns the Go name of the field.
func (f *Field) StructField() string {
	return pascal(f.Name)
}

// ParamName returns the parameter name of the field in Insert methods.
func (f *Field) ParamName() string {
	p := lowerCamel(f.Name)
	switch {
	case p == "type":
		return "typ"
	case token.IsKeyword(p), p == "ctx", p == "r":
		return p + "Value"
	}
	return p
}
