// Package load reads entity descriptions for the code generator.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec is the content of a schema file.
type Spec struct {
	// Package is the name of the generated package. Optional.
	Package  string    `yaml:"package,omitempty"`
	Entities []*Schema `yaml:"entities"`
}

// Schema describes one entity.
type Schema struct {
	Name  string `yaml:"name"`
	Table string `yaml:"table,omitempty"`
	// Naming is the column naming strategy: "snake" or empty for the
	// field names as written.
	Naming string   `yaml:"naming,omitempty"`
	Fields []*Field `yaml:"fields"`
	Pos    string   `yaml:"-"`
}

// Field describes one field of an entity.
type Field struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column,omitempty"`
	// Type is one of bool, int, int32, int64 (or long), string, time,
	// enum or relation.
	Type string `yaml:"type"`
	Key  bool   `yaml:"key,omitempty"`
	// Enum names the Go type of an enum field. It defaults to the
	// entity name followed by the field name.
	Enum   string   `yaml:"enum,omitempty"`
	Values []string `yaml:"values,omitempty"`
	// Ref is the entity a relation field references.
	Ref      string `yaml:"ref,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
	Comment  string `yaml:"comment,omitempty"`
}

// File reads the schema file at path.
func File(path string) (*Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: reading schema file: %w", err)
	}
	spec, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("load: %s: %w", path, err)
	}
	for _, s := range spec.Entities {
		s.Pos = path
	}
	return spec, nil
}

// Parse decodes a schema file. Unknown keys are rejected.
func Parse(b []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	spec := &Spec{}
	if err := dec.Decode(spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty schema file")
		}
		return nil, err
	}
	if len(spec.Entities) == 0 {
		return nil, errors.New("no entities declared")
	}
	for i, s := range spec.Entities {
		if s == nil || s.Name == "" {
			return nil, fmt.Errorf("entity #%d: missing name", i)
		}
		for j, f := range s.Fields {
			if f == nil || f.Name == "" {
				return nil, fmt.Errorf("entity %s: field #%d: missing name", s.Name, j)
			}
		}
	}
	return spec, nil
}

// Lookup returns the entity with the given name, or nil.
func (s *Spec) Lookup(name string) *Schema {
	for _, e := range s.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}
