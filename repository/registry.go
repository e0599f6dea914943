package repository

import (
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/codec"
	"github.com/syssam/dynrepo/dialect"
	"github.com/syssam/dynrepo/schema"
)

// Registry holds at most one table per entity type. Tables of relation
// targets are created on demand when a table referencing them is built
// and are shared by every repository of the registry.
//
// A Registry is safe for concurrent use.
type Registry struct {
	drv    dialect.Driver
	logger *slog.Logger

	mu     sync.Mutex
	tables map[reflect.Type]*table
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report table construction at debug
// level. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns an empty registry over the driver.
func NewRegistry(drv dialect.Driver, opts ...Option) *Registry {
	r := &Registry{
		drv:    drv,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		tables: make(map[reflect.Type]*table),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Driver returns the driver shared by the tables of the registry.
func (r *Registry) Driver() dialect.Driver { return r.drv }

// Len returns the number of tables in the registry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tables)
}

// resolve returns the table of the schema, building it and the tables of
// its relation targets if needed. If any of them fails to build, every
// table reserved by this call is removed.
func (r *Registry) resolve(s schema.Describer) (*table, error) {
	if s == nil {
		return nil, dynrepo.NewConfigurationError("", "", "nil schema")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var reserved []reflect.Type
	t, err := r.resolveLocked(s, &reserved)
	if err != nil {
		for _, typ := range reserved {
			delete(r.tables, typ)
		}
		r.logger.Debug("table construction failed", "entity", s.Name(), "removed", len(reserved), "error", err)
		return nil, err
	}
	return t, nil
}

// resolveLocked reserves the table before walking the relations, so that
// a cycle back to the entity finds the reservation instead of recursing.
func (r *Registry) resolveLocked(s schema.Describer, reserved *[]reflect.Type) (*table, error) {
	if t, ok := r.tables[s.Type()]; ok {
		return t, nil
	}
	t := newTable(r.drv, s)
	r.tables[s.Type()] = t
	*reserved = append(*reserved, s.Type())
	plan, err := codec.Build(s, func(_ int, target schema.Describer) (codec.Lookup, error) {
		tt, err := r.resolveLocked(target, reserved)
		if err != nil {
			return nil, err
		}
		return tt.lookup, nil
	})
	if err != nil {
		return nil, err
	}
	t.plan = plan
	r.logger.Debug("table created", "entity", s.Name(), "table", s.Table(), "fields", len(s.Fields()))
	return t, nil
}
