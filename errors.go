package dynrepo

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("dynrepo: entity not found")

	// ErrConfiguration is matched by every ConfigurationError.
	ErrConfiguration = errors.New("dynrepo: invalid schema configuration")

	// ErrUnsupportedType is matched by UnsupportedTypeError and UnknownVariantError.
	ErrUnsupportedType = errors.New("dynrepo: unsupported type")

	// ErrUnknownVariant is returned when a stored enum value matches no declared variant.
	ErrUnknownVariant = errors.New("dynrepo: unknown enum variant")

	// ErrDanglingReference is returned when a foreign key points at a missing row.
	ErrDanglingReference = errors.New("dynrepo: dangling reference")

	// ErrNoGeneratedKey is returned when an insert on a serial key yields no key.
	ErrNoGeneratedKey = errors.New("dynrepo: no generated key")

	// ErrNoRowsAffected is returned when an insert affects zero rows.
	ErrNoRowsAffected = errors.New("dynrepo: no rows affected")

	// ErrNoSuchElement is returned by Iterator.Next when no row is buffered.
	ErrNoSuchElement = errors.New("dynrepo: no such element")

	// ErrQueryConsumed is returned when a query that already produced a cursor is pulled again.
	ErrQueryConsumed = errors.New("dynrepo: query already consumed")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("dynrepo: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("dynrepo: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConfigurationError reports a schema that cannot be mapped: no resolvable
// table name, a missing or duplicated key, or an unusable column.
type ConfigurationError struct {
	Entity string // Entity type name
	Field  string // Optional: offending field
	Msg    string
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("dynrepo: schema %s: field %q: %s", e.Entity, e.Field, e.Msg)
	}
	return fmt.Sprintf("dynrepo: schema %s: %s", e.Entity, e.Msg)
}

// Is reports whether the target error matches ErrConfiguration.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrConfiguration
}

// NewConfigurationError returns a new ConfigurationError.
func NewConfigurationError(entity, field, msg string) *ConfigurationError {
	return &ConfigurationError{Entity: entity, Field: field, Msg: msg}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrConfiguration)
}

// UnsupportedTypeError is returned when a value cannot be read from or
// written to a column with the declared field type.
type UnsupportedTypeError struct {
	Field string // Field or column name
	Type  string // Declared type
	Value any    // Optional: offending value
}

// Error returns the error string.
func (e *UnsupportedTypeError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("dynrepo: field %q: unsupported %s value %v (%T)", e.Field, e.Type, e.Value, e.Value)
	}
	return fmt.Sprintf("dynrepo: field %q: unsupported type %s", e.Field, e.Type)
}

// Is reports whether the target error matches ErrUnsupportedType.
func (e *UnsupportedTypeError) Is(err error) bool {
	return err == ErrUnsupportedType
}

// NewUnsupportedTypeError returns a new UnsupportedTypeError.
func NewUnsupportedTypeError(field, typ string, value any) *UnsupportedTypeError {
	return &UnsupportedTypeError{Field: field, Type: typ, Value: value}
}

// IsUnsupportedType returns true if the error is an UnsupportedTypeError
// or an UnknownVariantError.
func IsUnsupportedType(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnsupportedType)
}

// UnknownVariantError is returned when a stored enum name matches none of
// the declared variants. It is a data-integrity error.
type UnknownVariantError struct {
	Field    string
	Value    string
	Variants []string
}

// Error returns the error string.
func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("dynrepo: field %q: unknown variant %q (want one of %s)",
		e.Field, e.Value, strings.Join(e.Variants, ", "))
}

// Is reports whether the target error matches ErrUnknownVariant or ErrUnsupportedType.
func (e *UnknownVariantError) Is(err error) bool {
	return err == ErrUnknownVariant || err == ErrUnsupportedType
}

// NewUnknownVariantError returns a new UnknownVariantError.
func NewUnknownVariantError(field, value string, variants []string) *UnknownVariantError {
	return &UnknownVariantError{Field: field, Value: value, Variants: variants}
}

// DanglingReferenceError is returned when a foreign key column holds a
// value for which the referenced table has no row.
type DanglingReferenceError struct {
	Entity string // Entity holding the foreign key
	Field  string // Relation field
	Target string // Referenced entity
	Key    any    // Foreign key value
}

// Error returns the error string.
func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("dynrepo: %s.%s references missing %s (key=%v)", e.Entity, e.Field, e.Target, e.Key)
}

// Is reports whether the target error matches ErrDanglingReference.
func (e *DanglingReferenceError) Is(err error) bool {
	return err == ErrDanglingReference
}

// NewDanglingReferenceError returns a new DanglingReferenceError.
func NewDanglingReferenceError(entity, field, target string, key any) *DanglingReferenceError {
	return &DanglingReferenceError{Entity: entity, Field: field, Target: target, Key: key}
}

// IsDanglingReference returns true if the error is a DanglingReferenceError.
func IsDanglingReference(err error) bool {
	if err == nil {
		return false
	}
	var e *DanglingReferenceError
	return errors.As(err, &e) || errors.Is(err, ErrDanglingReference)
}

// NoGeneratedKeyError is returned when an insert into a table with a
// database-generated key does not report the key.
type NoGeneratedKeyError struct {
	Table string
	Err   error // Optional: driver error
}

// Error returns the error string.
func (e *NoGeneratedKeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dynrepo: insert into %s: no generated key: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("dynrepo: insert into %s: no generated key", e.Table)
}

// Unwrap returns the underlying error.
func (e *NoGeneratedKeyError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrNoGeneratedKey.
func (e *NoGeneratedKeyError) Is(err error) bool {
	return err == ErrNoGeneratedKey
}

// NewNoGeneratedKeyError returns a new NoGeneratedKeyError.
func NewNoGeneratedKeyError(table string, err error) *NoGeneratedKeyError {
	return &NoGeneratedKeyError{Table: table, Err: err}
}

// NoRowsAffectedError is returned when an insert affects zero rows.
type NoRowsAffectedError struct {
	Table string
}

// Error returns the error string.
func (e *NoRowsAffectedError) Error() string {
	return fmt.Sprintf("dynrepo: insert into %s: no rows affected", e.Table)
}

// Is reports whether the target error matches ErrNoRowsAffected.
func (e *NoRowsAffectedError) Is(err error) bool {
	return err == ErrNoRowsAffected
}

// NewNoRowsAffectedError returns a new NoRowsAffectedError.
func NewNoRowsAffectedError(table string) *NoRowsAffectedError {
	return &NoRowsAffectedError{Table: table}
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("dynrepo: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Entity string // Entity type being queried
	Op     string // Operation (e.g., "get", "all", "iterate")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("dynrepo: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("dynrepo: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a mutation error with additional context.
type MutationError struct {
	Entity string // Entity type being mutated
	Op     string // Operation (e.g., "insert", "update", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("dynrepo: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
