package gen

import (
	"errors"
	"fmt"
)

// Sentinels matched by the error types of this package.
var (
	ErrInvalidSchema    = errors.New("gen: invalid schema")
	ErrMissingConfig    = errors.New("gen: missing configuration")
	ErrGenerationFailed = errors.New("gen: code generation failed")
)

// SchemaError reports an entity description that cannot be generated.
// Pos is the schema file the entity was loaded from, if any.
type SchemaError struct {
	Pos     string
	Entity  string
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	where := e.Entity
	if e.Field != "" {
		where += "." + e.Field
	}
	if e.Pos != "" {
		where = e.Pos + ": " + where
	}
	return fmt.Sprintf("gen: %s: %s", where, e.Message)
}

// Is matches ErrInvalidSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrInvalidSchema }

// ConfigError reports an unusable generator Config.
type ConfigError struct {
	Option  string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("gen: config %s: %s", e.Option, e.Message)
}

// Is matches ErrMissingConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrMissingConfig }

// GenerationError reports a failure to render, format or write a file.
type GenerationError struct {
	File string
	Op   string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("gen: %s %s: %v", e.Op, e.File, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Is matches ErrGenerationFailed.
func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// IsSchemaError reports whether err is, or wraps, a *SchemaError.
func IsSchemaError(err error) bool {
	var e *SchemaError
	return errors.As(err, &e)
}

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsGenerationError reports whether err is, or wraps, a *GenerationError.
func IsGenerationError(err error) bool {
	var e *GenerationError
	return errors.As(err, &e)
}
