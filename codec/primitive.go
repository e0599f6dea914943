package codec

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/dynrepo"
	"github.com/syssam/dynrepo/schema/field"
)

// timeLayouts are tried in order when a time column is returned as text.
// The second and third layouts are the ones SQLite drivers write.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// decodePrimitive converts a driver value to the Go value of the field type.
// NULL decodes to the zero value of the type.
func decodePrimitive(name string, typ field.Type, v any) (any, error) {
	switch typ {
	case field.TypeBool:
		return decodeBool(name, v)
	case field.TypeInt, field.TypeInt32, field.TypeInt64:
		n, err := decodeInt(name, typ, v)
		if err != nil {
			return nil, err
		}
		switch typ {
		case field.TypeInt:
			return int(n), nil
		case field.TypeInt32:
			return int32(n), nil
		}
		return n, nil
	case field.TypeString:
		switch v := v.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
	case field.TypeTime:
		return decodeTime(name, v)
	}
	return nil, dynrepo.NewUnsupportedTypeError(name, typ.String(), v)
}

func decodeBool(name string, v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
	case []byte:
		if b, err := strconv.ParseBool(string(v)); err == nil {
			return b, nil
		}
	}
	return nil, dynrepo.NewUnsupportedTypeError(name, field.TypeBool.String(), v)
}

func decodeInt(name string, typ field.Type, v any) (int64, error) {
	var (
		n  int64
		ok bool
	)
	switch v := v.(type) {
	case nil:
		n, ok = 0, true
	case int64:
		n, ok = v, true
	case float64:
		if v == math.Trunc(v) {
			n, ok = int64(v), true
		}
	case string:
		if x, err := strconv.ParseInt(v, 10, 64); err == nil {
			n, ok = x, true
		}
	case []byte:
		if x, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			n, ok = x, true
		}
	}
	if ok && typ == field.TypeInt32 && (n < math.MinInt32 || n > math.MaxInt32) {
		ok = false
	}
	if !ok {
		return 0, dynrepo.NewUnsupportedTypeError(name, typ.String(), v)
	}
	return n, nil
}

func decodeTime(name string, v any) (any, error) {
	var s string
	switch v := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil, dynrepo.NewUnsupportedTypeError(name, field.TypeTime.String(), v)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return nil, dynrepo.NewUnsupportedTypeError(name, field.TypeTime.String(), v)
}

// encodePrimitive converts a Go value to the driver value of the field
// type. Integers of any width are accepted for integer fields, so that
// query predicates can be written with untyped constants.
func encodePrimitive(name string, typ field.Type, v any) (any, error) {
	switch typ {
	case field.TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case field.TypeInt, field.TypeInt32, field.TypeInt64:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case field.TypeString:
		if s, ok := toString(v); ok {
			return s, nil
		}
	case field.TypeTime:
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	}
	return nil, dynrepo.NewUnsupportedTypeError(name, typ.String(), v)
}

func toInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint()), true
	case reflect.Uint, reflect.Uint64:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u), true
		}
	}
	return 0, false
}

// toString accepts strings and named string types, such as enum types.
func toString(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}
