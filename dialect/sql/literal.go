package sql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/dynrepo/dialect"
)

// escapeStringValue escapes a string value for safe use in SQL.
// Single quotes are doubled. MySQL also treats backslash as an escape
// character, so it is doubled there and left alone elsewhere.
func escapeStringValue(dia, s string) string {
	// Fast path: if no escaping needed, return as-is
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	if dia == dialect.MySQL {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return strings.ReplaceAll(s, "'", "''")
}

// Literal renders a driver value as an SQL literal. Strings and times are
// quoted, booleans render as TRUE/FALSE and numbers in decimal form.
func Literal(dia string, v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + escapeStringValue(dia, v) + "'", nil
	case []byte:
		return "'" + escapeStringValue(dia, string(v)) + "'", nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case time.Time:
		return "'" + v.Format(time.RFC3339Nano) + "'", nil
	case fmt.Stringer:
		return "'" + escapeStringValue(dia, v.String()) + "'", nil
	default:
		return "", fmt.Errorf("dialect/sql: unsupported literal type %T", v)
	}
}
