package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/syssam/dynrepo/dialect/sql"
	"github.com/syssam/dynrepo/schema/field"
)

// Record is a scanned row addressed by column name. Column names are
// compared case-insensitively.
type Record struct {
	index  map[string]int
	values []any
}

// NewRecord returns a record holding values in the order of columns.
func NewRecord(columns []string, values []any) *Record {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[strings.ToLower(c)] = i
	}
	return &Record{index: index, values: values}
}

// Value returns the raw driver value of a column.
func (r *Record) Value(column string) (any, error) {
	i, ok := r.index[strings.ToLower(column)]
	if !ok {
		return nil, fmt.Errorf("codec: column %q not in result set", column)
	}
	return r.values[i], nil
}

// Bool returns the value of a boolean column. NULL reads as false.
func (r *Record) Bool(column string) (bool, error) {
	v, err := r.Value(column)
	if err != nil {
		return false, err
	}
	b, err := decodeBool(column, v)
	if err != nil {
		return false, err
	}
	return b.(bool), nil
}

// Int64 returns the value of an integer column. NULL reads as 0.
func (r *Record) Int64(column string) (int64, error) {
	v, err := r.Value(column)
	if err != nil {
		return 0, err
	}
	return decodeInt(column, field.TypeInt64, v)
}

// String returns the value of a text column. NULL reads as "".
func (r *Record) String(column string) (string, error) {
	v, err := r.Value(column)
	if err != nil {
		return "", err
	}
	s, err := decodePrimitive(column, field.TypeString, v)
	if err != nil {
		return "", err
	}
	return s.(string), nil
}

// Time returns the value of a time column. NULL reads as the zero time.
func (r *Record) Time(column string) (time.Time, error) {
	v, err := r.Value(column)
	if err != nil {
		return time.Time{}, err
	}
	t, err := decodeTime(column, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.(time.Time), nil
}

// Scanner reads the rows of a cursor into records. The column list is
// read once, on the first row.
type Scanner struct {
	rows    sql.ColumnScanner
	columns []string
}

// NewScanner returns a Scanner over rows.
func NewScanner(rows sql.ColumnScanner) *Scanner {
	return &Scanner{rows: rows}
}

// Next advances the cursor and returns the next record, or nil at the end
// of the result set. The cursor error, if any, is returned at the end.
func (s *Scanner) Next() (*Record, error) {
	if !s.rows.Next() {
		return nil, s.rows.Err()
	}
	if s.columns == nil {
		columns, err := s.rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("codec: reading columns: %w", err)
		}
		s.columns = columns
	}
	values := make([]any, len(s.columns))
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := s.rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("codec: scanning row: %w", err)
	}
	return NewRecord(s.columns, values), nil
}

// All reads the remaining rows into records.
func (s *Scanner) All() ([]*Record, error) {
	var records []*Record
	for {
		rec, err := s.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return records, nil
		}
		records = append(records, rec)
	}
}
