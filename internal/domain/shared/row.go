package shared

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Row is a single result row keyed by column name.
// Drivers disagree on Go types (SQLite returns int64 for booleans, PostgreSQL
// returns strings for NUMERIC), so typed accessors coerce on read.
type Row map[string]any

// Has reports whether the row contains the column
func (r Row) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// IsNull reports whether the column is absent or NULL
func (r Row) IsNull(col string) bool {
	v, ok := r[col]
	return !ok || v == nil
}

// Int64 returns the column as int64, 0 for NULL
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case nil:
		return 0
	case []byte:
		return cast.ToInt64(string(v))
	default:
		return cast.ToInt64(v)
	}
}

// String returns the column as string, "" for NULL
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case []byte:
		return string(v)
	default:
		return cast.ToString(v)
	}
}

// StringPtr returns the column as *string, nil for NULL
func (r Row) StringPtr(col string) *string {
	if r.IsNull(col) {
		return nil
	}
	s := r.String(col)
	return &s
}

// Int64Ptr returns the column as *int64, nil for NULL
func (r Row) Int64Ptr(col string) *int64 {
	if r.IsNull(col) {
		return nil
	}
	n := r.Int64(col)
	return &n
}

// Bool returns the column as bool, false for NULL
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []byte:
		return cast.ToBool(string(v))
	default:
		return cast.ToBool(v)
	}
}

// Decimal returns the column as decimal, zero for NULL or unparsable values
func (r Row) Decimal(col string) decimal.Decimal {
	switch v := r[col].(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case int64:
		return decimal.NewFromInt(v)
	case float64:
		return decimal.NewFromFloat(v)
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		d, err := decimal.NewFromString(cast.ToString(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
}

// Time returns the column as time.Time, zero for NULL
func (r Row) Time(col string) time.Time {
	switch v := r[col].(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return v
	case []byte:
		return cast.ToTime(string(v))
	default:
		return cast.ToTime(v)
	}
}
