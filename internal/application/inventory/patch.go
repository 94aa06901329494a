package inventory

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/erp/pos-backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// columnKind decides how a patch value is coerced before binding
type columnKind int

const (
	kindText columnKind = iota
	kindNullableText
	kindMoney
	kindCount
	kindFlag
)

// updatableColumns is the allow-list for UpdateProduct. Stock quantity is
// deliberately absent: it only changes through AdjustStock.
var updatableColumns = map[string]columnKind{
	"sku":              kindText,
	"barcode":          kindNullableText,
	"name":             kindText,
	"description":      kindNullableText,
	"category":         kindNullableText,
	"brand":            kindNullableText,
	"unit":             kindText,
	"cost_price":       kindMoney,
	"selling_price":    kindMoney,
	"vat_rate":         kindMoney,
	"is_vat_inclusive": kindFlag,
	"reorder_level":    kindCount,
	"max_stock_level":  kindCount,
	"is_active":        kindFlag,
	"is_service":       kindFlag,
	"image_url":        kindNullableText,
}

// assignment is one validated column = value pair
type assignment struct {
	column string
	value  any
}

// normalizePatch validates every key against the allow-list and coerces values.
// Assignments come back sorted by column so generated statements are stable.
func normalizePatch(patch ProductPatch) ([]assignment, error) {
	if len(patch) == 0 {
		return nil, shared.Invalid("No fields to update")
	}

	columns := make([]string, 0, len(patch))
	for col := range patch {
		if _, ok := updatableColumns[col]; !ok {
			return nil, shared.Invalid(fmt.Sprintf("Field %q cannot be updated", col))
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	out := make([]assignment, 0, len(columns))
	for _, col := range columns {
		v, err := coerce(col, updatableColumns[col], patch[col])
		if err != nil {
			return nil, err
		}
		out = append(out, assignment{column: col, value: v})
	}
	return out, nil
}

func coerce(col string, kind columnKind, raw any) (any, error) {
	invalid := func(what string) error {
		return shared.Invalid(fmt.Sprintf("Field %q %s", col, what))
	}

	if raw == nil {
		if kind == kindNullableText {
			return nil, nil
		}
		return nil, invalid("cannot be null")
	}

	switch kind {
	case kindText, kindNullableText:
		s, ok := raw.(string)
		if !ok {
			return nil, invalid("must be a string")
		}
		if strings.TrimSpace(s) == "" {
			if kind == kindNullableText {
				return nil, nil
			}
			return nil, invalid("cannot be empty")
		}
		return s, nil

	case kindMoney:
		d, err := decimal.NewFromString(cast.ToString(raw))
		if err != nil {
			return nil, invalid("must be a number")
		}
		if d.IsNegative() {
			return nil, invalid("cannot be negative")
		}
		return d, nil

	case kindCount:
		if f, ok := raw.(float64); ok {
			if f != math.Trunc(f) {
				return nil, invalid("must be an integer")
			}
			// float64(math.MaxInt64) rounds up to 2^63, which is already out of range
			if f >= math.MaxInt64 || f < math.MinInt64 {
				return nil, invalid("is out of range")
			}
		}
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return nil, invalid("must be an integer")
		}
		if n < 0 {
			return nil, invalid("cannot be negative")
		}
		return n, nil

	default:
		b, ok := raw.(bool)
		if !ok {
			return nil, invalid("must be a boolean")
		}
		return b, nil
	}
}
