package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Fields is a loosely typed bag of column or document values keyed by field name.
// Values arriving from JSON keep json.Number so coordinates and ids lose no precision.
type Fields map[string]any

// DecodeFields decodes a JSON object using UseNumber.
func DecodeFields(data []byte) (Fields, error) {
	if len(data) == 0 {
		return nil, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var result map[string]any
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return Fields(result), nil
}

// --- Type-safe getters ---

// GetString returns string value or empty string if not found/wrong type.
func (f Fields) GetString(key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

// GetInt returns the value as int64 when it holds an integral number.
func (f Fields) GetInt(key string) (int64, bool) {
	return CoerceInt(f[key])
}

// GetDecimal returns the value as a decimal when it holds a number or numeric string.
func (f Fields) GetDecimal(key string) (decimal.Decimal, bool) {
	return CoerceDecimal(f[key])
}

// Has checks if key exists (including nil values).
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Clone creates a shallow copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	result := make(Fields, len(f))
	for k, v := range f {
		result[k] = v
	}
	return result
}

// CoerceInt normalises the integer shapes produced by pgx, JSON and BSON.
func CoerceInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// CoerceDecimal normalises numeric shapes into a decimal.
func CoerceDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	}
	return decimal.Zero, false
}
