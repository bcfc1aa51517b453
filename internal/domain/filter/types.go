// Package filter describes plaintext predicates over relational columns.
// Predicates never target encrypted columns: those go through the scan lookup.
package filter

import "fmt"

// ComparisonType is the comparison applied by one Item.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	LessOrEqual    ComparisonType = "lte"
	Greater        ComparisonType = "gt"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Contains       ComparisonType = "contains"  // ILIKE %val%
	NotContains    ComparisonType = "ncontains" // NOT ILIKE %val%

	IsNull    ComparisonType = "null"
	IsNotNull ComparisonType = "not_null"

	// EqualOrNull matches the value or a missing one. Blind-index narrowing uses it
	// so rows written before the index existed stay visible to the scan.
	EqualOrNull ComparisonType = "eq_or_null"
)

// Item is one predicate line.
type Item struct {
	Field    string         `json:"field"`    // column name (snake_case)
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Eq is shorthand for an Equal item.
func Eq(field string, value any) Item {
	return Item{Field: field, Operator: Equal, Value: value}
}

// Ne is shorthand for a NotEqual item.
func Ne(field string, value any) Item {
	return Item{Field: field, Operator: NotEqual, Value: value}
}

// Valid reports whether op is a known operator.
func (op ComparisonType) Valid() bool {
	switch op {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual,
		InList, NotInList, Contains, NotContains, IsNull, IsNotNull, EqualOrNull:
		return true
	}
	return false
}

// Validate checks the operator and that list operators carry a slice value.
func (i Item) Validate() error {
	if i.Field == "" {
		return fmt.Errorf("filter field is empty")
	}
	if !i.Operator.Valid() {
		return fmt.Errorf("unknown filter operator %q", i.Operator)
	}
	if i.Operator == InList || i.Operator == NotInList {
		switch i.Value.(type) {
		case []any, []int64, []string:
		default:
			return fmt.Errorf("operator %s on %s requires a list value", i.Operator, i.Field)
		}
	}
	return nil
}
