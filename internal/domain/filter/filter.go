// Package filter describes catalog pre-filters pushed down to KNN queries.
package filter

import "fmt"

// MaxAnyOf is the maximum number of alternatives in one any-of group.
const MaxAnyOf = 32

// Expression is a conjunction of conditions plus one optional any-of group.
type Expression struct {
	all   []Condition
	anyOf []Condition
}

// NewExpression validates and creates an Expression.
func NewExpression(all, anyOf []Condition) (Expression, error) {
	if len(anyOf) > MaxAnyOf {
		return Expression{}, fmt.Errorf("too many alternatives (max %d)", MaxAnyOf)
	}
	return Expression{all: all, anyOf: anyOf}, nil
}

// All returns the conditions every hit must satisfy.
func (e Expression) All() []Condition { return e.all }

// AnyOf returns the alternatives of which at least one must hold.
func (e Expression) AnyOf() []Condition { return e.anyOf }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.all) == 0 && len(e.anyOf) == 0 }

// Condition is a tag match or a lower numeric bound.
type Condition struct {
	key   string
	tag   string
	floor *float64
}

// Tag creates an exact tag match condition.
func Tag(key, value string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("tag value is required for key %q", key)
	}
	return Condition{key: key, tag: value}, nil
}

// AtLeast creates an inclusive lower bound on a numeric field.
func AtLeast(key string, floor float64) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, floor: &floor}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// TagValue returns the tag to match.
func (c Condition) TagValue() string { return c.tag }

// Floor returns the numeric lower bound, or nil.
func (c Condition) Floor() *float64 { return c.floor }

// IsTag reports whether this is a tag condition.
func (c Condition) IsTag() bool { return c.tag != "" }
