package sieve

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Condition is the comparison applied by a filter criterion.
// The numeric codes are part of the wire format and must not change.
type Condition int

// Conditions.
const (
	Equals Condition = iota + 1
	Contains
	StartsWith
	EndsWith
	GreaterThan
	LessThan
	GreaterOrEqual
	LessOrEqual
)

var conditionNames = [...]string{
	Equals:         "Equals",
	Contains:       "Contains",
	StartsWith:     "StartsWith",
	EndsWith:       "EndsWith",
	GreaterThan:    "GreaterThan",
	LessThan:       "LessThan",
	GreaterOrEqual: "GreaterOrEqual",
	LessOrEqual:    "LessOrEqual",
}

// conditionAliases maps lower-cased names accepted on input to their condition.
var conditionAliases = map[string]Condition{
	"greaterthanorequal": GreaterOrEqual,
	"lessthanorequal":    LessOrEqual,
}

// Valid reports whether c is one of the defined conditions.
func (c Condition) Valid() bool {
	return c >= Equals && c <= LessOrEqual
}

func (c Condition) String() string {
	if c.Valid() {
		return conditionNames[c]
	}
	return "Condition(" + strconv.Itoa(int(c)) + ")"
}

// ParseCondition accepts a symbolic name (case-insensitive) or a numeric code.
func ParseCondition(s string) (Condition, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		c := Condition(n)
		if !c.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidCondition, n)
		}
		return c, nil
	}

	lower := strings.ToLower(s)
	for c := Equals; c <= LessOrEqual; c++ {
		if strings.ToLower(conditionNames[c]) == lower {
			return c, nil
		}
	}
	if c, ok := conditionAliases[lower]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCondition, s)
}

// MarshalText encodes the symbolic name.
func (c Condition) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCondition, int(c))
	}
	return []byte(conditionNames[c]), nil
}

// UnmarshalText decodes a symbolic name or numeric code.
func (c *Condition) UnmarshalText(text []byte) error {
	parsed, err := ParseCondition(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (c *Condition) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidCondition, data)
		}
		return c.UnmarshalText([]byte(s))
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCondition, data)
	}
	parsed := Condition(n)
	if !parsed.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCondition, n)
	}
	*c = parsed
	return nil
}

// FilterCriterion is a single (column, value, condition) filter as it arrives
// from a caller. Column is a logical name that may be remapped to a nested
// source path; Value is always raw text and is coerced against the resolved
// field's type.
type FilterCriterion struct {
	Column    string    `json:"column"`
	Value     string    `json:"value"`
	Condition Condition `json:"condition"`
}

func (f FilterCriterion) String() string {
	return fmt.Sprintf("%s %s %q", f.Column, f.Condition, f.Value)
}
