package sieve

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/zoobzio/sieve/internal/fieldkind"
)

// allowedConditions is the closed table of legal conditions per field kind.
var allowedConditions = map[fieldkind.Kind][]Condition{
	fieldkind.Text:    {Equals, Contains, StartsWith, EndsWith},
	fieldkind.Integer: {Equals, GreaterThan, LessThan, GreaterOrEqual, LessOrEqual},
	fieldkind.Time:    {Equals, GreaterThan, LessThan, GreaterOrEqual, LessOrEqual},
	fieldkind.Bool:    {Equals},
	fieldkind.Enum:    {Equals},
}

// ConditionsFor lists the conditions legal for fields of type t.
func ConditionsFor(t reflect.Type) []Condition {
	return slices.Clone(allowedConditions[kindOf(leafType(t))])
}

// Compile builds a comparison of the value at path against value. value must
// have the path's leaf type, as produced by Coerce.
func Compile(path FieldPath, cond Condition, value reflect.Value) (Expr, error) {
	if !cond.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCondition, int(cond))
	}
	if path.IsZero() {
		return nil, &FieldNotFoundError{Type: path.Root()}
	}

	leaf := leafType(path.Type())
	if !slices.Contains(allowedConditions[kindOf(leaf)], cond) {
		return nil, &UnsupportedConditionError{FieldType: path.Type(), Condition: cond}
	}

	if !value.IsValid() {
		return nil, &FieldTypeMismatchError{Field: path.String(), Target: leaf}
	}
	if value.Type() != leaf {
		if kindOf(value.Type()) != kindOf(leaf) || !value.Type().ConvertibleTo(leaf) {
			return nil, &FieldTypeMismatchError{Field: path.String(), Source: value.Type(), Target: leaf}
		}
		value = value.Convert(leaf)
	}

	return &Compare{Path: path, Condition: cond, Value: value}, nil
}

// CompileCriterion resolves, coerces and compiles one criterion against root.
func CompileCriterion(root reflect.Type, mapping Mapping, coercer Coercer, c FilterCriterion) (Expr, error) {
	path, err := mapping.Resolve(root, c.Column)
	if err != nil {
		return nil, err
	}
	value, err := coercer.Coerce(c.Value, path.Type())
	if err != nil {
		return nil, err
	}
	return Compile(path, c.Condition, value)
}

// ApplyFilters compiles each criterion in order and conjoins the results.
// The first failure rejects the whole set. An empty set yields nil, which
// matches everything.
func ApplyFilters(root reflect.Type, mapping Mapping, coercer Coercer, filters []FilterCriterion) (Expr, error) {
	exprs := make([]Expr, 0, len(filters))
	for i, f := range filters {
		e, err := CompileCriterion(root, mapping, coercer, f)
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s): %w", i, f.Column, err)
		}
		exprs = append(exprs, e)
	}
	return AllOf(exprs...), nil
}
