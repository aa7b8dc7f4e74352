package sieve

import (
	"errors"
	"fmt"
	"reflect"
)

// Errors raised while compiling a request. All of them are returned before
// the store is touched.
var (
	// ErrFieldNotFound is returned when a column or path segment does not name a field.
	ErrFieldNotFound = errors.New("field not found")

	// ErrUnsupportedFieldType is returned when a value cannot be coerced to, or ordered by, a field's type.
	ErrUnsupportedFieldType = errors.New("unsupported field type")

	// ErrValueParse is returned when a raw value is malformed for its target type.
	ErrValueParse = errors.New("value cannot be parsed")

	// ErrUnsupportedCondition is returned when a condition is not legal for a field's kind.
	ErrUnsupportedCondition = errors.New("unsupported condition")

	// ErrInvalidCondition is returned for condition codes or names outside the enumeration.
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrFieldTypeMismatch is returned when a projected or compared type is not assignable.
	ErrFieldTypeMismatch = errors.New("field type mismatch")

	// ErrInvalidPageRequest is returned for negative or oversized page parameters.
	ErrInvalidPageRequest = errors.New("invalid page request")
)

// Errors raised by terminal query operations.
var (
	// ErrNotFound is returned by First and Single when nothing matches.
	ErrNotFound = errors.New("record not found")

	// ErrMultipleRecords is returned by Single when more than one record matches.
	ErrMultipleRecords = errors.New("expected exactly one record, found multiple")

	// ErrNilStore is returned when a query has no store to run against.
	ErrNilStore = errors.New("store is nil")

	// ErrWindowedQuery is returned when criteria or ordering are added to a
	// query after Skip or Take.
	ErrWindowedQuery = errors.New("query is already windowed")
)

// FieldNotFoundError carries the segment that failed to resolve and the type
// it was looked up on.
type FieldNotFoundError struct {
	Field string
	Type  reflect.Type
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found on %s", e.Field, typeName(e.Type))
}

func (e *FieldNotFoundError) Unwrap() error { return ErrFieldNotFound }

// UnsupportedFieldTypeError names a type with no coercion or ordering rule.
type UnsupportedFieldTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedFieldTypeError) Error() string {
	return fmt.Sprintf("unsupported field type %s", typeName(e.Type))
}

func (e *UnsupportedFieldTypeError) Unwrap() error { return ErrUnsupportedFieldType }

// ValueParseError carries the raw value and the type it failed to parse as.
type ValueParseError struct {
	Value string
	Type  reflect.Type
	Err   error
}

func (e *ValueParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse %q as %s: %v", e.Value, typeName(e.Type), e.Err)
	}
	return fmt.Sprintf("cannot parse %q as %s", e.Value, typeName(e.Type))
}

func (e *ValueParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValueParse, e.Err}
	}
	return []error{ErrValueParse}
}

// UnsupportedConditionError names a condition that is illegal for a field type.
type UnsupportedConditionError struct {
	FieldType reflect.Type
	Condition Condition
}

func (e *UnsupportedConditionError) Error() string {
	return fmt.Sprintf("condition %s is not supported for %s", e.Condition, typeName(e.FieldType))
}

func (e *UnsupportedConditionError) Unwrap() error { return ErrUnsupportedCondition }

// FieldTypeMismatchError reports a source type that cannot be assigned to a target.
type FieldTypeMismatchError struct {
	Field  string
	Source reflect.Type
	Target reflect.Type
}

func (e *FieldTypeMismatchError) Error() string {
	return fmt.Sprintf("field %q: %s is not assignable to %s", e.Field, typeName(e.Source), typeName(e.Target))
}

func (e *FieldTypeMismatchError) Unwrap() error { return ErrFieldTypeMismatch }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
