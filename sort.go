package sieve

import (
	"cmp"
	"reflect"
	"slices"
	"time"
)

// SortKey orders records by the value at Path.
type SortKey struct {
	Path       FieldPath
	Descending bool
}

// CompileSort builds a key over path. The leaf type must be orderable.
func CompileSort(path FieldPath, descending bool) (SortKey, error) {
	if path.IsZero() {
		return SortKey{}, &FieldNotFoundError{Field: "", Type: path.Root()}
	}
	if !kindOf(leafType(path.Type())).Orderable() {
		return SortKey{}, &UnsupportedFieldTypeError{Type: path.Type()}
	}
	return SortKey{Path: path, Descending: descending}, nil
}

// Compare orders two records by this key. Absent values sort first in
// ascending order and last in descending order.
func (k SortKey) Compare(a, b reflect.Value) int {
	av, aok := k.Path.value(a)
	bv, bok := k.Path.value(b)

	var n int
	switch {
	case !aok && !bok:
		n = 0
	case !aok:
		n = -1
	case !bok:
		n = 1
	default:
		n, _ = order(av, bv)
	}
	if k.Descending {
		return -n
	}
	return n
}

func (k SortKey) String() string {
	if k.Descending {
		return k.Path.String() + " DESC"
	}
	return k.Path.String() + " ASC"
}

// SortRecords stable-sorts records by keys applied in sequence.
func SortRecords[T any](records []T, keys []SortKey) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(records, func(a, b T) int {
		av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
		for _, k := range keys {
			if n := k.Compare(av, bv); n != 0 {
				return n
			}
		}
		return 0
	})
}

var timeType = reflect.TypeFor[time.Time]()

// order compares two non-pointer values of the same kind.
func order(a, b reflect.Value) (int, bool) {
	if a.Type() == timeType && b.Type() == timeType {
		at, _ := a.Interface().(time.Time)
		bt, _ := b.Interface().(time.Time)
		return at.Compare(bt), true
	}
	if a.Kind() != b.Kind() {
		return 0, false
	}

	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint()), true
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float()), true
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0, true
		case b.Bool():
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}
