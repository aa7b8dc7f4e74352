// Package fieldkind classifies Go types into the comparison kinds used when
// compiling filters and sort keys.
// Classification goes through atom's storage tables so that the same taxonomy
// governs in-memory evaluation and SQL column inference.
package fieldkind

import (
	"encoding"
	"reflect"
	"time"

	"github.com/zoobzio/atom"
)

// Kind is the comparison family of a field type.
type Kind uint8

// Supported kinds.
const (
	Unsupported Kind = iota
	Text
	Integer
	Unsigned
	Float
	Bool
	Time
	Enum
	Bytes
)

var kindNames = [...]string{
	Unsupported: "unsupported",
	Text:        "text",
	Integer:     "integer",
	Unsigned:    "unsigned",
	Float:       "float",
	Bool:        "boolean",
	Time:        "date-time",
	Enum:        "enum",
	Bytes:       "bytes",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unsupported"
}

// Orderable reports whether values of this kind have a total order.
func (k Kind) Orderable() bool {
	switch k {
	case Text, Integer, Unsigned, Float, Bool, Time, Enum:
		return true
	}
	return false
}

var (
	timeType            = reflect.TypeFor[time.Time]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Of classifies t. Pointer types classify as their element.
// registered reports whether a type was explicitly registered as an enumeration;
// it may be nil.
func Of(t reflect.Type, registered func(reflect.Type) bool) Kind {
	if t == nil {
		return Unsupported
	}
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if IsEnum(base, registered) {
		return Enum
	}

	table, _ := Table(t)
	switch baseTable(table) {
	case atom.TableStrings:
		return Text
	case atom.TableInts:
		return Integer
	case atom.TableUints:
		return Unsigned
	case atom.TableFloats:
		return Float
	case atom.TableBools:
		return Bool
	case atom.TableTimes:
		return Time
	case atom.TableBytes:
		return Bytes
	}
	return Unsupported
}

// IsEnum reports whether t is an enumeration: a registered type, or a named
// integer type whose pointer decodes itself from text.
func IsEnum(t reflect.Type, registered func(reflect.Type) bool) bool {
	if registered != nil && registered(t) {
		return true
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.PointerTo(t).Implements(textUnmarshalerType)
	}
	return false
}

// Table maps t to its atom.Table.
// Returns the table and whether the type is nullable (pointer).
func Table(t reflect.Type) (atom.Table, bool) {
	if t.Kind() == reflect.Pointer {
		elem := t.Elem()
		if elem.Kind() == reflect.Slice && elem.Elem().Kind() == reflect.Uint8 {
			return atom.TableBytePtrs, true
		}
		if table, ok := scalarTable(elem); ok {
			return pointerTable(table), true
		}
		return "", false
	}

	if (t.Kind() == reflect.Slice || t.Kind() == reflect.Array) && t.Elem().Kind() == reflect.Uint8 {
		return atom.TableBytes, false
	}

	if table, ok := scalarTable(t); ok {
		return table, false
	}
	return "", false
}

func scalarTable(t reflect.Type) (atom.Table, bool) {
	switch t.Kind() {
	case reflect.String:
		return atom.TableStrings, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return atom.TableInts, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return atom.TableUints, true
	case reflect.Float32, reflect.Float64:
		return atom.TableFloats, true
	case reflect.Bool:
		return atom.TableBools, true
	}

	if t == timeType {
		return atom.TableTimes, true
	}
	return "", false
}

func pointerTable(base atom.Table) atom.Table {
	switch base {
	case atom.TableStrings:
		return atom.TableStringPtrs
	case atom.TableInts:
		return atom.TableIntPtrs
	case atom.TableUints:
		return atom.TableUintPtrs
	case atom.TableFloats:
		return atom.TableFloatPtrs
	case atom.TableBools:
		return atom.TableBoolPtrs
	case atom.TableTimes:
		return atom.TableTimePtrs
	case atom.TableBytes:
		return atom.TableBytePtrs
	default:
		return ""
	}
}

// baseTable strips the pointer variant off a table.
func baseTable(table atom.Table) atom.Table {
	switch table {
	case atom.TableStringPtrs:
		return atom.TableStrings
	case atom.TableIntPtrs:
		return atom.TableInts
	case atom.TableUintPtrs:
		return atom.TableUints
	case atom.TableFloatPtrs:
		return atom.TableFloats
	case atom.TableBoolPtrs:
		return atom.TableBools
	case atom.TableTimePtrs:
		return atom.TableTimes
	case atom.TableBytePtrs:
		return atom.TableBytes
	default:
		return table
	}
}
