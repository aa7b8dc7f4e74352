package sieve

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/zoobzio/sieve/internal/fieldkind"
)

// DefaultTimeLayouts are tried in order when coercing date/time values.
var DefaultTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coercer converts raw filter text to typed values.
type Coercer struct {
	layouts []string
}

// NewCoercer returns a Coercer using layouts for date/time values, or
// DefaultTimeLayouts when none are given.
func NewCoercer(layouts ...string) Coercer {
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	return Coercer{layouts: append([]string(nil), layouts...)}
}

// Coerce converts raw to t using DefaultTimeLayouts.
func Coerce(raw string, t reflect.Type) (reflect.Value, error) {
	return NewCoercer().Coerce(raw, t)
}

// Coerce converts raw to a value of t. Pointer types coerce to their element
// type. Text is taken verbatim; other kinds ignore surrounding whitespace.
func (c Coercer) Coerce(raw string, t reflect.Type) (reflect.Value, error) {
	target := leafType(t)
	if target == nil {
		return reflect.Value{}, &UnsupportedFieldTypeError{Type: t}
	}
	out := reflect.New(target).Elem()
	trimmed := strings.TrimSpace(raw)

	switch kindOf(target) {
	case fieldkind.Text:
		out.SetString(raw)

	case fieldkind.Integer:
		n, err := strconv.ParseInt(trimmed, 10, target.Bits())
		if err != nil {
			return reflect.Value{}, &ValueParseError{Value: raw, Type: target, Err: err}
		}
		out.SetInt(n)

	case fieldkind.Bool:
		b, err := strconv.ParseBool(trimmed)
		if err != nil {
			return reflect.Value{}, &ValueParseError{Value: raw, Type: target, Err: err}
		}
		out.SetBool(b)

	case fieldkind.Time:
		ts, err := c.parseTime(trimmed)
		if err != nil {
			return reflect.Value{}, &ValueParseError{Value: raw, Type: target, Err: err}
		}
		out.Set(reflect.ValueOf(ts))

	case fieldkind.Enum:
		v, err := parseEnum(trimmed, target)
		if err != nil {
			return reflect.Value{}, &ValueParseError{Value: raw, Type: target, Err: err}
		}
		out.Set(v)

	default:
		return reflect.Value{}, &UnsupportedFieldTypeError{Type: t}
	}
	return out, nil
}

func (c Coercer) parseTime(s string) (time.Time, error) {
	layouts := c.layouts
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	var firstErr error
	for _, layout := range layouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func parseEnum(raw string, t reflect.Type) (reflect.Value, error) {
	if v, ok := lookupEnum(t, raw); ok {
		return v.Convert(t), nil
	}
	if isRegisteredEnum(t) {
		return reflect.Value{}, fmt.Errorf("unknown %s value %q", t.Name(), raw)
	}

	ptr := reflect.New(t)
	u, ok := ptr.Interface().(encoding.TextUnmarshaler)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%s does not decode from text", t)
	}
	if err := u.UnmarshalText([]byte(raw)); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

func kindOf(t reflect.Type) fieldkind.Kind {
	return fieldkind.Of(t, isRegisteredEnum)
}
