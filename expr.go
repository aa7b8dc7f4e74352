package sieve

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Expr is a predicate over a single record. Every node evaluates against the
// same record, so trees built independently combine without rebinding.
// A nil Expr matches every record.
type Expr interface {
	Match(record reflect.Value) bool
	String() string
}

// Compare tests the value at Path against Value.
type Compare struct {
	Path      FieldPath
	Condition Condition
	Value     reflect.Value
}

// Match reports false when any pointer on the path, including the leaf, is nil.
func (c *Compare) Match(record reflect.Value) bool {
	v, ok := c.Path.value(record)
	if !ok {
		return false
	}

	switch c.Condition {
	case Contains, StartsWith, EndsWith:
		if v.Kind() != reflect.String {
			return false
		}
		s, sub := v.String(), c.Value.String()
		switch c.Condition {
		case Contains:
			return strings.Contains(s, sub)
		case StartsWith:
			return strings.HasPrefix(s, sub)
		default:
			return strings.HasSuffix(s, sub)
		}
	}

	n, ok := order(v, c.Value)
	if !ok {
		return false
	}
	switch c.Condition {
	case Equals:
		return n == 0
	case GreaterThan:
		return n > 0
	case LessThan:
		return n < 0
	case GreaterOrEqual:
		return n >= 0
	case LessOrEqual:
		return n <= 0
	}
	return false
}

func (c *Compare) String() string {
	return fmt.Sprintf("%s %s %s", c.Path, c.Condition, formatValue(c.Value))
}

// And matches when both operands match.
type And struct {
	Left, Right Expr
}

func (e *And) Match(record reflect.Value) bool {
	return matches(e.Left, record) && matches(e.Right, record)
}

func (e *And) String() string {
	return "(" + exprString(e.Left) + " AND " + exprString(e.Right) + ")"
}

// Or matches when either operand matches.
type Or struct {
	Left, Right Expr
}

func (e *Or) Match(record reflect.Value) bool {
	return matches(e.Left, record) || matches(e.Right, record)
}

func (e *Or) String() string {
	return "(" + exprString(e.Left) + " OR " + exprString(e.Right) + ")"
}

// Not inverts its operand.
type Not struct {
	Operand Expr
}

func (e *Not) Match(record reflect.Value) bool {
	return !matches(e.Operand, record)
}

func (e *Not) String() string {
	return "NOT " + exprString(e.Operand)
}

// Func is an opaque Go predicate. Stores that translate expressions cannot
// push it down and evaluate it after fetching.
type Func struct {
	Name string
	fn   func(reflect.Value) bool
}

// NewFunc wraps fn as an expression over records of type T.
func NewFunc[T any](name string, fn func(T) bool) *Func {
	return &Func{
		Name: name,
		fn: func(v reflect.Value) bool {
			t, ok := v.Interface().(T)
			if !ok {
				return false
			}
			return fn(t)
		},
	}
}

func (e *Func) Match(record reflect.Value) bool {
	if e.fn == nil || !record.IsValid() {
		return false
	}
	return e.fn(record)
}

func (e *Func) String() string { return e.Name + "()" }

// AllOf conjoins exprs left to right, skipping nils.
func AllOf(exprs ...Expr) Expr {
	var out Expr
	for _, e := range exprs {
		switch {
		case e == nil:
		case out == nil:
			out = e
		default:
			out = &And{Left: out, Right: e}
		}
	}
	return out
}

// AnyOf disjoins exprs left to right. A nil operand matches everything, so
// any nil makes the result nil.
func AnyOf(exprs ...Expr) Expr {
	var out Expr
	for i, e := range exprs {
		if e == nil {
			return nil
		}
		if i == 0 {
			out = e
			continue
		}
		out = &Or{Left: out, Right: e}
	}
	return out
}

// Negate returns NOT e. Negating nil yields an expression that matches nothing.
func Negate(e Expr) Expr {
	return &Not{Operand: e}
}

// Matches evaluates e against record.
func Matches(e Expr, record any) bool {
	return matches(e, reflect.ValueOf(record))
}

func matches(e Expr, record reflect.Value) bool {
	return e == nil || e.Match(record)
}

func exprString(e Expr) string {
	if e == nil {
		return "TRUE"
	}
	return e.String()
}

// Walk visits e depth first. Returning false from fn skips the children.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *And:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Or:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Not:
		Walk(n.Operand, fn)
	}
}

// Conjuncts splits e into the operands of its top-level AND chain.
func Conjuncts(e Expr) []Expr {
	if e == nil {
		return nil
	}
	if and, ok := e.(*And); ok {
		return append(Conjuncts(and.Left), Conjuncts(and.Right)...)
	}
	return []Expr{e}
}

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	if t, ok := v.Interface().(time.Time); ok {
		return t.Format(time.RFC3339Nano)
	}
	if v.Kind() == reflect.String {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
		return strconv.Quote(v.String())
	}
	return fmt.Sprint(v.Interface())
}
