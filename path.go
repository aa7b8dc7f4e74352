package sieve

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Step is one field access along a FieldPath.
type Step struct {
	Name  string
	Type  reflect.Type
	index []int
}

// FieldPath is a resolved, ordered list of field accesses starting at a root
// struct type. Paths are computed once and replayed against records.
type FieldPath struct {
	root  reflect.Type
	steps []Step
}

// Resolve walks a dotted path such as "Author.FirstName" from root.
// Pointer-to-struct steps are followed. A lowerCamelCase segment is matched
// against its exported spelling.
func Resolve(root reflect.Type, path string) (FieldPath, error) {
	if root == nil {
		return FieldPath{}, &FieldNotFoundError{Field: path, Type: root}
	}
	base := root
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	fp := FieldPath{root: base}
	current := base
	for _, segment := range strings.Split(path, ".") {
		for current.Kind() == reflect.Pointer {
			current = current.Elem()
		}
		name := exportName(strings.TrimSpace(segment))
		if current.Kind() != reflect.Struct || name == "" {
			return FieldPath{}, &FieldNotFoundError{Field: segment, Type: current}
		}
		sf, ok := current.FieldByName(name)
		if !ok || !sf.IsExported() {
			return FieldPath{}, &FieldNotFoundError{Field: segment, Type: current}
		}
		fp.steps = append(fp.steps, Step{Name: sf.Name, Type: sf.Type, index: sf.Index})
		current = sf.Type
	}
	return fp, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve(root reflect.Type, path string) FieldPath {
	fp, err := Resolve(root, path)
	if err != nil {
		panic(err)
	}
	return fp
}

// exportName upper-cases the first rune of name.
func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// String returns the dotted form, e.g. "Author.FirstName".
func (p FieldPath) String() string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return strings.Join(names, ".")
}

// IsZero reports whether p was never resolved.
func (p FieldPath) IsZero() bool { return len(p.steps) == 0 }

// Root is the struct type the path starts from.
func (p FieldPath) Root() reflect.Type { return p.root }

// Type is the declared type of the last step.
func (p FieldPath) Type() reflect.Type {
	if len(p.steps) == 0 {
		return nil
	}
	return p.steps[len(p.steps)-1].Type
}

// Steps returns a copy of the path's steps.
func (p FieldPath) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Len is the number of steps.
func (p FieldPath) Len() int { return len(p.steps) }

// Get reads the path from record. It reports false when a nil pointer is met
// before the last step. The returned value has the declared leaf type.
func (p FieldPath) Get(record reflect.Value) (reflect.Value, bool) {
	v := record
	var ok bool
	for _, s := range p.steps {
		for _, i := range s.index {
			if v, ok = indirect(v); !ok {
				return reflect.Value{}, false
			}
			v = v.Field(i)
		}
	}
	return v, v.IsValid()
}

// value reads the path and dereferences a pointer leaf. A nil leaf is absent.
func (p FieldPath) value(record reflect.Value) (reflect.Value, bool) {
	v, ok := p.Get(record)
	if !ok {
		return reflect.Value{}, false
	}
	return indirect(v)
}

func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

// leafType is t with one level of pointer removed.
func leafType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
