package sieve

import (
	"fmt"
	"reflect"
)

// Projector copies records of S into the target shape D. Every exported
// field of D is resolved against S once, through D's mapping.
type Projector[S, D any] struct {
	fields []projection
}

type projection struct {
	target int
	source FieldPath
	deref  bool
}

// NewProjector builds a projector using D's sieve tags and registered mappings.
func NewProjector[S, D any]() (*Projector[S, D], error) {
	if err := checkTarget[D](); err != nil {
		return nil, err
	}
	mapping, excluded := targetMapping[D]()
	return newProjector[S, D](mapping, excluded)
}

func newProjector[S, D any](mapping Mapping, excluded map[string]bool) (*Projector[S, D], error) {
	source := reflect.TypeFor[S]()
	target := reflect.TypeFor[D]()

	p := &Projector[S, D]{}
	for i := 0; i < target.NumField(); i++ {
		field := target.Field(i)
		if !field.IsExported() || excluded[field.Name] {
			continue
		}

		path, err := mapping.Resolve(source, field.Name)
		if err != nil {
			return nil, fmt.Errorf("projecting %s.%s: %w", target.Name(), field.Name, err)
		}

		proj := projection{target: i, source: path}
		switch st := path.Type(); {
		case st.AssignableTo(field.Type):
		case st.Kind() == reflect.Pointer && st.Elem().AssignableTo(field.Type):
			proj.deref = true
		default:
			return nil, &FieldTypeMismatchError{Field: field.Name, Source: st, Target: field.Type}
		}
		p.fields = append(p.fields, proj)
	}
	return p, nil
}

func checkTarget[D any]() error {
	target := reflect.TypeFor[D]()
	if target.Kind() != reflect.Struct {
		return fmt.Errorf("projection target %s: %w", target, &UnsupportedFieldTypeError{Type: target})
	}
	return nil
}

// Map copies src into a new D. Fields whose source path crosses a nil
// pointer keep their zero value.
func (p *Projector[S, D]) Map(src S) D {
	var dst D
	sv := reflect.ValueOf(src)
	dv := reflect.ValueOf(&dst).Elem()
	for _, f := range p.fields {
		v, ok := f.source.Get(sv)
		if !ok {
			continue
		}
		if f.deref {
			if v.IsNil() {
				continue
			}
			v = v.Elem()
		}
		dv.Field(f.target).Set(v)
	}
	return dst
}

// MapAll projects each record in order.
func (p *Projector[S, D]) MapAll(records []S) []D {
	out := make([]D, len(records))
	for i, r := range records {
		out[i] = p.Map(r)
	}
	return out
}

// Sources lists the resolved source paths in target field order.
func (p *Projector[S, D]) Sources() []FieldPath {
	out := make([]FieldPath, len(p.fields))
	for i, f := range p.fields {
		out[i] = f.source
	}
	return out
}
