package sieve

import (
	"reflect"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

// MappingTag is the struct tag read from target types. Its value is a dotted
// source path, or "-" to leave the field out of projection.
const MappingTag = "sieve"

// Mapping maps target field names to dotted source paths. Keys are stored in
// their exported spelling.
type Mapping map[string]string

// Path returns the source path for a logical field name, or the name itself
// when no mapping exists.
func (m Mapping) Path(field string) string {
	if p, ok := m[exportName(field)]; ok {
		return p
	}
	return field
}

// Resolve applies the mapping and resolves the result against root.
func (m Mapping) Resolve(root reflect.Type, field string) (FieldPath, error) {
	return Resolve(root, m.Path(field))
}

func (m Mapping) clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// registry holds mappings registered in code, keyed by target type.
var registry = struct {
	sync.RWMutex
	byType map[reflect.Type]Mapping
}{byType: make(map[reflect.Type]Mapping)}

// Map registers path as the source of field on target type D.
// Registrations override struct tags and are expected at startup.
func Map[D any](field, path string) {
	t := reflect.TypeFor[D]()
	registry.Lock()
	defer registry.Unlock()
	m, ok := registry.byType[t]
	if !ok {
		m = make(Mapping)
		registry.byType[t] = m
	}
	m[exportName(field)] = path
}

func registered(t reflect.Type) Mapping {
	registry.RLock()
	defer registry.RUnlock()
	return registry.byType[t].clone()
}

// targetMapping collects the mapping for D from its sieve tags and from the
// registry, returning the mapping and the set of excluded fields.
func targetMapping[D any]() (Mapping, map[string]bool) {
	sentinel.Tag(MappingTag)
	metadata := sentinel.Inspect[D]()

	mapping := make(Mapping)
	excluded := make(map[string]bool)
	for _, field := range metadata.Fields {
		tag, ok := field.Tags[MappingTag]
		if !ok {
			continue
		}
		tag = strings.TrimSpace(tag)
		switch tag {
		case "":
		case "-":
			excluded[field.Name] = true
		default:
			mapping[field.Name] = tag
		}
	}

	for field, path := range registered(reflect.TypeFor[D]()) {
		mapping[field] = path
		delete(excluded, field)
	}
	return mapping, excluded
}
