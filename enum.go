package sieve

import (
	"reflect"
	"strconv"
	"sync"
)

var enums = struct {
	sync.RWMutex
	byType map[reflect.Type]map[string]reflect.Value
}{byType: make(map[reflect.Type]map[string]reflect.Value)}

// RegisterEnum declares E an enumeration whose values are parsed by symbolic
// name. Names are matched exactly; numeric text is accepted when it equals a
// registered value.
func RegisterEnum[E any](names map[string]E) {
	t := reflect.TypeFor[E]()
	values := make(map[string]reflect.Value, len(names))
	for name, v := range names {
		values[name] = reflect.ValueOf(v)
	}

	enums.Lock()
	defer enums.Unlock()
	enums.byType[t] = values
}

func isRegisteredEnum(t reflect.Type) bool {
	enums.RLock()
	defer enums.RUnlock()
	_, ok := enums.byType[t]
	return ok
}

func lookupEnum(t reflect.Type, raw string) (reflect.Value, bool) {
	enums.RLock()
	values, ok := enums.byType[t]
	enums.RUnlock()
	if !ok {
		return reflect.Value{}, false
	}
	if v, ok := values[raw]; ok {
		return v, true
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		for _, v := range values {
			if v.Int() == n {
				return v, true
			}
		}
	}
	return reflect.Value{}, false
}
