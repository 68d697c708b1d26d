package middleware

import (
	"fmt"
	"reflect"
	"sort"
)

// reserved are method names promoted from Base or used by Declarer.
var reserved = map[string]bool{
	"Host":     true,
	"Provides": true,
}

type registration struct {
	name     string
	provider Provider
}

// harvest turns a Use source into registrations without touching any
// registry, so an invalid source registers nothing.
func harvest(src any) ([]registration, error) {
	switch s := src.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrInvalidSource)
	case Set:
		return fromSet(s)
	case map[string]any:
		return fromSet(s)
	}

	v := reflect.ValueOf(src)
	if v.Kind() == reflect.Map {
		return nil, fmt.Errorf("%w: %T is not a middleware.Set", ErrInvalidSource, src)
	}
	if v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, fmt.Errorf("%w: nil %T", ErrInvalidSource, src)
	}

	var declared map[string]bool
	if d, ok := src.(Declarer); ok {
		declared = make(map[string]bool)
		for _, name := range d.Provides() {
			declared[name] = true
		}
	}

	t := v.Type()
	var out []registration
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if reserved[m.Name] || (declared != nil && !declared[m.Name]) {
			continue
		}
		fn := v.Method(i)
		if !isFactory(fn.Type()) {
			if declared != nil {
				return nil, fmt.Errorf("%w: %s.%s is not a provider factory", ErrInvalidSource, t, m.Name)
			}
			continue
		}
		out = append(out, registration{
			name:     m.Name,
			provider: NewProvider(t.String()+"."+m.Name, produceFrom(fn)),
		})
		delete(declared, m.Name)
	}
	if len(declared) > 0 {
		missing := make([]string, 0, len(declared))
		for name := range declared {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s declares %v without matching methods", ErrInvalidSource, t, missing)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s provides no capabilities", ErrInvalidSource, t)
	}
	return out, nil
}

func fromSet(s map[string]any) ([]registration, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: empty set", ErrInvalidSource)
	}
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]registration, 0, len(names))
	for _, name := range names {
		fn := reflect.ValueOf(s[name])
		if !fn.IsValid() || !isFactory(fn.Type()) || fn.IsNil() {
			return nil, fmt.Errorf("%w: value for %q is %T, not a provider factory", ErrInvalidSource, name, s[name])
		}
		out = append(out, registration{
			name:     name,
			provider: NewProvider("set."+name, produceFrom(fn)),
		})
	}
	return out, nil
}

// isFactory reports whether t is func() F for some function type F.
func isFactory(t reflect.Type) bool {
	return t.Kind() == reflect.Func &&
		!t.IsVariadic() &&
		t.NumIn() == 0 &&
		t.NumOut() == 1 &&
		t.Out(0).Kind() == reflect.Func
}

func produceFrom(fn reflect.Value) func() any {
	return func() any {
		return fn.Call(nil)[0].Interface()
	}
}
