package middleware

import (
	"context"
	"fmt"
	"reflect"
)

// Apply returns a builder for capability name on host. The builder folds the
// providers currently registered, oldest first, over fallback (which may be
// nil) and returns the composed callable. The newest provider is outermost.
//
// Every stage receives a non-nil next: where there is nothing to delegate to,
// next fails with *MissingProviderError, as does the composed callable itself
// when neither providers nor fallback exist.
func Apply[I, O any](host Host, name string) func(fallback Func[I, O]) Func[I, O] {
	return func(fallback Func[I, O]) Func[I, O] {
		missing := missingProvider[I, O](name)
		acc := fallback
		for _, p := range host.Providers(name) {
			if acc == nil {
				acc = missing
			}
			acc = resolve[I, O](name, p)(acc)
		}
		if acc == nil {
			return missing
		}
		return acc
	}
}

// Call composes name on host with fallback and invokes it with in.
func Call[I, O any](ctx context.Context, host Host, name string, fallback Func[I, O], in I) (O, error) {
	return Apply[I, O](host, name)(fallback)(ctx, in)
}

func missingProvider[I, O any](name string) Func[I, O] {
	return func(context.Context, I) (O, error) {
		var zero O
		return zero, &MissingProviderError{Capability: name}
	}
}

// resolve converts the stage yielded by p to Stage[I, O]. Untyped stages are
// adapted; anything else becomes a stage that reports a type error.
func resolve[I, O any](name string, p Provider) Stage[I, O] {
	raw := p.Stage()
	switch s := raw.(type) {
	case Stage[I, O]:
		if s != nil {
			return s
		}
	case func(Func[I, O]) Func[I, O]:
		if s != nil {
			return s
		}
	case Stage[any, any]:
		if s != nil {
			return untyped[I, O](name, p.Source, s)
		}
	case func(Func[any, any]) Func[any, any]:
		if s != nil {
			return untyped[I, O](name, p.Source, s)
		}
	}
	return failing[I, O](&ProviderTypeError{
		Capability: name,
		Source:     p.Source,
		Want:       typeName[Stage[I, O]](),
		Got:        fmt.Sprintf("%T", raw),
	})
}

func failing[I, O any](err error) Stage[I, O] {
	return func(Func[I, O]) Func[I, O] {
		return func(context.Context, I) (O, error) {
			var zero O
			return zero, err
		}
	}
}

// untyped adapts a Stage[any, any] to a typed capability by boxing values on
// the way in and asserting them on the way out.
func untyped[I, O any](name, source string, s Stage[any, any]) Stage[I, O] {
	return func(next Func[I, O]) Func[I, O] {
		h := s(func(ctx context.Context, in any) (any, error) {
			typed, ok := unbox[I](in)
			if !ok {
				return nil, &ProviderTypeError{Capability: name, Source: source, Want: typeName[I](), Got: fmt.Sprintf("%T", in)}
			}
			out, err := next(ctx, typed)
			return out, err
		})
		if h == nil {
			return nil
		}
		return func(ctx context.Context, in I) (O, error) {
			out, err := h(ctx, in)
			typed, ok := unbox[O](out)
			if !ok && err == nil {
				err = &ProviderTypeError{Capability: name, Source: source, Want: typeName[O](), Got: fmt.Sprintf("%T", out)}
			}
			return typed, err
		}
	}
}

// unbox asserts v to T. A nil v converts to the zero T only when T is nilable.
func unbox[T any](v any) (T, bool) {
	var zero T
	if v == nil {
		switch reflect.TypeFor[T]().Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return zero, true
		}
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
