package middleware

import "context"

// Func is the callable of a capability: one input, one output.
type Func[I, O any] func(ctx context.Context, in I) (O, error)

// Stage wraps next, the callable built from every provider registered
// earlier (ending at the fallback), and returns the provider's own callable.
// A stage may call next any number of times, transform its result, or ignore
// it entirely.
type Stage[I, O any] func(next Func[I, O]) Func[I, O]

// Factory yields a Stage. Middleware methods and Set values have this shape.
type Factory[I, O any] func() Stage[I, O]

// Static returns a Factory that always yields stage.
func Static[I, O any](stage Stage[I, O]) Factory[I, O] {
	return func() Stage[I, O] { return stage }
}

// Set maps capability names to provider factories. Each value must be a
// function without parameters that returns a stage, such as a Factory.
type Set map[string]any

// Declarer restricts which methods of a middleware value are harvested by
// Use. Without it every exported factory-shaped method is a provider.
type Declarer interface {
	Provides() []string
}
