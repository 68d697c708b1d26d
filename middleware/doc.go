// Package middleware implements a typed composition engine that lets
// independently written extensions intercept, augment or replace named
// capabilities on a host at runtime.
//
// A host embeds Consumer and registers middleware with Use. Middleware is
// either a value whose exported factory methods are named after the
// capabilities they provide (optionally embedding Base to keep a handle on
// the host), or a Set mapping capability names to factories:
//
//	type Client struct {
//	    middleware.Consumer
//	}
//
//	func (c *Client) Length(ctx context.Context, key string) (int, error) {
//	    return middleware.Apply[string, int](c, "Length")(
//	        func(_ context.Context, key string) (int, error) { return len(key), nil },
//	    )(ctx, key)
//	}
//
//	client.Use(middleware.Set{"Length": middleware.Logging(log, "Length")})
//
// # Ordering
//
// Apply folds providers in registration order, seeded with the fallback, so
// the provider registered last is outermost: it runs first and alone decides
// whether to call next (everything registered before it, ending at the
// fallback). A capability with neither providers nor fallback fails with
// *MissingProviderError when called.
//
// Errors returned by providers or the fallback are passed through unchanged.
// The engine never logs calls, retries or recovers; use the Logging, Tracing
// and Metrics stages for that.
package middleware
