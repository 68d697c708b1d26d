package middleware

// Base keeps a handle on the host a middleware was built for. Embed it in
// class-based middleware whose provider methods need host state. Its own
// methods are never harvested as providers.
type Base[H any] struct {
	host H
}

// NewBase returns a Base bound to host.
func NewBase[H any](host H) Base[H] {
	return Base[H]{host: host}
}

// Host returns the host the middleware was built for.
func (b Base[H]) Host() H {
	return b.host
}
