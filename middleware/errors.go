package middleware

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingProvider matches every *MissingProviderError.
	ErrMissingProvider = errors.New("middleware: missing provider")
	// ErrInvalidSource is wrapped by Use when a source cannot be registered.
	ErrInvalidSource = errors.New("middleware: invalid source")
)

// MissingProviderError is returned when a capability without providers or
// fallback is called.
type MissingProviderError struct {
	Capability string
}

func (e *MissingProviderError) Error() string {
	return fmt.Sprintf("middleware: capability %q has no provider and no fallback", e.Capability)
}

// Is reports whether target is ErrMissingProvider.
func (e *MissingProviderError) Is(target error) bool {
	return target == ErrMissingProvider
}

// ProviderTypeError is returned when a provider's stage, or a value flowing
// through an untyped stage, does not match the capability's types.
type ProviderTypeError struct {
	Capability string
	Source     string
	Want       string
	Got        string
}

func (e *ProviderTypeError) Error() string {
	return fmt.Sprintf("middleware: provider %s for %q: want %s, got %s", e.Source, e.Capability, e.Want, e.Got)
}
