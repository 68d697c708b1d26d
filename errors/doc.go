// Package errors provides the structured error type used by the wallet:
// machine-readable codes, details and retryable detection.
package errors
