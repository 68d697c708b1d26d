package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Resource errors
const (
	// ErrCodeNotFound indicates the requested key, account or setting was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Wallet state errors
const (
	// ErrCodeLocked indicates the wallet must be unlocked first.
	ErrCodeLocked ErrorCode = "LOCKED"
	// ErrCodeInvalidPassphrase indicates the passphrase did not decrypt the wallet.
	ErrCodeInvalidPassphrase ErrorCode = "INVALID_PASSPHRASE"
	// ErrCodeNotConfigured indicates a required backend was never configured.
	ErrCodeNotConfigured ErrorCode = "NOT_CONFIGURED"
)

// Internal errors
const (
	// ErrCodeStorage indicates the storage backend failed.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStorage:  true,
	ErrCodeInternal: false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
