package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

// Error categories define how errors should be handled.
const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: network timeouts, provider temporarily unavailable.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: invalid symbol, resource not found, canceled operations.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates resource exhaustion or quota issues.
	// Examples: provider rate limiting, API quota exceeded, cache capacity.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates unexpected errors, bugs, or corrupted state.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

// Error codes for common failure scenarios.
const (
	// Transient errors
	ErrCodeTimeout     ErrorCode = "TIMEOUT"     // Operation timed out
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE" // Provider temporarily unavailable
	ErrCodeNetworkErr  ErrorCode = "NETWORK_ERR" // Network connectivity issue

	// Permanent errors
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"     // Symbol or resource does not exist
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT" // Malformed request or key
	ErrCodeCanceled     ErrorCode = "CANCELED"      // Operation was canceled

	// Resource errors
	ErrCodeRateLimit     ErrorCode = "RATE_LIMITED"   // Provider rate limit exceeded
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED" // API quota exhausted
	ErrCodeTooLarge      ErrorCode = "TOO_LARGE"      // Entry exceeds cache capacity
	ErrCodeCapacity      ErrorCode = "CAPACITY"       // System at capacity

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL" // Unexpected internal error
	ErrCodePanic    ErrorCode = "PANIC"    // Recovered from panic

	// Fetch-specific errors
	ErrCodeFetchFailed   ErrorCode = "FETCH_FAILED"   // Underlying fetch returned an error
	ErrCodeProviderError ErrorCode = "PROVIDER_ERROR" // Upstream provider reported a failure
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeNetworkErr:
		return CategoryTransient

	case ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeCanceled:
		return CategoryPermanent

	case ErrCodeRateLimit, ErrCodeQuotaExceeded, ErrCodeTooLarge, ErrCodeCapacity:
		return CategoryResource

	case ErrCodeInternal, ErrCodePanic:
		return CategoryInternal

	case ErrCodeFetchFailed, ErrCodeProviderError:
		return CategoryTransient

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

// codeDescriptions provides human-readable descriptions for error codes.
var codeDescriptions = map[ErrorCode]string{
	ErrCodeTimeout:       "operation timed out",
	ErrCodeUnavailable:   "provider temporarily unavailable",
	ErrCodeNetworkErr:    "network connectivity error",
	ErrCodeNotFound:      "resource not found",
	ErrCodeInvalidInput:  "invalid input provided",
	ErrCodeCanceled:      "operation canceled",
	ErrCodeRateLimit:     "rate limit exceeded",
	ErrCodeQuotaExceeded: "quota exceeded",
	ErrCodeTooLarge:      "entry too large to cache",
	ErrCodeCapacity:      "system at capacity",
	ErrCodeInternal:      "internal error",
	ErrCodePanic:         "recovered from panic",
	ErrCodeFetchFailed:   "fetch failed",
	ErrCodeProviderError: "provider reported an error",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
