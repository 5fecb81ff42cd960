package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the error chain.
// If err is nil, Wrap returns nil.
// If err is already a FetchError, its code, category and context carry over.
// Otherwise, it creates a new Internal error wrapping the original.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	// If it's already a FetchError, preserve its properties
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		wrapped := &Error{
			code:      fetchErr.code,
			category:  fetchErr.category,
			message:   message,
			cause:     err,
			metadata:  fetchErr.Metadata(),
			retryable: fetchErr.retryable,
			symbol:    fetchErr.symbol,
			provider:  fetchErr.provider,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	// Check for context errors
	if errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCodeTimeout, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	}

	// Default to internal error for unknown errors
	return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsFetchError attempts to extract a FetchError from an error chain.
// Returns nil if no FetchError is found.
func AsFetchError(err error) FetchError {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr
	}
	return nil
}

// Is checks if any error in the chain has the given error code.
func Is(err error, code ErrorCode) bool {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr.code == code
	}
	return false
}

// IsCategory checks if any error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr.category == category
	}
	return false
}

// IsRetryable checks if the error is retryable.
func IsRetryable(err error) bool {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr.Retryable()
	}
	// Default to not retryable for non-FetchErrors
	return false
}

// IsTransient checks if the error is transient.
func IsTransient(err error) bool {
	return IsCategory(err, CategoryTransient)
}

// IsPermanent checks if the error is permanent.
func IsPermanent(err error) bool {
	return IsCategory(err, CategoryPermanent)
}

// Code extracts the error code from an error, if available.
// Returns empty string if err is not a FetchError.
func Code(err error) ErrorCode {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr.code
	}
	return ""
}

// Category extracts the error category from an error, if available.
// Returns empty string if err is not a FetchError.
func Category(err error) ErrorCategory {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr.category
	}
	return ""
}

// Cause returns the root cause of the error chain.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapper.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}

// Join combines multiple errors into a single error.
// Uses errors.Join from the standard library.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// RecoverPanic converts a recovered panic value into an Error.
func RecoverPanic(recovered interface{}) *Error {
	if recovered == nil {
		return nil
	}
	var message string
	switch v := recovered.(type) {
	case error:
		message = v.Error()
	case string:
		message = v
	default:
		message = fmt.Sprintf("%v", v)
	}
	return New(ErrCodePanic, message, WithMetadata("panic_value", fmt.Sprintf("%T", recovered)))
}
