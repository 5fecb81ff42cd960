// Package errors provides a structured error taxonomy for the fetch
// coordination layer. It defines error types, codes, and categories that
// enable consistent retry and fallback decisions across the client.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: Temporary failures where retry may succeed (network issues, etc.)
//   - Permanent: Failures where retry will not help (invalid input, not found, canceled)
//   - Resource: Resource exhaustion issues (rate limits, quotas, oversized entries)
//   - Internal: Unexpected errors indicating bugs or corrupted state
//
// # Error Codes
//
// Each error has a specific code that identifies the type of failure:
//
//   - TIMEOUT: Operation timed out
//   - RATE_LIMITED: Provider rate limit exceeded
//   - CANCELED: Operation explicitly canceled
//   - TOO_LARGE: Entry exceeds cache capacity
//   - FETCH_FAILED: Underlying fetch returned an error
//   - And more...
//
// # Usage
//
// Create a new error:
//
//	err := errors.FetchFailed("AAPL", "connection reset")
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "refreshing watchlist")
//
// Check if an error is retryable:
//
//	if fetchErr := errors.AsFetchError(err); fetchErr != nil && fetchErr.Retryable() {
//	    // retry logic
//	}
//
// # JSON Serialization
//
// All errors support JSON serialization for diagnostics and crash reports:
//
//	data, err := json.Marshal(fetchErr)
package errors
