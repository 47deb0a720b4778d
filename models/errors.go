package models

import "fmt"

// Error codes used across the fetch pipeline.
const (
	ErrCodeBlocked     = "BLOCKED"
	ErrCodeTimeout     = "FETCH_TIMEOUT"
	ErrCodeUnreachable = "UNREACHABLE"
	ErrCodeFeedMiss    = "FEED_MISS"
	ErrCodeBadInput    = "INVALID_INPUT"
	ErrCodeExhausted   = "ALL_STRATEGIES_FAILED"
)

// FetchError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
//
// Recoverable errors mean "this strategy missed, try the next one".
// Anything non-recoverable aborts the strategy chain immediately so that
// genuine bugs are not silently swallowed by fallback paths.
type FetchError struct {
	Code        string
	Message     string
	Recoverable bool
	Err         error // wrapped original error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a non-recoverable FetchError.
func NewFetchError(code, message string, err error) *FetchError {
	return &FetchError{Code: code, Message: message, Err: err}
}

// NewRecoverable creates a FetchError that lets the strategy chain advance.
func NewRecoverable(code, message string, err error) *FetchError {
	return &FetchError{Code: code, Message: message, Recoverable: true, Err: err}
}

// Recoverable reports whether err is a FetchError marked recoverable.
// Unknown error types are treated as non-recoverable.
func Recoverable(err error) bool {
	fe, ok := err.(*FetchError)
	return ok && fe.Recoverable
}

// Guidance is appended to the exhaustion error so the user gets actionable
// remediation instead of a bare failure.
const Guidance = `Unable to fetch article: the site is blocking automated access.

Possible solutions:
1. Install and use the 'medium-to-markdown' npm package:
   npm install -g medium-to-markdown
   medium-to-markdown <url>
2. Use a browser extension like 'MarkDownload' or 'SingleFile'
3. Try a VPN or a different network
4. Open the article in a browser first, then save it via dev tools
5. If you have access, use the site's API or RSS feed directly`

// ErrExhausted builds the fatal error returned after the last retrieval
// strategy has failed. last is the final strategy's error, kept in the
// wrap chain for debugging.
func ErrExhausted(last error) *FetchError {
	return &FetchError{
		Code:    ErrCodeExhausted,
		Message: Guidance,
		Err:     last,
	}
}
