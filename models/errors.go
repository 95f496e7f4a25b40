package models

import (
	"errors"
	"fmt"
)

// Error codes used for logging and for deciding whether a failure is
// recoverable.
const (
	ErrCodeNotFound     = "ELEMENT_NOT_FOUND"
	ErrCodeStale        = "STALE_HANDLE"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeFetch        = "FETCH_FAILED"
	ErrCodeStore        = "STORE_IO"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeInvalidInput = "INVALID_INPUT"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first ScrapeError in err's chain, or "".
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
