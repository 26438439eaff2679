package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is a failure of the host rather than of the transaction's
// own logic. Transaction aborts are *fault.AbortError, never RuntimeError.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Digest identifies the affected transaction, if any.
	Digest string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeJournalFailed indicates the journal write failed; nothing
	// was committed.
	ErrCodeJournalFailed RuntimeErrorCode = "JOURNAL_FAILED"

	// ErrCodeStopped indicates the engine no longer accepts work.
	ErrCodeStopped RuntimeErrorCode = "ENGINE_STOPPED"

	// ErrCodePanic indicates the transaction function panicked. The
	// transaction is aborted like any other failure.
	ErrCodePanic RuntimeErrorCode = "PANIC"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Digest != "" {
		msg += fmt.Sprintf(" (tx=%s)", e.Digest)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsJournalError reports whether err is a journal write failure.
// Uses errors.As to handle wrapped errors.
func IsJournalError(err error) bool {
	return hasCode(err, ErrCodeJournalFailed)
}

// IsStopped reports whether err means the engine was stopped.
func IsStopped(err error) bool {
	return hasCode(err, ErrCodeStopped)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func newJournalError(digest string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeJournalFailed,
		Message: "journal write failed",
		Digest:  digest,
		Err:     err,
	}
}

var errStopped = &RuntimeError{Code: ErrCodeStopped, Message: "engine is stopped"}
