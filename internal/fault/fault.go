// Package fault defines the abort taxonomy shared by the storage core.
//
// Every failure of an object, slot or escrow operation is an *AbortError
// carrying one of a closed set of codes. Aborts are terminal: the host
// drops the enclosing transaction and surfaces the code to the caller.
package fault

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/objstore/internal/ir"
)

// Code categorizes an abort.
type Code string

const (
	// CodeSlotOccupied indicates an attach to an already filled key.
	CodeSlotOccupied Code = "SLOT_OCCUPIED"

	// CodeSlotNotFound indicates a borrow or remove on an absent key.
	CodeSlotNotFound Code = "SLOT_NOT_FOUND"

	// CodeTypeMismatch indicates the stored type differs from the requested type.
	CodeTypeMismatch Code = "TYPE_MISMATCH"

	// CodeNotAuthorized indicates the sender lacks ownership rights.
	CodeNotAuthorized Code = "NOT_AUTHORIZED"

	// CodeInvalidState indicates the operation is illegal for the record's
	// current ownership designation, e.g. transferring a frozen record.
	CodeInvalidState Code = "INVALID_STATE"

	// CodeMismatchedTerms indicates an escrow precondition failed.
	CodeMismatchedTerms Code = "MISMATCHED_TERMS"
)

var allCodes = []Code{
	CodeSlotOccupied,
	CodeSlotNotFound,
	CodeTypeMismatch,
	CodeNotAuthorized,
	CodeInvalidState,
	CodeMismatchedTerms,
}

// Sentinels for errors.Is. Matching compares codes only.
var (
	ErrSlotOccupied    = &AbortError{Code: CodeSlotOccupied}
	ErrSlotNotFound    = &AbortError{Code: CodeSlotNotFound}
	ErrTypeMismatch    = &AbortError{Code: CodeTypeMismatch}
	ErrNotAuthorized   = &AbortError{Code: CodeNotAuthorized}
	ErrInvalidState    = &AbortError{Code: CodeInvalidState}
	ErrMismatchedTerms = &AbortError{Code: CodeMismatchedTerms}
)

// AbortError is a caller-visible abort of a storage operation.
type AbortError struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Object identifies the affected record, if any.
	Object ir.ID

	// Details contains additional context (key type, requested type...).
	Details map[string]string
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if !e.Object.IsZero() {
		msg += fmt.Sprintf(" (object=%s)", e.Object.Short())
	}
	return msg
}

// Is reports whether target is an AbortError with the same code.
func (e *AbortError) Is(target error) bool {
	t, ok := target.(*AbortError)
	return ok && t.Code == e.Code
}

// New creates an AbortError with a formatted message.
func New(code Code, object ir.ID, format string, args ...any) *AbortError {
	return &AbortError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Object:  object,
	}
}

// With returns a copy of e carrying an extra detail.
func (e *AbortError) With(key, value string) *AbortError {
	out := *e
	out.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// SlotOccupied creates an abort for an attach to a filled key.
func SlotOccupied(owner ir.ID, key string) *AbortError {
	return New(CodeSlotOccupied, owner, "slot %s already holds a value", key).With("key", key)
}

// SlotNotFound creates an abort for an absent key.
func SlotNotFound(owner ir.ID, key string) *AbortError {
	return New(CodeSlotNotFound, owner, "no slot %s", key).With("key", key)
}

// TypeMismatch creates an abort for a typed access naming the wrong type.
func TypeMismatch(object ir.ID, stored, requested string) *AbortError {
	return New(CodeTypeMismatch, object, "stored %s, requested %s", stored, requested).
		With("stored", stored).
		With("requested", requested)
}

// NotAuthorized creates an abort for a sender lacking ownership rights.
func NotAuthorized(object ir.ID, format string, args ...any) *AbortError {
	return New(CodeNotAuthorized, object, format, args...)
}

// InvalidState creates an abort for an operation illegal in the current state.
func InvalidState(object ir.ID, format string, args ...any) *AbortError {
	return New(CodeInvalidState, object, format, args...)
}

// MismatchedTerms creates an abort for a failed escrow precondition.
func MismatchedTerms(format string, args ...any) *AbortError {
	return New(CodeMismatchedTerms, ir.ZeroID, format, args...)
}

// CodeOf returns the abort code of err, or "" if err is not an abort.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var ae *AbortError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Is reports whether err is an abort with the given code.
func Is(err error, code Code) bool {
	return code != "" && CodeOf(err) == code
}

// IsAbort reports whether err is any AbortError.
func IsAbort(err error) bool {
	return CodeOf(err) != ""
}

// ParseCode parses a code name such as "TYPE_MISMATCH".
func ParseCode(s string) (Code, error) {
	for _, c := range allCodes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown abort code %q", s)
}

// Codes returns every known code in sorted order.
func Codes() []Code {
	out := append([]Code(nil), allCodes...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
