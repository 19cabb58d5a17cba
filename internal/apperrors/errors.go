package apperrors

import (
	"errors"
	"fmt"
)

// Kind is the stable machine-readable error code surfaced to clients.
// Handlers map kinds to HTTP statuses; clients branch on them to decide
// whether an operation is retriable or needs user input.
type Kind string

const (
	KindValidation              Kind = "VALIDATION"
	KindNotFound                Kind = "NOT_FOUND"
	KindTransientService        Kind = "TRANSIENT_SERVICE"
	KindStoreBusy               Kind = "STORE_BUSY"
	KindSessionPathMissing      Kind = "SESSION_PATH_MISSING"
	KindIllegalStatusTransition Kind = "ILLEGAL_STATUS_TRANSITION"
	KindAnalysisFailure         Kind = "ANALYSIS_FAILURE"
	KindDiscussionFailure       Kind = "DISCUSSION_FAILURE"
	KindStreamTimeout           Kind = "STREAM_TIMEOUT"
	KindIndexOutOfRange         Kind = "INDEX_OUT_OF_RANGE"
)

// Error is the common shape for all domain errors. Details carries the
// structured payload a caller needs to prompt the user and retry the same
// logical operation (e.g. recorded/attempted paths for a relocated file).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf extracts the Kind from any error in the chain, or "" if the
// error is not a domain error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func NotFound(what string) *Error {
	return New(KindNotFound, what+" not found")
}

// SessionPathMissing is recoverable: the caller re-submits with an
// explicit path override.
func SessionPathMissing(recordedPath, attemptedPath string) *Error {
	return &Error{
		Kind:    KindSessionPathMissing,
		Message: "document cannot be located at its recorded path",
		Details: map[string]interface{}{
			"recorded_path":  recordedPath,
			"attempted_path": attemptedPath,
		},
	}
}

func IllegalStatusTransition(from, to string) *Error {
	return &Error{
		Kind:    KindIllegalStatusTransition,
		Message: fmt.Sprintf("finding status cannot move from %q to %q", from, to),
		Details: map[string]interface{}{"from": from, "to": to},
	}
}

func IndexOutOfRange(index, total int) *Error {
	return &Error{
		Kind:    KindIndexOutOfRange,
		Message: fmt.Sprintf("finding index %d out of range [0, %d)", index, total),
		Details: map[string]interface{}{"index": index, "total": total},
	}
}

func StoreBusy(cause error) *Error {
	return Wrap(KindStoreBusy, "persistence store busy after retries", cause)
}

func StreamTimeout(findingNumber int) *Error {
	return &Error{
		Kind:    KindStreamTimeout,
		Message: "discussion stream ended without a terminal event",
		Details: map[string]interface{}{"finding_number": findingNumber},
	}
}
