package service

import (
	"errors"
	"fmt"
)

// Kind classifies a business error for the transport layer.
type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindForbidden:
		return "Forbidden"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindValidation:
		return "Validation"
	default:
		return "Internal"
	}
}

// Error is a business rule rejection. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s(%s): %s", e.Kind, e.Code, e.Message)
}

// Is matches on Kind and Code so wrapped copies compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Validation reports malformed input.
func Validation(code, message string) *Error {
	return newError(KindValidation, code, message)
}

// NotFound reports a missing entity.
func NotFound(message string) *Error {
	return newError(KindNotFound, "NotFound", message)
}

// Forbidden reports a role or ownership guard failure.
func Forbidden(message string) *Error {
	return newError(KindForbidden, "Forbidden", message)
}

// Conflict reports an invariant violation.
func Conflict(code, message string) *Error {
	return newError(KindConflict, code, message)
}

var (
	ErrUnauthenticated    = newError(KindUnauthenticated, "Unauthenticated", "Authentication required")
	ErrInvalidCredentials = newError(KindUnauthenticated, "InvalidCredentials", "Invalid email or password")
	ErrInvalidToken       = newError(KindUnauthenticated, "InvalidToken", "Invalid or expired token")
	ErrPendingApproval    = newError(KindForbidden, "PendingApproval", "Your admin account is awaiting SuperAdmin approval")
	ErrForbidden          = newError(KindForbidden, "Forbidden", "You do not have permission to perform this action")

	ErrUserExists        = newError(KindConflict, "UserExists", "An account with this email already exists")
	ErrDuplicateTeamName = newError(KindConflict, "DuplicateTeamName", "A team with this name already exists")
	ErrAlreadyTeamed     = newError(KindConflict, "AlreadyTeamed", "User already assigned to another team")
	ErrConflictingTimer  = newError(KindConflict, "ConflictingTimer", "You already have a running timer")
	ErrInvalidTransition = newError(KindConflict, "InvalidTransition", "Task is not in a state that allows this action")
	ErrNotPaused         = newError(KindConflict, "NotPaused", "No paused timer for this task")
	ErrAlreadySuperseded = newError(KindConflict, "AlreadySuperseded", "Task has already been reassigned")
)

// KindOf returns the Kind of err, or 0 when err is not a business error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// AsError extracts the business error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
