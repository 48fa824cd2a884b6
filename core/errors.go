package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a caller-fixable input problem. Fields lists every violation, not just the first.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NotFoundError reports an unknown (or no longer visible) id.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (err *NotFoundError) Error() string {
	if err.ID == "" {
		return err.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", err.Resource, err.ID)
}

// AuthorizationError reports that the caller lacks permission for an action.
type AuthorizationError struct {
	Action string
	Reason string
}

func NewAuthorizationError(action, reason string) error {
	return &AuthorizationError{Action: action, Reason: reason}
}

func (err *AuthorizationError) Error() string {
	if err.Reason == "" {
		return "permission denied: " + err.Action
	}
	return fmt.Sprintf("permission denied: %s: %s", err.Action, err.Reason)
}

// ConflictError reports a state-machine or concurrency violation.
type ConflictError struct {
	Reason string
}

func NewConflictError(format string, args ...interface{}) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

func (err *ConflictError) Error() string {
	return "conflict: " + err.Reason
}

// TimeoutError reports an unresponsive (or abandoned) external dependency call.
type TimeoutError struct {
	Op  string
	Err error
}

func NewTimeoutError(op string, err error) error {
	return &TimeoutError{Op: op, Err: err}
}

func (err *TimeoutError) Error() string {
	if err.Err == nil {
		return err.Op + ": timed out"
	}
	return fmt.Sprintf("%s: timed out: %v", err.Op, err.Err)
}

func (err *TimeoutError) Unwrap() error { return err.Err }

// InternalError wraps any unclassified failure so that the taxonomy stays closed.
type InternalError struct {
	Err error
}

func NewInternalError(err error) error {
	return &InternalError{Err: err}
}

func (err *InternalError) Error() string {
	if err.Err == nil {
		return "internal error"
	}
	return "internal error: " + err.Err.Error()
}

func (err *InternalError) Unwrap() error { return err.Err }

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsAuthorization(err error) bool {
	var e *AuthorizationError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsTimeout(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

func IsInternal(err error) bool {
	var e *InternalError
	return errors.As(err, &e)
}

// isClassified reports whether err already belongs to the taxonomy.
func isClassified(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsAuthorization(err) ||
		IsConflict(err) || IsTimeout(err) || IsInternal(err)
}

// TrapErr maps a storage error into the taxonomy:
// classified errors pass through, context expiry becomes a TimeoutError, anything else an InternalError.
func TrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTimeoutError(msg, err)
	}
	return NewInternalError(errors.Wrap(err, msg))
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s *shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}
