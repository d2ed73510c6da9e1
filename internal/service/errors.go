package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Failure kinds. Every error returned by this package matches exactly one of them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrStore      = errors.New("store failure")
	ErrForbidden  = errors.New("forbidden")
)

// Error is a classified failure. Message is safe to show to callers; Err is the cause and
// is only meant for logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.message(), e.Err)
	}
	return e.message()
}

func (e *Error) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// PublicMessage returns the caller-facing message of a classified error.
func PublicMessage(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.message()
	}
	return ErrStore.Error()
}

// IsTransient reports whether the failure came from a cancelled or expired context and
// may succeed if retried.
func IsTransient(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func validationError(message string) error {
	return &Error{Kind: ErrValidation, Message: message}
}

func notFoundError(message string) error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func conflictError(message string, cause error) error {
	return &Error{Kind: ErrConflict, Message: message, Err: cause}
}

func forbiddenError(message string) error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// classify maps a repository or validator error onto a failure kind. notFound is the
// message used when the store reports a missing row.
func classify(err error, notFound string) error {
	if err == nil {
		return nil
	}

	var svcErr *Error
	if errors.As(err, &svcErr) {
		return err
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return &Error{Kind: ErrValidation, Message: describeValidation(validationErrs), Err: err}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: ErrNotFound, Message: notFound, Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: ErrConflict, Message: "record already exists", Err: err}
	case IsTransient(err):
		return &Error{Kind: ErrStore, Message: "request cancelled or timed out", Err: err}
	default:
		return &Error{Kind: ErrStore, Message: "store operation failed", Err: err}
	}
}

func describeValidation(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		field := strings.ToLower(fieldErr.Field())
		if fieldErr.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field, fieldErr.Tag(), fieldErr.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", field, fieldErr.Tag()))
	}
	return strings.Join(parts, "; ")
}
