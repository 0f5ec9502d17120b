package models

import (
	"errors"
	"strings"
)

// ValidationError collects user-correctable problems with a reminder request
type ValidationError struct {
	Problems []string
}

// NewValidationError creates a validation error with the given problems
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// Add records another problem
func (e *ValidationError) Add(problem string) {
	e.Problems = append(e.Problems, problem)
}

// HasProblems reports whether any problem was recorded
func (e *ValidationError) HasProblems() bool {
	return len(e.Problems) > 0
}

func (e *ValidationError) Error() string {
	return "invalid reminder: " + strings.Join(e.Problems, " ")
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// Validation messages shown to the requester
const (
	ErrMsgEmailRequired   = "Email address is required."
	ErrMsgMessageRequired = "Reminder message is required."
	ErrMsgTimeRequired    = "Date & time is required."
	ErrMsgTimeFormat      = "Invalid date/time format."
	ErrMsgTimeInPast      = "Scheduled time must be in the future."
)
