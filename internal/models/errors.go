package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the evaluator core. Handlers map these to HTTP status
// codes; services wrap them with context via %w.
var (
	ErrExerciseNotFound      = errors.New("exercise not found")
	ErrCapabilityUnavailable = errors.New("speech capability unavailable")
	ErrSessionNotFound       = errors.New("test session not found")
	ErrSessionForbidden      = errors.New("test session belongs to another user")
	ErrSessionTerminal       = errors.New("test session is already finished")
)

// InvalidInputError reports a user answer whose shape or content violates
// what the exercise kind permits.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// EvaluationError wraps an unexpected internal failure during grading. The
// caller maps it to a 500; no attempt is recorded when it occurs.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed: %v", e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
