// Package apperrors provides the typed error kinds and result envelopes
// used across Holdfast. Handlers convert low-level errors into these so
// that callers (mainly command dispatch) can decide what to show a
// player without inspecting driver-specific error types.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is one of the abstract error categories from the error-handling
// design: malformed input, auth failures, missing entities, illegal
// state transitions, and so on.
type Kind string

const (
	KindInput      Kind = "input"
	KindAuth       Kind = "auth"
	KindAuthz      Kind = "authz"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindState      Kind = "state"
	KindTimeout    Kind = "timeout"
	KindStorage    Kind = "storage"
	KindTransport  Kind = "transport"
	KindInternal   Kind = "internal"
)

// Sentinel errors for common failure conditions, matched with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrConflict          = errors.New("already exists")
	ErrNotAuthenticated  = errors.New("not logged in")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrInCombat          = errors.New("cannot do that while in combat")
	ErrNotInCombat       = errors.New("not in combat")
	ErrNoSuchExit        = errors.New("no such exit")
	ErrNoSuchRoom        = errors.New("no such room")
	ErrTargetNotFound    = errors.New("target not found")
	ErrBlocked           = errors.New("the way is blocked")
	ErrTimeout           = errors.New("timed out")
	ErrAmbiguousCommand  = errors.New("ambiguous command")
)

// AppError wraps an underlying error with a Kind and an operation name
// so handlers can branch on category without parsing message strings.
type AppError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
}

func (e *AppError) Unwrap() error { return e.Err }

// New wraps err with a kind and operation name.
func New(kind Kind, op string, err error) *AppError {
	return &AppError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind of err, defaulting to KindInternal when err
// is not an *AppError.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Result is the outcome of a non-command game operation (manager-level
// calls that don't flow through the command dispatch CommandResult).
type Result struct {
	Success bool
	Message string
	Err     error
	Data    interface{}
}

func Ok(message string) Result                       { return Result{Success: true, Message: message} }
func OkData(message string, data interface{}) Result  { return Result{Success: true, Message: message, Data: data} }
func Fail(err error, message string) Result           { return Result{Success: false, Message: message, Err: err} }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
