package domain

import "fmt"

// Kind tags how a facade result was produced.
type Kind string

const (
	KindOK       Kind = "ok"
	KindFallback Kind = "fallback"
	KindError    Kind = "error"
	KindNotFound Kind = "not_found"
)

// Result carries a value together with how it was obtained, so callers can
// tell live data from a static fallback or an empty error state.
type Result[T any] struct {
	Kind   Kind   `json:"kind"`
	Value  T      `json:"value"`
	Reason string `json:"reason,omitempty"`
}

func OK[T any](v T) Result[T] {
	return Result[T]{Kind: KindOK, Value: v}
}

func Fallback[T any](v T, reason string) Result[T] {
	return Result[T]{Kind: KindFallback, Value: v, Reason: reason}
}

func Failed[T any](v T, reason string) Result[T] {
	return Result[T]{Kind: KindError, Value: v, Reason: reason}
}

func NotFound[T any](v T, reason string) Result[T] {
	return Result[T]{Kind: KindNotFound, Value: v, Reason: reason}
}

// Live reports whether the value came from a successful upstream fetch.
func (r Result[T]) Live() bool {
	return r.Kind == KindOK
}

// ValidationError rejects caller input before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
