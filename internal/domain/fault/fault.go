package fault

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure for the transport boundary.
type Kind string

const (
	KindValidation  Kind = "VALIDATION"   // malformed input or precondition violation
	KindForbidden   Kind = "FORBIDDEN"    // actor lacks required role/ownership
	KindNotFound    Kind = "NOT_FOUND"    // referenced entity absent
	KindConflict    Kind = "CONFLICT"     // concurrent mutation, lock contention; retryable
	KindRateLimited Kind = "RATE_LIMITED" // admission denied; retry after hint
	KindInternal    Kind = "INTERNAL"     // unexpected storage/commit failure
)

// Error carries a classified failure across the service boundary.
type Error struct {
	Kind       Kind
	Msg        string
	RetryAfter time.Duration // set only for KindRateLimited
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Msg + ": " + e.cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.cause }

// Validation reports a precondition or input violation.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden reports a role or ownership violation.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an absent entity.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a detected concurrent mutation. Callers may retry.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// RateLimited reports a denied admission together with the remaining window.
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Msg:        fmt.Sprintf("rate limit exceeded, retry in %d seconds", int(retryAfter.Seconds())),
		RetryAfter: retryAfter,
	}
}

// Internal wraps an unexpected failure. The wrapped cause stays server-side;
// transports render only the generic message.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, cause: cause}
}

// KindOf extracts the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// As returns the classified error inside err, if any.
func As(err error) (*Error, bool) {
	var fe *Error
	ok := errors.As(err, &fe)
	return fe, ok
}

// Convenience predicates.
func IsValidation(err error) bool  { return KindOf(err) == KindValidation }
func IsForbidden(err error) bool   { return KindOf(err) == KindForbidden }
func IsNotFound(err error) bool    { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool    { return KindOf(err) == KindConflict }
func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimited }
