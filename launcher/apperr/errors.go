// Package apperr is the error vocabulary shared by the launcher services.
// Services return these values; the HTTP layer maps them to status codes.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrSelfReference     = errors.New("self reference")
	ErrRateLimited       = errors.New("rate limited")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBanned            = errors.New("banned")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("invalid credentials")
	ErrInternal          = errors.New("internal error")
)

// RateLimitedError reports a gate denial and how long until it reopens.
type RateLimitedError struct {
	Action    string
	Remaining time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: rate limited, retry in %s", e.Action, e.Remaining.Round(time.Second))
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// RetryAfterSeconds rounds the remaining wait up to whole seconds.
func (e *RateLimitedError) RetryAfterSeconds() int64 {
	secs := int64(e.Remaining / time.Second)
	if e.Remaining%time.Second > 0 {
		secs++
	}
	return secs
}

// BannedError reports an active ban. Until is nil for permanent bans.
type BannedError struct {
	Until  *time.Time
	Reason string
}

func (e *BannedError) Error() string {
	if e.Until == nil {
		return "banned permanently"
	}
	return "banned until " + e.Until.UTC().Format(time.RFC3339)
}

func (e *BannedError) Is(target error) bool { return target == ErrBanned }

type internalError struct {
	cause error
}

func (e *internalError) Error() string        { return "internal error: " + e.cause.Error() }
func (e *internalError) Is(target error) bool { return target == ErrInternal }
func (e *internalError) Unwrap() error        { return e.cause }

// Internal wraps a storage failure. The cause stays reachable for logging but
// callers should only branch on ErrInternal. A nil err yields nil.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var ie *internalError
	if errors.As(err, &ie) {
		return err
	}
	return &internalError{cause: err}
}

// Invalid returns an ErrInvalidInput carrying a field-level message.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
