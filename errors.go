package dramsim

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes the handful of user-input errors the core can
// raise. There are no recoverable runtime errors within the core
// itself — only configuration with pathological timings is a user
// error, detected by Config.Validate on construction.
type ErrorCode string

const (
	ErrCodeInvalidConfig ErrorCode = "invalid config"
)

// Error is a structured error carrying the failing operation, a
// category code, and a human message, grounded on the teacher's
// errors.go Error type (trimmed of the ublk-specific DevID/Queue/Errno
// fields, which have no analogue here).
type Error struct {
	Op    string
	Code  ErrorCode
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("dramsim: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("dramsim: %s", e.Msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// WrapConfigError wraps a Config.Validate failure with the operation
// that surfaced it.
func WrapConfigError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	return &Error{Op: op, Code: ErrCodeInvalidConfig, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
