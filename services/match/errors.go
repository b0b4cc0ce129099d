package match

import (
	"errors"
	"fmt"
)

// Kind labels an operation failure so clients can branch without
// parsing messages.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindTurnViolation Kind = "turn_violation"
	KindStore         Kind = "store"
)

// Error is the failure shape every engine operation returns. The
// message is wire-safe; internal details stay in the logs.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func TurnViolationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindTurnViolation, Message: fmt.Sprintf(format, args...)}
}

func Storef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindStore, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from any error. Unknown errors count as
// store failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}
