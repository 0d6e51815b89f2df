package clierr

import "errors"

// Type categorizes a CLI-facing error for consistent messaging.
type Type string

const (
	Validation Type = "validation"
	Auth       Type = "auth"
	Network    Type = "network"
	Internal   Type = "internal"
)

// Error is a structured user-facing error.
type Error struct {
	Type    Type
	Message string
	Err     error // optional underlying error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// New constructs a new CLI Error.
func New(t Type, msg string, err error) *Error { return &Error{Type: t, Message: msg, Err: err} }

// TypeOf returns the Type of the first *Error in err's chain, or Internal.
func TypeOf(err error) Type {
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr.Type
	}
	return Internal
}
