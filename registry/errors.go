package registry

import "fmt"

// ErrorKind classifies registry failures so the HTTP boundary can pick
// a status code.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindNotFound
	KindCapability
)

// Error carries a human-readable message plus its kind.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func capabilityf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindCapability, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the error's kind, or ok=false for foreign errors.
func KindOf(err error) (ErrorKind, bool) {
	if regErr, ok := err.(*Error); ok {
		return regErr.Kind, true
	}
	return 0, false
}
