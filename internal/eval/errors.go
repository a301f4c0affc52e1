package eval

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed statement.
type ErrorKind string

const (
	KindUnsupportedVariableType ErrorKind = "UNSUPPORTED_VARIABLE_TYPE"
	KindUndefinedVariable       ErrorKind = "UNDEFINED_VARIABLE"
	KindUnknownFunction         ErrorKind = "UNKNOWN_FUNCTION"
	KindMalformedCall           ErrorKind = "MALFORMED_CALL"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrUnsupportedVariableType = &Error{Kind: KindUnsupportedVariableType}
	ErrUndefinedVariable       = &Error{Kind: KindUndefinedVariable}
	ErrUnknownFunction         = &Error{Kind: KindUnknownFunction}
	ErrMalformedCall           = &Error{Kind: KindMalformedCall}
)

// Error is a statement failure. Every kind is terminal for the run.
type Error struct {
	Kind       ErrorKind
	Name       string // Offending identifier or function name
	Suggestion string // Closest registered function, for KindUnknownFunction
	Index      int    // 1-based statement index, 0 if unknown
	Line       int
	Statement  string // Whitespace-stripped statement text
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindUnsupportedVariableType:
		msg = fmt.Sprintf("unsupported variable type for %q", e.Name)
	case KindUndefinedVariable:
		msg = fmt.Sprintf("undefined variable %q", e.Name)
	case KindUnknownFunction:
		msg = fmt.Sprintf("unknown function %q", e.Name)
		if e.Suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
		}
	case KindMalformedCall:
		msg = fmt.Sprintf("malformed call %q", e.Statement)
	default:
		msg = string(e.Kind)
	}
	if e.Index > 0 {
		return fmt.Sprintf("statement %d: %s", e.Index, msg)
	}
	return msg
}

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func unsupportedVariableType(name string) *Error {
	return &Error{Kind: KindUnsupportedVariableType, Name: name}
}

func undefinedVariable(name string) *Error {
	return &Error{Kind: KindUndefinedVariable, Name: name}
}

func malformedCall(statement string) *Error {
	return &Error{Kind: KindMalformedCall, Statement: statement}
}
