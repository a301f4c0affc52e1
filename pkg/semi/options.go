// Package semi provides the public API for the semi interpreter.
package semi

import (
	"io"
	"log/slog"

	"nickandperla.net/semi/internal/eval"
	"nickandperla.net/semi/internal/store"
	"nickandperla.net/semi/internal/value"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithSQLiteStore journals runs to a SQLite database at the given path.
// If the database cannot be opened the journal stays disabled and a warning
// is logged.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.storeErr = err
			return
		}
		r.store = s
	}
}

// WithMemoryStore journals runs in memory (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore journals runs to a custom store. The Runtime closes it.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithOutputWriter sets the output writer for print and sum.
func WithOutputWriter(writer func(text string) error) Option {
	return func(r *Runtime) {
		r.outputWriter = writer
	}
}

// WithOutput sets the io.Writer for output.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		r.outputWriter = func(text string) error {
			_, err := io.WriteString(w, text)
			return err
		}
	}
}

// WithLogger sets the logger. Statements are traced at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithEncoding sets the charset program text is decoded from.
func WithEncoding(name string) Option {
	return func(r *Runtime) {
		r.encoding = name
	}
}

// WithPrelude sets statements run once when the runtime is created.
func WithPrelude(source string) Option {
	return func(r *Runtime) {
		r.prelude = source
	}
}

// Store interface for custom journals.
type Store = store.Store

// Run is one journaled execution.
type Run = store.Run

// Variable is a declared variable.
type Variable = value.Variable

// Error is a program failure.
type Error = eval.Error

// ErrorKind classifies an Error.
type ErrorKind = eval.ErrorKind

// Error kinds.
const (
	KindUnsupportedVariableType = eval.KindUnsupportedVariableType
	KindUndefinedVariable       = eval.KindUndefinedVariable
	KindUnknownFunction         = eval.KindUnknownFunction
	KindMalformedCall           = eval.KindMalformedCall
)

// Sentinels for errors.Is.
var (
	ErrUnsupportedVariableType = eval.ErrUnsupportedVariableType
	ErrUndefinedVariable       = eval.ErrUndefinedVariable
	ErrUnknownFunction         = eval.ErrUnknownFunction
	ErrMalformedCall           = eval.ErrMalformedCall
)

// KindOf returns the kind of err, or "" if it is not a program failure.
func KindOf(err error) ErrorKind {
	return eval.KindOf(err)
}

// Builtins returns the names of the native functions.
func Builtins() []string {
	return eval.Builtins()
}
