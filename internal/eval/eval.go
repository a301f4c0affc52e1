package eval

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"nickandperla.net/semi/internal/scanner"
	"nickandperla.net/semi/internal/token"
	"nickandperla.net/semi/internal/value"
)

// OutputWriter writes output (for print and sum).
type OutputWriter func(text string) error

// Evaluator interprets semi statements against its own variable table.
// It is not safe for concurrent use.
type Evaluator struct {
	variables    *Variables
	outputWriter OutputWriter
	logger       *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithOutputWriter sets the output writer for native functions.
func WithOutputWriter(w OutputWriter) Option {
	return func(e *Evaluator) { e.outputWriter = w }
}

// WithLogger sets the logger used for statement tracing.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		variables: NewVariables(),
		logger:    slog.Default(),
		outputWriter: func(text string) error {
			fmt.Print(text)
			return nil
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Eval runs a semi program.
func (e *Evaluator) Eval(input string) error {
	return e.EvalReader(strings.NewReader(input))
}

// EvalReader runs a semi program read from r. Statements run in source order
// and the first failing statement ends the run; declarations made before it
// are kept.
func (e *Evaluator) EvalReader(r io.Reader) error {
	scan := scanner.New(r)
	for {
		item, err := scan.Next()
		if err != nil {
			return fmt.Errorf("line %d: %w", scan.Line(), err)
		}
		if item.EOF {
			return nil
		}
		if err := e.evalStatement(item); err != nil {
			return err
		}
	}
}

// Variables returns a snapshot of the variable table in declaration order.
func (e *Evaluator) Variables() []value.Variable {
	return e.variables.All()
}

// Lookup resolves a variable the same way a call argument is resolved.
func (e *Evaluator) Lookup(name string) (string, error) {
	return e.variables.Lookup(name)
}

func (e *Evaluator) evalStatement(item *scanner.Item) error {
	stmt := Strip(item.Value)

	c, err := Classify(stmt)
	if err != nil {
		return annotate(err, item, stmt)
	}
	e.logger.Debug("statement", "index", item.Index, "kind", c.Kind.String(), "statement", stmt)

	switch c.Kind {
	case token.EMPTY:
		return nil
	case token.DECLARATION:
		e.variables.Declare(c.Name, c.Value, c.Type)
		return nil
	case token.CALL:
		if err := e.call(stmt); err != nil {
			return annotate(err, item, stmt)
		}
	}
	return nil
}

// call decomposes and dispatches a call statement. The function is resolved
// before its argument, so an unknown function never reads the table.
func (e *Evaluator) call(stmt string) error {
	stack := scanner.Decompose(stmt)
	if !stack.WellFormed() {
		return malformedCall(stmt)
	}
	name, _ := stack.Pop()
	argName, _ := stack.Pop()

	fn := getBuiltin(name)
	if fn == nil {
		return unknownFunction(name)
	}
	arg, err := e.variables.Lookup(argName)
	if err != nil {
		return err
	}
	return fn(e, arg)
}

func (e *Evaluator) write(text string) error {
	if e.outputWriter == nil {
		return nil
	}
	if err := e.outputWriter(text); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// annotate attaches statement position to err.
func annotate(err error, item *scanner.Item, stmt string) error {
	var evalErr *Error
	if errors.As(err, &evalErr) {
		evalErr.Index = item.Index
		evalErr.Line = item.Line
		if evalErr.Statement == "" {
			evalErr.Statement = stmt
		}
		return evalErr
	}
	return fmt.Errorf("statement %d: %w", item.Index, err)
}
