package semi

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"nickandperla.net/semi/internal/charset"
	"nickandperla.net/semi/internal/eval"
	"nickandperla.net/semi/internal/store"
)

// Runtime is the semi interpreter runtime. Variables declared by one Run are
// visible to later runs on the same Runtime. A Runtime is not safe for
// concurrent use.
type Runtime struct {
	evaluator    *eval.Evaluator
	store        store.Store
	outputWriter func(text string) error
	logger       *slog.Logger
	encoding     string
	prelude      string
	preludeErr   error
	storeErr     error
	capture      *strings.Builder // Output of the run in progress, for the journal
}

// New creates a new semi runtime with the given options.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		logger: slog.Default(),
		outputWriter: func(text string) error {
			_, err := os.Stdout.WriteString(text)
			return err
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.storeErr != nil {
		r.logger.Warn("run journal disabled", "err", r.storeErr)
	}

	r.evaluator = eval.New(
		eval.WithOutputWriter(r.write),
		eval.WithLogger(r.logger),
	)

	// The prelude's declarations come first, so programs cannot shadow them.
	if r.prelude != "" {
		if err := r.evaluator.Eval(r.prelude); err != nil {
			r.preludeErr = err
			r.logger.Error("prelude failed", "err", err)
		}
	}

	return r
}

func (r *Runtime) write(text string) error {
	if r.capture != nil {
		r.capture.WriteString(text)
	}
	if r.outputWriter == nil {
		return nil
	}
	return r.outputWriter(text)
}

// Run executes a semi program. The returned error, if any, is an *Error for
// program failures (test with errors.Is against the Err* sentinels).
func (r *Runtime) Run(src string) error {
	if r.preludeErr != nil {
		return fmt.Errorf("prelude: %w", r.preludeErr)
	}
	decoded, err := charset.DecodeString(src, r.encoding)
	if err != nil {
		return err
	}
	return r.run(decoded)
}

// RunReader executes a semi program read from reader.
func (r *Runtime) RunReader(reader io.Reader) error {
	if r.preludeErr != nil {
		return fmt.Errorf("prelude: %w", r.preludeErr)
	}
	decoded, err := charset.NewReader(reader, r.encoding)
	if err != nil {
		return err
	}
	src, err := io.ReadAll(decoded)
	if err != nil {
		return err
	}
	return r.run(string(src))
}

// RunFile executes a semi file.
func (r *Runtime) RunFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.RunReader(f)
}

func (r *Runtime) run(src string) error {
	var captured strings.Builder
	r.capture = &captured
	defer func() { r.capture = nil }()

	start := time.Now()
	err := r.evaluator.Eval(src)
	r.logger.Debug("run finished", "elapsed", time.Since(start), "err", err)

	r.journal(src, captured.String(), start, err)
	return err
}

// journal records a finished run when a store is configured.
func (r *Runtime) journal(src, output string, at time.Time, runErr error) {
	if r.store == nil {
		return
	}
	entry := &store.Run{
		Hash:      store.Hash(src),
		Source:    src,
		Output:    output,
		Variables: r.evaluator.Variables(),
		At:        at,
	}
	if runErr != nil {
		entry.Error = runErr.Error()
		entry.Kind = string(eval.KindOf(runErr))
	}
	if err := r.store.Record(entry); err != nil {
		r.logger.Warn("journal record failed", "hash", entry.Hash, "err", err)
		return
	}
	r.logger.Info("run journaled", "id", entry.ID, "hash", entry.Hash, "kind", entry.Kind)
}

// Variables returns the variable table in declaration order.
func (r *Runtime) Variables() []Variable {
	return r.evaluator.Variables()
}

// Lookup resolves name the way a call argument is resolved: the first
// declaration wins. An undeclared name is an ErrUndefinedVariable error.
func (r *Runtime) Lookup(name string) (string, error) {
	return r.evaluator.Lookup(name)
}

// History returns up to limit journaled runs, newest first.
// It returns nil when no store is configured.
func (r *Runtime) History(limit int) ([]Run, error) {
	if r.store == nil {
		return nil, nil
	}
	return r.store.Recent(limit)
}

// Store returns the configured journal, or nil.
func (r *Runtime) Store() Store {
	return r.store
}

// Close releases resources.
func (r *Runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
