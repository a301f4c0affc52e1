package semi

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestRunQuotedProgram(t *testing.T) {
	var out bytes.Buffer
	r := New(WithOutput(&out))
	defer r.Close()

	if err := r.Run(`a="awesome";c=100;print(a);print(c);`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "awesome100" {
		t.Errorf("expected 'awesome100', got '%s'", out.String())
	}
}

func TestSessionKeepsVariables(t *testing.T) {
	var out bytes.Buffer
	r := New(WithOutput(&out))
	defer r.Close()

	if err := r.Run(`x="a";`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Run(`x="b";print(x);`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "a" {
		t.Errorf("expected 'a', got '%s'", out.String())
	}
	if len(r.Variables()) != 2 {
		t.Errorf("expected 2 declarations, got %d", len(r.Variables()))
	}
}

func TestJournalRecordsRuns(t *testing.T) {
	var out bytes.Buffer
	r := New(WithOutput(&out), WithMemoryStore())
	defer r.Close()

	if err := r.Run("n=5;sum(n);"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := r.Run("print(z);")
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("expected undefined variable, got %v", err)
	}

	runs, err := r.History(0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 journaled runs, got %d", len(runs))
	}

	failed, ok := runs[0], runs[1]
	if ok.Output != "5" || ok.Error != "" {
		t.Errorf("unexpected successful run: %+v", ok)
	}
	if failed.Kind != string(KindUndefinedVariable) {
		t.Errorf("expected kind %s, got '%s'", KindUndefinedVariable, failed.Kind)
	}
	if !strings.Contains(failed.Error, `"z"`) {
		t.Errorf("expected error to name z, got '%s'", failed.Error)
	}
	if len(failed.Variables) != 1 || failed.Variables[0].Name != "n" {
		t.Errorf("expected session table in journal, got %+v", failed.Variables)
	}
	if ok.Hash == "" || ok.Hash == failed.Hash {
		t.Errorf("expected distinct hashes, got '%s' and '%s'", ok.Hash, failed.Hash)
	}
}

func TestSQLiteJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	r := New(WithOutputWriter(func(string) error { return nil }), WithSQLiteStore(path))
	if err := r.Run("a=1;print(a);"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Close()

	r2 := New(WithSQLiteStore(path))
	defer r2.Close()
	runs, err := r2.History(1)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(runs) != 1 || runs[0].Output != "1" {
		t.Errorf("expected persisted run, got %+v", runs)
	}
}

func TestNoStoreHistory(t *testing.T) {
	r := New()
	defer r.Close()

	runs, err := r.History(10)
	if err != nil || runs != nil {
		t.Errorf("expected nil history without a store, got %v (%v)", runs, err)
	}
}

func TestPreludeDeclaresFirst(t *testing.T) {
	var out bytes.Buffer
	r := New(WithOutput(&out), WithPrelude(`g="hello";`))
	defer r.Close()

	if err := r.Run(`g="bye";print(g);`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "hello" {
		t.Errorf("expected prelude value 'hello', got '%s'", out.String())
	}
}

func TestBrokenPrelude(t *testing.T) {
	r := New(WithOutput(&bytes.Buffer{}), WithPrelude("g=oops"))
	defer r.Close()

	err := r.Run("g=1;")
	if !errors.Is(err, ErrUnsupportedVariableType) {
		t.Fatalf("expected prelude error, got %v", err)
	}
}

func TestEncoding(t *testing.T) {
	src := `a="日本語";print(a);`
	sjis, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), src)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var out bytes.Buffer
	r := New(WithOutput(&out), WithEncoding("shift_jis"))
	defer r.Close()

	if err := r.RunReader(strings.NewReader(sjis)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "日本語" {
		t.Errorf("expected '日本語', got '%s'", out.String())
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.semi")
	if err := os.WriteFile(path, []byte("a=1;\nb=2;\nprint(a);\nprint(b);\n"), 0644); err != nil {
		t.Fatalf("failed to write program: %v", err)
	}

	var out bytes.Buffer
	r := New(WithOutput(&out))
	defer r.Close()

	if err := r.RunFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "12" {
		t.Errorf("expected '12', got '%s'", out.String())
	}

	if err := r.RunFile(filepath.Join(t.TempDir(), "missing.semi")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  ErrorKind
	}{
		{"x=tru3!", KindUnsupportedVariableType},
		{"print(q)", KindUndefinedVariable},
		{"a=1;echo(a)", KindUnknownFunction},
		{"print", KindMalformedCall},
	}

	for _, tt := range tests {
		r := New(WithOutput(&bytes.Buffer{}))
		err := r.Run(tt.input)
		if KindOf(err) != tt.kind {
			t.Errorf("Run(%q): expected %s, got %v", tt.input, tt.kind, err)
		}
		var semiErr *Error
		if !errors.As(err, &semiErr) {
			t.Errorf("Run(%q): expected *Error, got %T", tt.input, err)
		}
		r.Close()
	}
}

func TestLookupFirstDeclaration(t *testing.T) {
	r := New(WithOutput(&bytes.Buffer{}))
	defer r.Close()

	if err := r.Run(`x="a(b";x=2;`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := r.Lookup("x")
	if err != nil || got != "a(b" {
		t.Errorf("expected 'a(b', got '%s' (%v)", got, err)
	}
	if _, err := r.Lookup("y"); !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("expected undefined variable, got %v", err)
	}
	if r.Store() != nil {
		t.Error("expected no journal without a store option")
	}
	if got := Builtins(); len(got) != 2 || got[0] != "print" || got[1] != "sum" {
		t.Errorf("unexpected builtins %v", got)
	}
}
