package scanner

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{`a="awesome";c=100;print(a);print(c);`, []string{`a="awesome"`, "c=100", "print(a)", "print(c)"}},
		{"print(a)", []string{"print(a)"}},
		{"a=1;;print(a)", []string{"a=1", "", "print(a)"}},
		{";", []string{""}},
		{" a = 1 ; ", []string{" a = 1 ", " "}},
		{"", nil},
	}

	for _, tt := range tests {
		got, err := split(tt.input)
		if err != nil {
			t.Fatalf("split(%q) failed: %v", tt.input, err)
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("split(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestScannerIndexAndLine(t *testing.T) {
	scan := New(strings.NewReader("a=1;\nprint(a);\n\nb=2"))

	var items []*Item
	for {
		item, err := scan.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if item.EOF {
			break
		}
		items = append(items, item)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(items))
	}
	for i, item := range items {
		if item.Index != i+1 {
			t.Errorf("item %d: expected index %d, got %d", i, i+1, item.Index)
		}
	}
	if items[0].Line != 1 {
		t.Errorf("expected first statement on line 1, got %d", items[0].Line)
	}
	if items[2].Line != 2 {
		t.Errorf("expected third statement to start on line 2, got %d", items[2].Line)
	}
	if strings.TrimSpace(items[2].Value) != "b=2" {
		t.Errorf("expected 'b=2', got %q", items[2].Value)
	}

	// EOF is sticky
	item, err := scan.Next()
	if err != nil || !item.EOF {
		t.Errorf("expected repeated EOF, got %+v (%v)", item, err)
	}
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		input      string
		tokens     []string
		boundaries string
		trailing   string
		wellFormed bool
	}{
		{"print(a)", []string{"print", "a"}, "()", "", true},
		{"sum(b)", []string{"sum", "b"}, "()", "", true},
		{"print(a)xyz", []string{"print", "a"}, "()", "xyz", false},
		{"print()", []string{"print", ""}, "()", "", false},
		{"print(a", []string{"print"}, "(", "a", false},
		{"print(a)(b)", []string{"print", "a", "", "b"}, "()()", "", false},
		{"print)a(", []string{"print", "a"}, ")(", "", false},
		{"noparens", nil, "", "noparens", false},
		{"", nil, "", "", false},
	}

	for _, tt := range tests {
		s := Decompose(tt.input)
		got := s.Tokens()
		if len(got) == 0 {
			got = nil
		}
		var want []string
		if len(tt.tokens) > 0 {
			want = tt.tokens
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Decompose(%q): expected tokens %q, got %q", tt.input, want, got)
		}
		if s.Boundaries() != tt.boundaries {
			t.Errorf("Decompose(%q): expected boundaries %q, got %q", tt.input, tt.boundaries, s.Boundaries())
		}
		if s.Trailing != tt.trailing {
			t.Errorf("Decompose(%q): expected trailing %q, got %q", tt.input, tt.trailing, s.Trailing)
		}
		if s.WellFormed() != tt.wellFormed {
			t.Errorf("Decompose(%q): expected WellFormed=%v", tt.input, tt.wellFormed)
		}
	}
}

func TestStackPop(t *testing.T) {
	s := Decompose("print(a)")

	name, ok := s.Pop()
	if !ok || name != "print" {
		t.Fatalf("expected 'print', got %q (%v)", name, ok)
	}
	arg, ok := s.Pop()
	if !ok || arg != "a" {
		t.Fatalf("expected 'a', got %q (%v)", arg, ok)
	}
	if _, ok := s.Pop(); ok {
		t.Error("expected empty stack")
	}
}
