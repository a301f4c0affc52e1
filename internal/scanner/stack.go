package scanner

import (
	"strings"

	"github.com/edwingeng/deque"

	"nickandperla.net/semi/internal/token"
)

// Stack is the flat token stack of a call statement.
type Stack struct {
	tokens     deque.Deque
	boundaries []rune
	// Trailing holds text seen after the last boundary. It is never emitted.
	Trailing string
}

// Decompose splits a call statement on ( and ). Each boundary emits exactly one
// token, the text accumulated since the previous boundary (possibly empty); the
// boundary itself is discarded.
func Decompose(statement string) *Stack {
	s := &Stack{tokens: deque.NewDeque()}
	var acc strings.Builder
	for _, r := range statement {
		if token.IsBoundary(r) {
			s.tokens.PushBack(acc.String())
			s.boundaries = append(s.boundaries, r)
			acc.Reset()
			continue
		}
		acc.WriteRune(r)
	}
	s.Trailing = acc.String()
	return s
}

// Len returns the number of tokens on the stack.
func (s *Stack) Len() int {
	return s.tokens.Len()
}

// Pop removes and returns the bottom-most token (the function name first).
func (s *Stack) Pop() (string, bool) {
	if s.tokens.Empty() {
		return "", false
	}
	return s.tokens.PopFront().(string), true
}

// Tokens returns the remaining tokens in order without consuming them.
func (s *Stack) Tokens() []string {
	out := make([]string, 0, s.tokens.Len())
	s.tokens.Range(func(_ int, v deque.Elem) bool {
		out = append(out, v.(string))
		return true
	})
	return out
}

// Boundaries returns the boundary runes in the order they were seen.
func (s *Stack) Boundaries() string {
	return string(s.boundaries)
}

// WellFormed reports whether the stack has the name(arg) shape: two non-empty
// tokens closed by ( then ), and nothing after the closing parenthesis.
func (s *Stack) WellFormed() bool {
	if s.Len() != 2 || s.Boundaries() != "()" || s.Trailing != "" {
		return false
	}
	for _, t := range s.Tokens() {
		if t == "" {
			return false
		}
	}
	return true
}
