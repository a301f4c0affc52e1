package eval

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"nickandperla.net/semi/internal/token"
	"nickandperla.net/semi/internal/value"
)

// Classification is the outcome of classifying one stripped statement.
// Name, Value and Type are only set for declarations.
type Classification struct {
	Kind  token.Token
	Name  string
	Value string
	Type  value.Type
}

// Strip removes every whitespace rune from a raw statement.
func Strip(statement string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, statement)
}

// Classify decides whether a stripped statement is a declaration or a call and
// infers the type of a declared literal. The string-literal shape is tried
// before the integer shape. A right-hand side that is neither is a call when it
// holds a parenthesis, and an unsupported variable type error otherwise.
func Classify(statement string) (Classification, error) {
	if statement == "" {
		return Classification{Kind: token.EMPTY}, nil
	}

	name, rhs, ok := splitDeclaration(statement)
	if !ok {
		return Classification{Kind: token.CALL}, nil
	}

	switch {
	case isStringLiteral(rhs):
		return Classification{
			Kind:  token.DECLARATION,
			Name:  name,
			Value: strings.ReplaceAll(rhs, string(token.RuneQuote), ""),
			Type:  value.String,
		}, nil
	case isIntegerLiteral(rhs):
		return Classification{
			Kind:  token.DECLARATION,
			Name:  name,
			Value: rhs,
			Type:  value.Integer,
		}, nil
	case strings.IndexFunc(rhs, token.IsBoundary) >= 0:
		// Neither literal shape, but call-shaped: x=f(y) is dispatched as a call.
		return Classification{Kind: token.CALL}, nil
	}
	return Classification{}, unsupportedVariableType(name)
}

// splitDeclaration matches <ident>=<rhs>.
func splitDeclaration(statement string) (name, rhs string, ok bool) {
	r, size := utf8.DecodeRuneInString(statement)
	if !token.IsIdent(r) {
		return "", "", false
	}
	rest := statement[size:]
	if !strings.HasPrefix(rest, string(token.RuneAssign)) {
		return "", "", false
	}
	return statement[:size], rest[1:], true
}

// isStringLiteral matches "[^)]*".
func isStringLiteral(s string) bool {
	if len(s) < 2 || s[0] != token.RuneQuote || s[len(s)-1] != token.RuneQuote {
		return false
	}
	return !strings.ContainsRune(s, token.RuneClose)
}

// isIntegerLiteral matches [0-9]+.
func isIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !token.IsDigit(r) {
			return false
		}
	}
	return true
}
