// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines semi statement kinds and the runes that delimit them.
package token

// Token represents the kind of a classified statement.
type Token int

const (
	EMPTY Token = iota
	DECLARATION
	CALL
)

// Delimiting runes.
const (
	RuneDelimiter = ';' // ends a statement
	RuneAssign    = '=' // separates identifier and literal in a declaration
	RuneOpen      = '(' // opens a call argument
	RuneClose     = ')' // closes a call argument
	RuneQuote     = '"' // wraps a string literal
)

// IsBoundary returns true if the rune splits a call into tokens.
func IsBoundary(r rune) bool {
	return r == RuneOpen || r == RuneClose
}

// IsIdent returns true if the rune is a valid identifier (a single lowercase letter).
func IsIdent(r rune) bool {
	return r >= 'a' && r <= 'z'
}

// IsDigit returns true if the rune is an ASCII decimal digit.
func IsDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// String returns the string representation of a token.
func (t Token) String() string {
	switch t {
	case EMPTY:
		return "EMPTY"
	case DECLARATION:
		return "DECLARATION"
	case CALL:
		return "CALL"
	}
	return "UNKNOWN"
}
