// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package value defines semi variable types.
package value

import (
	"fmt"
	"strings"
)

// Type is the type inferred for a declared variable.
type Type int

const (
	String Type = iota
	Integer
)

// String returns the lowercase name of the type.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Integer:
		return "integer"
	}
	return "unknown"
}

// ParseType parses a type name as produced by Type.String.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(s) {
	case "string":
		return String, true
	case "integer":
		return Integer, true
	default:
		return String, false
	}
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, ok := ParseType(string(b))
	if !ok {
		return fmt.Errorf("unknown variable type: %q", b)
	}
	*t = parsed
	return nil
}

// Variable is a declared name bound to a textual value.
// Values are always stored as text, whatever the type.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  Type   `json:"type"`
}
