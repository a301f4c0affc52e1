// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval implements the semi evaluator.
package eval

import "nickandperla.net/semi/internal/value"

// Variables is the ordered variable table of one evaluator.
// Entries are only ever appended; a repeated name does not replace the earlier
// entry, and lookups resolve to the first declaration.
type Variables struct {
	entries []value.Variable
}

// NewVariables creates a new empty table.
func NewVariables() *Variables {
	return &Variables{}
}

// Declare appends a variable.
func (v *Variables) Declare(name, val string, typ value.Type) {
	v.entries = append(v.entries, value.Variable{Name: name, Value: val, Type: typ})
}

// Lookup returns the value of the first variable named name.
func (v *Variables) Lookup(name string) (string, error) {
	for i := 0; i < len(v.entries); i++ {
		if v.entries[i].Name == name {
			return v.entries[i].Value, nil
		}
	}
	return "", undefinedVariable(name)
}

// Len returns the number of declarations, shadowed ones included.
func (v *Variables) Len() int {
	return len(v.entries)
}

// All returns a copy of every declaration in insertion order.
func (v *Variables) All() []value.Variable {
	out := make([]value.Variable, len(v.entries))
	copy(out, v.entries)
	return out
}
