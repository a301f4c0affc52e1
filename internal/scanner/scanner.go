// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming statement splitter and the call
// decomposer for semi.
package scanner

import (
	"bufio"
	"io"
	"strings"

	"nickandperla.net/semi/internal/token"
)

// Scanner splits semi input into statements rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	buf    strings.Builder
	index  int
	line   int // Current line number (1-based)
	done   bool
}

// Item is one raw statement. Whitespace is not stripped.
type Item struct {
	Value string
	Index int // 1-based position of the statement in the program
	Line  int // Line number where the statement started
	EOF   bool
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
		line:   1,
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Line returns the current line number (1-based).
func (s *Scanner) Line() int {
	return s.line
}

// Next returns the next statement from the input. The delimiter is consumed.
// A trailing delimiter does not open an empty final statement, but empty
// statements between two delimiters are returned.
func (s *Scanner) Next() (*Item, error) {
	if s.done {
		return &Item{EOF: true, Index: s.index, Line: s.line}, nil
	}

	s.buf.Reset()
	startLine := s.line

	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			s.done = true
			if s.buf.Len() > 0 {
				s.index++
				return &Item{Value: s.buf.String(), Index: s.index, Line: startLine}, nil
			}
			return &Item{EOF: true, Index: s.index, Line: s.line}, nil
		}
		if err != nil {
			return nil, err
		}

		if r == '\n' {
			s.line++
		}

		if r == token.RuneDelimiter {
			s.index++
			return &Item{Value: s.buf.String(), Index: s.index, Line: startLine}, nil
		}

		s.buf.WriteRune(r)
	}
}

// split eagerly splits src into its raw statements.
func split(src string) ([]string, error) {
	scan := NewFromString(src)
	var statements []string
	for {
		item, err := scan.Next()
		if err != nil {
			return nil, err
		}
		if item.EOF {
			return statements, nil
		}
		statements = append(statements, item.Value)
	}
}
