// Package charset decodes semi program text from legacy encodings.
package charset

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Lookup resolves a WHATWG encoding label such as "shift_jis" or
// "windows-1252". An empty name means UTF-8.
func Lookup(name string) (encoding.Encoding, error) {
	if name == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding: %s", name)
	}
	return enc, nil
}

// IsUTF8 reports whether name denotes UTF-8, where no decoding is needed.
func IsUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8", "unicode-1-1-utf-8":
		return true
	}
	return false
}

// NewReader wraps r so that it yields UTF-8.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	if IsUTF8(name) {
		return r, nil
	}
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// DecodeString converts s from the named encoding to UTF-8.
func DecodeString(s, name string) (string, error) {
	if IsUTF8(name) {
		return s, nil
	}
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	out, _, err := transform.String(enc.NewDecoder(), s)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}
