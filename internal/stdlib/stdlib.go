// Package stdlib holds reference text shipped inside the semi binary.
package stdlib

import _ "embed"

// Primer is the language primer printed by the CLI help and the REPL :help command.
//
//go:embed PRIMER.md
var Primer string
