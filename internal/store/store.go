// Package store provides the run journal for semi programs.
package store

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"

	"nickandperla.net/semi/internal/value"
)

// Run is one journaled program execution.
type Run struct {
	ID        int64            `json:"id"`
	Hash      string           `json:"hash"`
	Source    string           `json:"source"`
	Output    string           `json:"output"`
	Error     string           `json:"error,omitempty"`
	Kind      string           `json:"kind,omitempty"` // Error kind, empty on success
	Variables []value.Variable `json:"variables"`      // Table after the run, in declaration order
	At        time.Time        `json:"at"`
}

// Store is the interface for run persistence.
type Store interface {
	// Record appends a run and assigns its ID.
	Record(run *Run) error
	// Recent returns up to limit runs, newest first. A limit <= 0 returns all.
	Recent(limit int) ([]Run, error)
	// Prune deletes runs recorded before the given time and reports how many went.
	Prune(before time.Time) (int64, error)
	// Close releases resources.
	Close() error
}

// Hash returns the hex blake3 digest of a program's source.
func Hash(source string) string {
	sum := blake3.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
