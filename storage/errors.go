// Package storage holds the shared persistence substrate: the error
// taxonomy every store speaks, JSON file helpers, and the record-store
// abstraction the vault generations implement.
//
// All stores assume a single writer process. The save formats carry no
// locks; concurrent access from multiple processes is undefined.
package storage

import "errors"

// Error taxonomy shared by every store. Callers match with errors.Is; the
// stores wrap these with context via fmt.Errorf("...: %w", ...).
var (
	// ErrNotFound marks a missing campaign, character, slot or file.
	ErrNotFound = errors.New("not found")

	// ErrInvalid marks malformed JSON, missing required keys, an empty
	// party, an illegal lifecycle combination, an out-of-range slot number
	// or a malformed id.
	ErrInvalid = errors.New("invalid")

	// ErrVersionIncompatible marks a schema version missing from the
	// load-time allow-list.
	ErrVersionIncompatible = errors.New("incompatible save version")

	// ErrEmptySlot marks a load from a slot placeholder that has never
	// held a save. Distinct from ErrNotFound: the file exists.
	ErrEmptySlot = errors.New("empty slot")
)

// Skip records one item a bulk listing could not read and passed over.
// Listings return these alongside their results so callers (and tests) can
// see exactly what was dropped and why.
type Skip struct {
	ID  string
	Err error
}
