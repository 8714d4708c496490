// Package sentinel holds the errors record stores return for facts about
// stored data. Services translate them into domain errors; callers outside
// the service layer never see them.
package sentinel

import "errors"

var (
	// ErrNotFound means no record exists under the requested key.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a commit lost a compare-and-swap: a record was
	// created, updated or removed since it was read. Nothing was written.
	ErrConflict = errors.New("conflict")
)
