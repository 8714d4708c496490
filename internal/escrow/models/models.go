// Package models holds the time-locked escrow record.
package models

import (
	"time"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
)

// MaxNoteLength bounds the free-form note in bytes.
const MaxNoteLength = models.MaxNoteLength

// CurrentSchemaVersion is the escrow record layout written by this build.
const CurrentSchemaVersion uint8 = 1

// TimeLockKey is the record key of a time lock.
func TimeLockKey(lockID id.TimeLockID) models.RecordKey {
	return models.RecordKey("escrow/" + lockID.String())
}

// TimeLockRecord holds value for Recipient until UnlockAt.
//
// Invariants: Amount only grows while unclaimed; once Claimed is set it never
// clears again.
type TimeLockRecord struct {
	ID            id.TimeLockID    `json:"id"`
	Owner         id.Identity      `json:"owner"`
	Recipient     id.Identity      `json:"recipient"`
	Asset         id.AssetID       `json:"asset"`
	Amount        uint64           `json:"amount"`
	UnlockAt      models.Timestamp `json:"unlock_at"`
	CreatedAt     models.Timestamp `json:"created_at"`
	Claimed       bool             `json:"claimed"`
	Note          string           `json:"note,omitempty"`
	SchemaVersion uint8            `json:"schema_version"`
}

// Unlocked reports whether the lock can be claimed at now.
func (r *TimeLockRecord) Unlocked(now models.Timestamp) bool {
	return now >= r.UnlockAt
}

// TimeLockView is a time lock plus values derived at read time.
type TimeLockView struct {
	TimeLockRecord
	TimeUntilUnlock *time.Duration `json:"time_until_unlock,omitempty"`
	CanClaim        bool           `json:"can_claim"`
}

// View derives the read-time fields at now.
func (r *TimeLockRecord) View(now models.Timestamp) *TimeLockView {
	v := &TimeLockView{TimeLockRecord: *r}
	if !r.Unlocked(now) {
		remaining := time.Duration(r.UnlockAt-now) * time.Second
		v.TimeUntilUnlock = &remaining
	}
	v.CanClaim = !r.Claimed && r.Unlocked(now) && r.Amount > 0
	return v
}

// CreateRequest describes a new time lock.
type CreateRequest struct {
	Recipient id.Identity `json:"recipient"`
	Asset     id.AssetID  `json:"asset"`
	UnlockAt  time.Time   `json:"unlock_at"`
	Note      string      `json:"note,omitempty"`
}
