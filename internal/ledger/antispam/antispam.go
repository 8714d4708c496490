// Package antispam throttles balance-affecting operations per starter record
// with two fixed windows. It is advisory throttling, not access control.
package antispam

import (
	"custody/internal/ledger/models"
	dErrors "custody/pkg/domain-errors"
)

// Window limits.
const (
	SecondWindow int64  = 1
	MaxPerSecond uint8  = 100
	MinuteWindow int64  = 60
	MaxPerMinute uint16 = 1000
)

// Check applies the guard for an operation at now (unix seconds) and records
// it on success. On failure rec is left unchanged.
func Check(rec *models.LedgerRecord, now models.Timestamp) error {
	countSec, lastSec := rec.TxCountSec, rec.LastTxSec
	countMin, lastMin := rec.TxCountMin, rec.LastTxMin

	if now-lastSec >= SecondWindow {
		countSec, lastSec = 0, now
	}
	if now-lastMin >= MinuteWindow {
		countMin, lastMin = 0, now
	}
	if countSec >= MaxPerSecond || countMin >= MaxPerMinute {
		return dErrors.New(dErrors.CodeRateLimitExceeded, "rate limit exceeded")
	}

	if countSec == ^uint8(0) || countMin == ^uint16(0) {
		return dErrors.New(dErrors.CodeOverflow, "rate counter overflow")
	}
	rec.TxCountSec, rec.LastTxSec = countSec+1, lastSec
	rec.TxCountMin, rec.LastTxMin = countMin+1, lastMin
	return nil
}

// Remaining reports how many more operations the record may perform at now.
func Remaining(rec *models.LedgerRecord, now models.Timestamp) (perSecond, perMinute int) {
	countSec, countMin := rec.TxCountSec, rec.TxCountMin
	if now-rec.LastTxSec >= SecondWindow {
		countSec = 0
	}
	if now-rec.LastTxMin >= MinuteWindow {
		countMin = 0
	}
	return int(MaxPerSecond) - int(countSec), int(MaxPerMinute) - int(countMin)
}
