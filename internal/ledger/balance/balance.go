// Package balance implements the fixed-capacity slot table operations of a
// single ledger record and the chain view across an owner's starter and
// expansion records.
//
// Every mutating function either succeeds completely or leaves the table
// untouched.
package balance

import (
	"math/bits"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// Find returns the index of the used slot keyed by key.
func Find(t *models.SlotTable, key id.Bytes32) (int, bool) {
	for i := range t.Balances {
		if t.Balances[i].Used && t.Balances[i].Key == key {
			return i, true
		}
	}
	return -1, false
}

// Amount returns the balance held under key, zero when absent.
func Amount(t *models.SlotTable, key id.Bytes32) uint64 {
	if i, ok := Find(t, key); ok {
		return t.Balances[i].Amount
	}
	return 0
}

// Credit adds amount of asset under key, allocating the first free slot for
// a new key.
func Credit(t *models.SlotTable, asset id.AssetID, key id.Bytes32, amount uint64) error {
	if amount == 0 {
		return dErrors.New(dErrors.CodeZeroAmount, "credit amount must be positive")
	}
	if i, ok := Find(t, key); ok {
		sum, carry := bits.Add64(t.Balances[i].Amount, amount, 0)
		if carry != 0 {
			return dErrors.New(dErrors.CodeOverflow, "balance overflow")
		}
		if !canTrack(t, asset) {
			return dErrors.New(dErrors.CodeAssetListFull, "asset list is full")
		}
		t.Balances[i].Amount = sum
		return Track(t, asset)
	}

	free := firstFreeSlot(t)
	if free < 0 || int(t.BalanceCount) >= models.SlotCapacity {
		return dErrors.New(dErrors.CodeCapacityExceeded, "no free balance slot")
	}
	if !canTrack(t, asset) {
		return dErrors.New(dErrors.CodeAssetListFull, "asset list is full")
	}
	t.Balances[free] = models.BalanceSlot{Key: key, Amount: amount, Used: true}
	t.BalanceCount++
	return Track(t, asset)
}

// Debit removes amount of asset under key. A slot that reaches zero is freed
// and its asset untracked.
func Debit(t *models.SlotTable, asset id.AssetID, key id.Bytes32, amount uint64) error {
	if amount == 0 {
		return dErrors.New(dErrors.CodeZeroAmount, "debit amount must be positive")
	}
	i, ok := Find(t, key)
	if !ok || t.Balances[i].Amount < amount {
		return dErrors.New(dErrors.CodeInsufficientBalance, "insufficient balance")
	}
	t.Balances[i].Amount -= amount
	if t.Balances[i].Amount == 0 {
		t.Balances[i] = models.BalanceSlot{}
		t.BalanceCount--
		Untrack(t, asset)
	}
	return nil
}

// Track records asset in the asset list. Tracking an already tracked asset
// is a no-op.
func Track(t *models.SlotTable, asset id.AssetID) error {
	if IsTracked(t, asset) {
		return nil
	}
	if int(t.AssetCount) >= models.SlotCapacity {
		return dErrors.New(dErrors.CodeAssetListFull, "asset list is full")
	}
	for i := range t.Assets {
		if !t.Assets[i].Used {
			t.Assets[i] = models.AssetSlot{Asset: asset, Used: true}
			t.AssetCount++
			return nil
		}
	}
	return dErrors.New(dErrors.CodeAssetListFull, "asset list is full")
}

// Untrack clears asset from the asset list. AssetCount is decremented only
// when an entry is actually removed. Reports whether an entry was removed.
func Untrack(t *models.SlotTable, asset id.AssetID) bool {
	for i := range t.Assets {
		if t.Assets[i].Used && t.Assets[i].Asset == asset {
			t.Assets[i] = models.AssetSlot{}
			if t.AssetCount > 0 {
				t.AssetCount--
			}
			return true
		}
	}
	return false
}

// IsTracked reports whether asset is in the asset list.
func IsTracked(t *models.SlotTable, asset id.AssetID) bool {
	for i := range t.Assets {
		if t.Assets[i].Used && t.Assets[i].Asset == asset {
			return true
		}
	}
	return false
}

// HasFreeSlot reports whether a new key could be allocated.
func HasFreeSlot(t *models.SlotTable) bool {
	return int(t.BalanceCount) < models.SlotCapacity && firstFreeSlot(t) >= 0
}

// Holdings lists the positive balances of t, resolving each tracked asset
// through its slot key.
func Holdings(t *models.SlotTable, keyOf func(id.AssetID) id.Bytes32) []models.Holding {
	var out []models.Holding
	for i := range t.Assets {
		if !t.Assets[i].Used {
			continue
		}
		asset := t.Assets[i].Asset
		if amt := Amount(t, keyOf(asset)); amt > 0 {
			out = append(out, models.Holding{Asset: asset, Amount: amt})
		}
	}
	return out
}

// CheckInvariants verifies the slot table counters and the tracking rule.
func CheckInvariants(t *models.SlotTable, keyOf func(id.AssetID) id.Bytes32) error {
	used := 0
	for i := range t.Balances {
		if t.Balances[i].Used {
			used++
		}
	}
	if used != int(t.BalanceCount) || used > models.SlotCapacity {
		return dErrors.New(dErrors.CodeInternal, "balance count does not match used slots")
	}
	tracked := 0
	for i := range t.Assets {
		if !t.Assets[i].Used {
			continue
		}
		tracked++
		if Amount(t, keyOf(t.Assets[i].Asset)) == 0 {
			return dErrors.New(dErrors.CodeInternal, "tracked asset has no balance")
		}
	}
	if tracked != int(t.AssetCount) {
		return dErrors.New(dErrors.CodeInternal, "asset count does not match tracked assets")
	}
	if tracked != used {
		return dErrors.New(dErrors.CodeInternal, "tracked assets do not match used slots")
	}
	return nil
}

func canTrack(t *models.SlotTable, asset id.AssetID) bool {
	return IsTracked(t, asset) || int(t.AssetCount) < models.SlotCapacity
}

func firstFreeSlot(t *models.SlotTable) int {
	for i := range t.Balances {
		if !t.Balances[i].Used {
			return i
		}
	}
	return -1
}
