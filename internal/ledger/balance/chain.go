package balance

import (
	"custody/internal/ledger/keys"
	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// Chain is an owner's starter table followed by its expansion tables in
// phase order. Keys are derived once per asset through the owner's Deriver.
type Chain struct {
	keys   keys.Deriver
	tables []*models.SlotTable
}

// NewChain builds a chain view; tables[0] must be the starter table.
func NewChain(d keys.Deriver, tables ...*models.SlotTable) *Chain {
	return &Chain{keys: d, tables: tables}
}

// Len returns the number of records in the chain.
func (c *Chain) Len() int { return len(c.tables) }

// locate returns the table holding asset's slot.
func (c *Chain) locate(key id.Bytes32) (*models.SlotTable, bool) {
	for _, t := range c.tables {
		if _, ok := Find(t, key); ok {
			return t, true
		}
	}
	return nil, false
}

// Balance returns the owner's balance of asset.
func (c *Chain) Balance(asset id.AssetID) uint64 {
	key := c.keys.Key(asset)
	if t, ok := c.locate(key); ok {
		return Amount(t, key)
	}
	return 0
}

// Credit adds to the record already holding asset, otherwise allocates in the
// first record with a free slot.
func (c *Chain) Credit(asset id.AssetID, amount uint64) error {
	key := c.keys.Key(asset)
	if t, ok := c.locate(key); ok {
		return Credit(t, asset, key, amount)
	}
	if amount == 0 {
		return dErrors.New(dErrors.CodeZeroAmount, "credit amount must be positive")
	}
	for _, t := range c.tables {
		if HasFreeSlot(t) {
			return Credit(t, asset, key, amount)
		}
	}
	return dErrors.New(dErrors.CodeCapacityExceeded, "all balance slots are in use")
}

// Debit removes amount of asset from the record holding it.
func (c *Chain) Debit(asset id.AssetID, amount uint64) error {
	if amount == 0 {
		return dErrors.New(dErrors.CodeZeroAmount, "debit amount must be positive")
	}
	key := c.keys.Key(asset)
	t, ok := c.locate(key)
	if !ok {
		return dErrors.New(dErrors.CodeInsufficientBalance, "insufficient balance")
	}
	return Debit(t, asset, key, amount)
}

// TrackedCount is the number of tracked assets across the chain.
func (c *Chain) TrackedCount() int {
	n := 0
	for _, t := range c.tables {
		n += int(t.AssetCount)
	}
	return n
}

// Holdings lists every positive balance across the chain.
func (c *Chain) Holdings() []models.Holding {
	var out []models.Holding
	for _, t := range c.tables {
		out = append(out, Holdings(t, c.keys.Key)...)
	}
	return out
}
