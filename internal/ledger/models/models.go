// Package models holds the persisted ledger records and the value types that
// flow between the ledger services and their ports.
package models

import (
	"strconv"
	"time"

	id "custody/pkg/domain"
)

// CurrentSchemaVersion is the record layout written by this build.
const CurrentSchemaVersion uint8 = 1

// Slot table dimensions.
const (
	SlotCapacity  = 5
	MaxExpansions = 4
	MaxBatchLegs  = 5
	MaxNoteLength = 256
)

// DefaultMaxPriceStaleness bounds how old an oracle quote may be.
const DefaultMaxPriceStaleness = 60 * time.Second

// Timestamp is wall-clock seconds since the Unix epoch.
type Timestamp = int64

// BalanceSlot holds one (asset, amount) pair keyed by its derived slot key.
type BalanceSlot struct {
	Key    id.Bytes32 `json:"key"`
	Amount uint64     `json:"amount"`
	Used   bool       `json:"used"`
}

// AssetSlot records that the owner holds a positive balance of Asset.
type AssetSlot struct {
	Asset id.AssetID `json:"asset"`
	Used  bool       `json:"used"`
}

// SlotTable is the fixed-capacity balance and asset index shared by starter
// and expansion records.
//
// Invariants: BalanceCount == count(Balances[i].Used); AssetCount ==
// count(Assets[i].Used); an asset is tracked iff a used balance slot for it
// holds a positive amount.
type SlotTable struct {
	Balances     [SlotCapacity]BalanceSlot `json:"balances"`
	BalanceCount uint8                     `json:"balance_count"`
	Assets       [SlotCapacity]AssetSlot   `json:"assets"`
	AssetCount   uint8                     `json:"asset_count"`
}

// RecordKey addresses a whole record in the persistent store.
type RecordKey string

const (
	ConfigKey   RecordKey = "bank/config"
	FeeVaultKey RecordKey = "bank/fee_vault"
)

// LedgerKey is the starter-tier record key for owner.
func LedgerKey(owner id.Identity) RecordKey {
	return RecordKey("ledger/" + owner.String() + "/starter")
}

// ExpansionKey is the record key of owner's expansion at phase (1..4).
func ExpansionKey(owner id.Identity, phase uint8) RecordKey {
	return RecordKey("ledger/" + owner.String() + "/expansion/" + strconv.Itoa(int(phase)))
}

// BankConfig is the singleton bank configuration.
type BankConfig struct {
	FeeCollector      id.Identity `json:"fee_collector"`
	Salt              id.Bytes32  `json:"salt"`
	PriceFeedID       id.Bytes32  `json:"price_feed_id"`
	PriceFeedRef      id.Identity `json:"price_feed_ref"`
	Custody           id.Identity `json:"custody"`
	MaxPriceStaleness int64       `json:"max_price_staleness_seconds"`
	SchemaVersion     uint8       `json:"schema_version"`
}

// Staleness returns the oracle staleness bound, falling back to the default.
func (c *BankConfig) Staleness() time.Duration {
	if c.MaxPriceStaleness <= 0 {
		return DefaultMaxPriceStaleness
	}
	return time.Duration(c.MaxPriceStaleness) * time.Second
}

// LedgerRecord is an owner's starter-tier record.
type LedgerRecord struct {
	Owner id.Identity `json:"owner"`
	SlotTable

	TxCountSec uint8     `json:"tx_count_sec"`
	TxCountMin uint16    `json:"tx_count_min"`
	LastTxSec  Timestamp `json:"last_tx_sec"`
	LastTxMin  Timestamp `json:"last_tx_min"`

	Expansions    [MaxExpansions]*RecordKey `json:"expansions"`
	CurrentPhase  uint8                     `json:"current_phase"`
	TotalCapacity uint16                    `json:"total_capacity"`

	SchemaVersion uint8 `json:"schema_version"`
}

// NewLedgerRecord returns an empty starter record for owner.
func NewLedgerRecord(owner id.Identity) *LedgerRecord {
	return &LedgerRecord{
		Owner:         owner,
		TotalCapacity: SlotCapacity,
		SchemaVersion: CurrentSchemaVersion,
	}
}

// ExpansionRecord adds SlotCapacity more balances to an owner's ledger.
type ExpansionRecord struct {
	SlotTable

	Parent        RecordKey   `json:"parent"`
	Owner         id.Identity `json:"owner"`
	Phase         uint8       `json:"phase"`
	SchemaVersion uint8       `json:"schema_version"`
}

// FeeVault accumulates deposit fees until collected.
type FeeVault struct {
	AccumulatedFees uint64    `json:"accumulated_fees"`
	LastCollection  Timestamp `json:"last_collection"`
	SchemaVersion   uint8     `json:"schema_version"`
}

// PriceQuote is a price observation from the oracle.
type PriceQuote struct {
	Price       int64     `json:"price"`
	Exponent    int32     `json:"exponent"`
	Confidence  uint64    `json:"confidence"`
	PublishTime Timestamp `json:"publish_time"`
}

// Leg is one asset movement in a batch operation.
type Leg struct {
	Asset  id.AssetID `json:"asset"`
	Amount uint64     `json:"amount"`
}

// DepositResult reports how a deposit leg was split.
type DepositResult struct {
	Asset    id.AssetID `json:"asset"`
	Gross    uint64     `json:"gross"`
	Fee      uint64     `json:"fee"`
	Credited uint64     `json:"credited"`
}

// Holding is a positive balance of one asset.
type Holding struct {
	Asset  id.AssetID `json:"asset"`
	Amount uint64     `json:"amount"`
}

// VaultInfo summarises an owner's capacity state.
type VaultInfo struct {
	StarterAssets   uint8               `json:"starter_assets"`
	StarterCapacity uint8               `json:"starter_capacity"`
	HasExpansion    [MaxExpansions]bool `json:"has_expansion"`
	TotalCapacity   uint16              `json:"total_capacity"`
	CurrentPhase    uint8               `json:"current_phase"`
	TrackedAssets   int                 `json:"tracked_assets"`
}
