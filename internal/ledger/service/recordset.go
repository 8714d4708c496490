package service

import (
	"context"
	"encoding/json"
	"errors"

	"golang.org/x/sync/errgroup"

	"custody/internal/ledger/balance"
	"custody/internal/ledger/keys"
	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/sentinel"
)

// loadRecord reads and decodes key into v. It returns the stored version, or
// sentinel.ErrNotFound when the record does not exist.
func loadRecord(ctx context.Context, store Store, key models.RecordKey, v any) (uint64, error) {
	rec, err := store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(rec.Data, v); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt record "+string(key))
	}
	return rec.Version, nil
}

func checkSchema(version uint8, what string) error {
	if version != models.CurrentSchemaVersion {
		return dErrors.New(dErrors.CodeInvalidSchemaVersion, what+" has an unsupported schema version")
	}
	return nil
}

// recordSet collects the records an operation will commit together with the
// versions they were read at.
type recordSet struct {
	entries []setEntry
	index   map[models.RecordKey]int
}

type setEntry struct {
	key     models.RecordKey
	version uint64
	value   any
}

func newRecordSet() *recordSet {
	return &recordSet{index: make(map[models.RecordKey]int)}
}

// put stages value for key. Staging a key twice replaces the value and keeps
// the first version.
func (rs *recordSet) put(key models.RecordKey, version uint64, value any) {
	if i, ok := rs.index[key]; ok {
		rs.entries[i].value = value
		return
	}
	rs.index[key] = len(rs.entries)
	rs.entries = append(rs.entries, setEntry{key: key, version: version, value: value})
}

func (rs *recordSet) records() ([]ports.Record, error) {
	out := make([]ports.Record, 0, len(rs.entries))
	for _, e := range rs.entries {
		data, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		out = append(out, ports.Record{Key: e.key, Version: e.version, Data: data})
	}
	return out, nil
}

// bank is the loaded singleton configuration.
type bank struct {
	config  *models.BankConfig
	version uint64
}

func (s *Service) loadBank(ctx context.Context) (*bank, error) {
	var cfg models.BankConfig
	version, err := loadRecord(ctx, s.store, models.ConfigKey, &cfg)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "bank is not initialized")
		}
		return nil, storeError(err, "failed to load bank config")
	}
	if err := checkSchema(cfg.SchemaVersion, "bank config"); err != nil {
		return nil, err
	}
	return &bank{config: &cfg, version: version}, nil
}

type feeVault struct {
	vault   *models.FeeVault
	version uint64
}

func (s *Service) loadFeeVault(ctx context.Context) (*feeVault, error) {
	var v models.FeeVault
	version, err := loadRecord(ctx, s.store, models.FeeVaultKey, &v)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "fee vault is not initialized")
		}
		return nil, storeError(err, "failed to load fee vault")
	}
	if err := checkSchema(v.SchemaVersion, "fee vault"); err != nil {
		return nil, err
	}
	return &feeVault{vault: &v, version: version}, nil
}

// ownerLedger is an owner's starter record plus every linked expansion.
type ownerLedger struct {
	owner          id.Identity
	starter        *models.LedgerRecord
	starterVersion uint64
	expansions     []*loadedExpansion
	deriver        keys.Deriver
}

type loadedExpansion struct {
	key     models.RecordKey
	record  *models.ExpansionRecord
	version uint64
}

// loadLedger reads owner's records. A missing starter record yields a fresh
// one at version zero so the commit creates it.
func (s *Service) loadLedger(ctx context.Context, cfg *models.BankConfig, owner id.Identity) (*ownerLedger, error) {
	l := &ownerLedger{
		owner:   owner,
		deriver: keys.NewDeriver(cfg.Salt, owner),
	}

	var starter models.LedgerRecord
	version, err := loadRecord(ctx, s.store, models.LedgerKey(owner), &starter)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		l.starter = models.NewLedgerRecord(owner)
		return l, nil
	case err != nil:
		return nil, storeError(err, "failed to load ledger")
	}
	if err := checkSchema(starter.SchemaVersion, "ledger record"); err != nil {
		return nil, err
	}
	l.starter = &starter
	l.starterVersion = version

	expansions := make([]*loadedExpansion, models.MaxExpansions)
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range starter.Expansions {
		if ref == nil {
			continue
		}
		key := *ref
		g.Go(func() error {
			var rec models.ExpansionRecord
			v, err := loadRecord(gctx, s.store, key, &rec)
			if err != nil {
				return storeError(err, "failed to load expansion "+string(key))
			}
			if err := checkSchema(rec.SchemaVersion, "expansion record"); err != nil {
				return err
			}
			expansions[i] = &loadedExpansion{key: key, record: &rec, version: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, e := range expansions {
		if e != nil {
			l.expansions = append(l.expansions, e)
		}
	}
	return l, nil
}

// chain returns the balance view over the starter and expansion tables.
// Mutations through the chain write into the loaded records.
func (l *ownerLedger) chain() *balance.Chain {
	tables := make([]*models.SlotTable, 0, 1+len(l.expansions))
	tables = append(tables, &l.starter.SlotTable)
	for _, e := range l.expansions {
		tables = append(tables, &e.record.SlotTable)
	}
	return balance.NewChain(l.deriver, tables...)
}

// stage adds every record of the ledger to set.
func (l *ownerLedger) stage(set *recordSet) {
	set.put(models.LedgerKey(l.owner), l.starterVersion, l.starter)
	for _, e := range l.expansions {
		set.put(e.key, e.version, e.record)
	}
}
