package service

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
)

// phaseRequirement is the number of tracked assets across the whole chain
// needed before the given phase can be created.
var phaseRequirement = [models.MaxExpansions + 1]int{1: 5, 2: 10, 3: 15, 4: 20}

// CreateExpansion adds the caller's next expansion record once the existing
// capacity is in use.
func (s *Service) CreateExpansion(ctx context.Context, caller id.Identity) (_ *models.VaultInfo, err error) {
	ctx, done := s.begin(ctx, "create_expansion", attribute.String("caller", caller.String()))
	defer done(&err)

	b, err := s.loadBank(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := s.loadLedger(ctx, b.config, caller)
	if err != nil {
		return nil, err
	}

	current := ledger.starter.CurrentPhase
	switch {
	case current > models.MaxExpansions:
		return nil, dErrors.New(dErrors.CodeInvalidPhase, "ledger records an invalid expansion phase")
	case current == models.MaxExpansions:
		return nil, dErrors.New(dErrors.CodeAllExpansionsCreated, "all expansions have been created")
	}

	next := current + 1
	if ledger.chain().TrackedCount() < phaseRequirement[next] {
		return nil, dErrors.New(dErrors.CodePreviousVaultNotFull,
			"phase "+strconv.Itoa(int(next))+" requires "+strconv.Itoa(phaseRequirement[next])+" tracked assets")
	}
	if ledger.starter.Expansions[next-1] != nil {
		return nil, dErrors.New(dErrors.CodeInvalidPhase, "expansion slot is already linked")
	}

	starterKey := models.LedgerKey(caller)
	key := models.ExpansionKey(caller, next)
	expansion := &models.ExpansionRecord{
		Parent:        starterKey,
		Owner:         caller,
		Phase:         next,
		SchemaVersion: models.CurrentSchemaVersion,
	}
	ledger.starter.Expansions[next-1] = &key
	ledger.starter.CurrentPhase = next
	ledger.starter.TotalCapacity = models.SlotCapacity + models.SlotCapacity*uint16(next)

	set := newRecordSet()
	set.put(starterKey, ledger.starterVersion, ledger.starter)
	set.put(key, 0, expansion)
	if err := s.commit(ctx, set); err != nil {
		return nil, err
	}
	ledger.expansions = append(ledger.expansions, &loadedExpansion{key: key, record: expansion, version: 1})

	s.metrics.IncrementExpansions(strconv.Itoa(int(next)))
	s.audit(ctx, audit.Event{
		Action:    audit.EventExpansionCreated,
		Actor:     caller,
		Reference: string(key),
	}, "phase", next)
	return ledger.info(), nil
}
