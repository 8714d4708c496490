package service

import (
	"context"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	"custody/pkg/platform/audit"
)

// Balance returns owner's balance of asset.
func (s *Service) Balance(ctx context.Context, owner id.Identity, asset id.AssetID) (uint64, error) {
	b, err := s.loadBank(ctx)
	if err != nil {
		return 0, err
	}
	ledger, err := s.loadLedger(ctx, b.config, owner)
	if err != nil {
		return 0, err
	}
	return ledger.chain().Balance(asset), nil
}

// Holdings lists every positive balance across owner's starter and
// expansion records.
func (s *Service) Holdings(ctx context.Context, owner id.Identity) (_ []models.Holding, err error) {
	ctx, done := s.begin(ctx, "holdings")
	defer done(&err)

	b, err := s.loadBank(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := s.loadLedger(ctx, b.config, owner)
	if err != nil {
		return nil, err
	}

	holdings := ledger.chain().Holdings()
	s.audit(ctx, audit.Event{Action: audit.EventHoldingsRead, Actor: owner}, "assets", len(holdings))
	return holdings, nil
}

// VaultInfo summarises owner's capacity and expansion state.
func (s *Service) VaultInfo(ctx context.Context, owner id.Identity) (*models.VaultInfo, error) {
	b, err := s.loadBank(ctx)
	if err != nil {
		return nil, err
	}
	ledger, err := s.loadLedger(ctx, b.config, owner)
	if err != nil {
		return nil, err
	}
	return ledger.info(), nil
}

func (l *ownerLedger) info() *models.VaultInfo {
	info := &models.VaultInfo{
		StarterAssets:   l.starter.AssetCount,
		StarterCapacity: models.SlotCapacity,
		TotalCapacity:   l.starter.TotalCapacity,
		CurrentPhase:    l.starter.CurrentPhase,
		TrackedAssets:   l.chain().TrackedCount(),
	}
	for i, ref := range l.starter.Expansions {
		info.HasExpansion[i] = ref != nil
	}
	return info
}
