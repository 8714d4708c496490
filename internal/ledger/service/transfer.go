package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
)

// Transfer moves amount of asset from the caller's ledger to another
// identity's ledger. No value leaves custody.
func (s *Service) Transfer(ctx context.Context, caller, to id.Identity, asset id.AssetID, amount uint64) (err error) {
	ctx, done := s.begin(ctx, "transfer",
		attribute.String("caller", caller.String()),
		attribute.String("to", to.String()),
	)
	defer done(&err)

	if amount == 0 {
		return dErrors.New(dErrors.CodeZeroAmount, "transfer amount must be positive")
	}
	if err := s.move(ctx, caller, to, []models.Leg{{Asset: asset, Amount: amount}}); err != nil {
		return err
	}

	s.audit(ctx, audit.Event{
		Action:       audit.EventTransferred,
		Actor:        caller,
		Counterparty: to,
		Asset:        asset.String(),
		Amount:       amount,
	})
	return nil
}

// TransferBatch moves one to five legs to one recipient. Either every leg is
// applied or none is.
func (s *Service) TransferBatch(ctx context.Context, caller, to id.Identity, legs []models.Leg) (err error) {
	ctx, done := s.begin(ctx, "transfer_batch",
		attribute.String("caller", caller.String()),
		attribute.String("to", to.String()),
		attribute.Int("legs", len(legs)),
	)
	defer done(&err)

	if len(legs) == 0 || len(legs) > models.MaxBatchLegs {
		return dErrors.New(dErrors.CodeInvalidInput, "a batch must have between 1 and 5 legs")
	}
	for _, leg := range legs {
		if leg.Amount == 0 {
			return dErrors.New(dErrors.CodeZeroAmount, "transfer amount must be positive")
		}
	}
	if err := s.move(ctx, caller, to, legs); err != nil {
		return err
	}

	s.audit(ctx, audit.Event{
		Action:       audit.EventBatchTransferred,
		Actor:        caller,
		Counterparty: to,
	}, "legs", len(legs))
	return nil
}

// move debits every leg from the sender and credits it to the recipient on
// in-memory copies, then commits both ledgers together.
func (s *Service) move(ctx context.Context, from, to id.Identity, legs []models.Leg) error {
	if to.IsNil() || to == from {
		return dErrors.New(dErrors.CodeInvalidRecipient, "recipient must be a different identity")
	}

	b, err := s.loadBank(ctx)
	if err != nil {
		return err
	}
	sender, err := s.loadLedger(ctx, b.config, from)
	if err != nil {
		return err
	}
	recipient, err := s.loadLedger(ctx, b.config, to)
	if err != nil {
		return err
	}
	if err := s.guard(ctx, sender, s.now()); err != nil {
		return err
	}

	// Sufficiency is checked for the whole batch before any credit so a
	// short later leg fails without partial work.
	debits := sender.chain()
	for _, leg := range legs {
		if err := debits.Debit(leg.Asset, leg.Amount); err != nil {
			return err
		}
	}
	credits := recipient.chain()
	for _, leg := range legs {
		if err := credits.Credit(leg.Asset, leg.Amount); err != nil {
			return err
		}
	}

	set := newRecordSet()
	sender.stage(set)
	recipient.stage(set)
	return s.commit(ctx, set)
}
