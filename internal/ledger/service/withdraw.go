package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
)

// Withdraw debits the caller's ledger and pays amount of asset out of
// custody to the caller's external account.
func (s *Service) Withdraw(ctx context.Context, caller id.Identity, asset id.AssetID, amount uint64) error {
	return s.withdraw(ctx, "withdraw", caller, []models.Leg{{Asset: asset, Amount: amount}})
}

// WithdrawBatch withdraws one to five legs. The ledger debit is atomic; a
// payout failure restores the legs that were not paid.
func (s *Service) WithdrawBatch(ctx context.Context, caller id.Identity, legs []models.Leg) error {
	if len(legs) == 0 || len(legs) > models.MaxBatchLegs {
		return dErrors.New(dErrors.CodeInvalidInput, "a batch must have between 1 and 5 legs")
	}
	return s.withdraw(ctx, "withdraw_batch", caller, legs)
}

func (s *Service) withdraw(ctx context.Context, op string, caller id.Identity, legs []models.Leg) (err error) {
	ctx, done := s.begin(ctx, op,
		attribute.String("caller", caller.String()),
		attribute.Int("legs", len(legs)),
	)
	defer done(&err)

	for _, leg := range legs {
		if leg.Amount == 0 {
			return dErrors.New(dErrors.CodeZeroAmount, "withdrawal amount must be positive")
		}
	}

	b, err := s.loadBank(ctx)
	if err != nil {
		return err
	}
	ledger, err := s.loadLedger(ctx, b.config, caller)
	if err != nil {
		return err
	}
	if err := s.guard(ctx, ledger, s.now()); err != nil {
		return err
	}

	chain := ledger.chain()
	for _, leg := range legs {
		if err := chain.Debit(leg.Asset, leg.Amount); err != nil {
			return err
		}
	}

	set := newRecordSet()
	ledger.stage(set)
	if err := s.commit(ctx, set); err != nil {
		return err
	}

	for i, leg := range legs {
		if err := s.transfers.Transfer(ctx, b.config.Custody, caller, leg.Asset, leg.Amount); err != nil {
			s.restore(ctx, caller, legs[i:])
			return transferError(err, "failed to pay out withdrawal")
		}
		s.audit(ctx, audit.Event{
			Action: audit.EventWithdrawn,
			Actor:  caller,
			Asset:  leg.Asset.String(),
			Amount: leg.Amount,
		})
	}
	return nil
}
