package service

import (
	"context"
	"math/bits"

	"go.opentelemetry.io/otel/attribute"

	"custody/internal/ledger/antispam"
	"custody/internal/ledger/fee"
	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
)

// Deposit pulls amount of asset from the caller's external account into
// custody and credits the caller's ledger with the amount net of the fee.
func (s *Service) Deposit(ctx context.Context, caller id.Identity, asset id.AssetID, amount uint64) (*models.DepositResult, error) {
	results, err := s.deposit(ctx, "deposit", caller, []models.Leg{{Asset: asset, Amount: amount}})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// DepositBatch deposits one to five legs atomically. Each leg pays the fee.
func (s *Service) DepositBatch(ctx context.Context, caller id.Identity, legs []models.Leg) ([]models.DepositResult, error) {
	if len(legs) == 0 || len(legs) > models.MaxBatchLegs {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a batch must have between 1 and 5 legs")
	}
	return s.deposit(ctx, "deposit_batch", caller, legs)
}

func (s *Service) deposit(ctx context.Context, op string, caller id.Identity, legs []models.Leg) (_ []models.DepositResult, err error) {
	ctx, done := s.begin(ctx, op,
		attribute.String("caller", caller.String()),
		attribute.Int("legs", len(legs)),
	)
	defer done(&err)

	for _, leg := range legs {
		if leg.Amount == 0 {
			return nil, dErrors.New(dErrors.CodeZeroAmount, "deposit amount must be positive")
		}
	}

	b, err := s.loadBank(ctx)
	if err != nil {
		return nil, err
	}
	unitFee, err := s.quoteFee(ctx, b.config)
	if err != nil {
		return nil, err
	}

	ledger, err := s.loadLedger(ctx, b.config, caller)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.guard(ctx, ledger, now); err != nil {
		return nil, err
	}

	vault, err := s.loadFeeVault(ctx)
	if err != nil {
		return nil, err
	}

	chain := ledger.chain()
	results := make([]models.DepositResult, 0, len(legs))
	for _, leg := range legs {
		net, err := fee.Split(leg.Amount, unitFee)
		if err != nil {
			return nil, err
		}
		if err := chain.Credit(leg.Asset, net); err != nil {
			return nil, err
		}
		total, carry := bits.Add64(vault.vault.AccumulatedFees, unitFee, 0)
		if carry != 0 {
			return nil, dErrors.New(dErrors.CodeOverflow, "fee vault overflow")
		}
		vault.vault.AccumulatedFees = total
		results = append(results, models.DepositResult{Asset: leg.Asset, Gross: leg.Amount, Fee: unitFee, Credited: net})
	}
	vault.vault.LastCollection = now

	set := newRecordSet()
	ledger.stage(set)
	set.put(models.FeeVaultKey, vault.version, vault.vault)

	// Value enters custody before the ledger reflects it. A failed commit
	// returns what was pulled.
	var pulled []models.Leg
	for _, leg := range legs {
		if err := s.transfers.Transfer(ctx, caller, b.config.Custody, leg.Asset, leg.Amount); err != nil {
			s.refund(ctx, b.config.Custody, caller, pulled)
			return nil, transferError(err, "failed to pull deposit into custody")
		}
		pulled = append(pulled, leg)
	}

	if err := s.commit(ctx, set); err != nil {
		s.refund(ctx, b.config.Custody, caller, pulled)
		return nil, err
	}

	for _, r := range results {
		s.metrics.AddDeposit(r.Gross, r.Fee)
		s.audit(ctx, audit.Event{
			Action: audit.EventDeposited,
			Actor:  caller,
			Asset:  r.Asset.String(),
			Amount: r.Credited,
		}, "fee", r.Fee)
	}
	return results, nil
}

// guard applies the anti-spam window to the acting identity's starter record.
func (s *Service) guard(ctx context.Context, ledger *ownerLedger, now models.Timestamp) error {
	if err := antispam.Check(ledger.starter, now); err != nil {
		if dErrors.HasCode(err, dErrors.CodeRateLimitExceeded) {
			s.metrics.IncrementRateLimited()
			s.audit(ctx, audit.Event{Action: audit.EventRateLimitExceeded, Actor: ledger.owner})
		}
		return err
	}
	return nil
}
