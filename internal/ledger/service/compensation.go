package service

import (
	"context"
	"errors"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
)

// restoreAttempts bounds the retries of a compensating commit that loses a
// race with a concurrent writer.
const restoreAttempts = 3

func transferError(err error, msg string) error {
	switch {
	case dErrors.Is(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeTransferFailed, msg)
	}
}

// refund sends pulled legs back from custody. It runs detached from the
// request's cancellation so an abandoned request still returns value.
func (s *Service) refund(ctx context.Context, custody, owner id.Identity, legs []models.Leg) {
	ctx = context.WithoutCancel(ctx)
	for _, leg := range legs {
		if err := s.transfers.Transfer(ctx, custody, owner, leg.Asset, leg.Amount); err != nil {
			s.compensationFailed(ctx, owner, leg, "refund", err)
			continue
		}
		s.metrics.IncrementCompensations("refunded")
	}
}

// restore credits legs back to owner's ledger after a payout failed. The
// debit was already committed, so this is a fresh read-modify-commit.
func (s *Service) restore(ctx context.Context, owner id.Identity, legs []models.Leg) {
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 0; attempt < restoreAttempts; attempt++ {
		if err = s.restoreOnce(ctx, owner, legs); err == nil {
			s.metrics.IncrementCompensations("restored")
			return
		}
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			break
		}
	}
	for _, leg := range legs {
		s.compensationFailed(ctx, owner, leg, "restore", err)
	}
}

func (s *Service) restoreOnce(ctx context.Context, owner id.Identity, legs []models.Leg) error {
	b, err := s.loadBank(ctx)
	if err != nil {
		return err
	}
	ledger, err := s.loadLedger(ctx, b.config, owner)
	if err != nil {
		return err
	}
	chain := ledger.chain()
	for _, leg := range legs {
		if err := chain.Credit(leg.Asset, leg.Amount); err != nil {
			return err
		}
	}
	set := newRecordSet()
	ledger.stage(set)
	return s.commit(ctx, set)
}

func (s *Service) compensationFailed(ctx context.Context, owner id.Identity, leg models.Leg, step string, err error) {
	s.metrics.IncrementCompensations("failed")
	s.logger.ErrorContext(ctx, "compensation failed",
		"step", step,
		"owner", owner.String(),
		"asset", leg.Asset.String(),
		"amount", leg.Amount,
		"error", err,
	)
	s.audit(ctx, audit.Event{
		Action: audit.EventCompensationFailed,
		Actor:  owner,
		Asset:  leg.Asset.String(),
		Amount: leg.Amount,
		Reason: step,
	})
}
