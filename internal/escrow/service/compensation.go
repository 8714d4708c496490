package service

import (
	"context"
	"errors"

	"custody/internal/escrow/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
)

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

// refund returns a pull whose commit failed.
func (s *Service) refund(ctx context.Context, rec *models.TimeLockRecord, owner id.Identity, amount uint64) {
	ctx = context.WithoutCancel(ctx)
	if err := s.transfers.Transfer(ctx, s.custody, owner, rec.Asset, amount); err != nil {
		s.compensationFailed(ctx, rec, owner, amount, "refund", err)
		return
	}
	s.metrics.IncrementCompensations("refunded")
}

// unclaim reopens a lock whose payout failed.
func (s *Service) unclaim(ctx context.Context, lockID id.TimeLockID) {
	ctx = context.WithoutCancel(ctx)

	var (
		rec *models.TimeLockRecord
		err error
	)
	for attempt := 0; attempt < unclaimAttempts; attempt++ {
		var version uint64
		rec, version, err = s.load(ctx, lockID)
		if err != nil {
			break
		}
		rec.Claimed = false
		if err = s.save(ctx, rec, version); err == nil {
			s.metrics.IncrementCompensations("restored")
			return
		}
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			break
		}
	}
	if rec == nil {
		rec = &models.TimeLockRecord{ID: lockID}
	}
	s.compensationFailed(ctx, rec, rec.Recipient, rec.Amount, "unclaim", err)
}

func (s *Service) compensationFailed(ctx context.Context, rec *models.TimeLockRecord, owner id.Identity, amount uint64, step string, err error) {
	s.metrics.IncrementCompensations("failed")
	s.logger.ErrorContext(ctx, "compensation failed",
		"step", step,
		"lock_id", rec.ID.String(),
		"owner", owner.String(),
		"amount", amount,
		"error", err,
	)
	s.audit(ctx, audit.Event{
		Action:    audit.EventCompensationFailed,
		Actor:     owner,
		Asset:     rec.Asset.String(),
		Amount:    amount,
		Reference: rec.ID.String(),
		Reason:    step,
	})
}
