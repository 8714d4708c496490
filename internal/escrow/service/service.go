// Package service implements the time-locked escrow: an owner locks value
// for a recipient, who may claim it once the unlock time has passed.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"custody/internal/escrow/models"
	"custody/internal/ledger/metrics"
	ledgermodels "custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
)

// unclaimAttempts bounds the retries of the compensating commit after a
// failed payout.
const unclaimAttempts = 3

type (
	Store          = ports.RecordStore
	TransferPort   = ports.TransferPort
	Clock          = ports.Clock
	AuditPublisher = ports.AuditPublisher
)

// Service manages time locks. Locked value is held by the custody account
// until it is claimed.
type Service struct {
	store          Store
	transfers      TransferPort
	custody        id.Identity
	clock          Clock
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(store Store, transfers TransferPort, custody id.Identity, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if transfers == nil {
		return nil, fmt.Errorf("transfer port is required")
	}
	if custody.IsNil() {
		return nil, fmt.Errorf("escrow custody account is required")
	}

	svc := &Service{
		store:     store,
		transfers: transfers,
		custody:   custody,
		clock:     ports.SystemClock,
		logger:    slog.Default(),
		tracer:    otel.Tracer("custody/internal/escrow/service"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create registers an empty time lock owned by the caller.
func (s *Service) Create(ctx context.Context, owner id.Identity, req models.CreateRequest) (_ *models.TimeLockRecord, err error) {
	ctx, done := s.begin(ctx, "create", attribute.String("owner", owner.String()))
	defer done(&err)

	now := s.now()
	if req.Recipient.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidRecipient, "recipient is required")
	}
	if req.UnlockAt.Unix() <= now {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unlock time must be in the future")
	}
	if len(req.Note) > models.MaxNoteLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("note exceeds %d bytes", models.MaxNoteLength))
	}

	rec := &models.TimeLockRecord{
		ID:            id.NewTimeLockID(),
		Owner:         owner,
		Recipient:     req.Recipient,
		Asset:         req.Asset,
		UnlockAt:      req.UnlockAt.Unix(),
		CreatedAt:     now,
		Note:          req.Note,
		SchemaVersion: models.CurrentSchemaVersion,
	}
	if err := s.save(ctx, rec, 0); err != nil {
		return nil, err
	}

	s.audit(ctx, audit.Event{
		Action:       audit.EventTimeLockCreated,
		Actor:        owner,
		Counterparty: req.Recipient,
		Asset:        req.Asset.String(),
		Reference:    rec.ID.String(),
	}, "unlock_at", rec.UnlockAt)
	return rec, nil
}

// Fund moves amount from the owner's external account into the lock.
func (s *Service) Fund(ctx context.Context, caller id.Identity, lockID id.TimeLockID, amount uint64) (_ *models.TimeLockRecord, err error) {
	ctx, done := s.begin(ctx, "fund", attribute.String("lock_id", lockID.String()))
	defer done(&err)

	rec, version, err := s.load(ctx, lockID)
	if err != nil {
		return nil, err
	}
	if rec.Claimed {
		return nil, dErrors.New(dErrors.CodeAlreadyClaimed, "time lock has been claimed")
	}
	if caller != rec.Owner {
		s.audit(ctx, audit.Event{Action: audit.EventNotAuthorized, Actor: caller, Reference: lockID.String(), Reason: "fund"})
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "only the owner may fund a time lock")
	}
	if rec.Unlocked(s.now()) {
		return nil, dErrors.New(dErrors.CodeLockExpired, "time lock has already unlocked")
	}
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeZeroAmount, "fund amount must be positive")
	}
	total := rec.Amount + amount
	if total < rec.Amount {
		return nil, dErrors.New(dErrors.CodeOverflow, "time lock amount overflow")
	}
	rec.Amount = total

	if err := s.transfers.Transfer(ctx, caller, s.custody, rec.Asset, amount); err != nil {
		return nil, transferError(err, "failed to pull funds into escrow")
	}
	if err := s.save(ctx, rec, version); err != nil {
		s.refund(ctx, rec, caller, amount)
		return nil, err
	}

	s.audit(ctx, audit.Event{
		Action:    audit.EventTimeLockFunded,
		Actor:     caller,
		Asset:     rec.Asset.String(),
		Amount:    amount,
		Reference: lockID.String(),
	})
	return rec, nil
}

// Claim pays the locked amount to the recipient. A lock can be claimed once.
func (s *Service) Claim(ctx context.Context, caller id.Identity, lockID id.TimeLockID) (_ *models.TimeLockRecord, err error) {
	ctx, done := s.begin(ctx, "claim", attribute.String("lock_id", lockID.String()))
	defer done(&err)

	rec, version, err := s.load(ctx, lockID)
	if err != nil {
		return nil, err
	}
	if rec.Claimed {
		return nil, dErrors.New(dErrors.CodeAlreadyClaimed, "time lock has been claimed")
	}
	if caller != rec.Recipient {
		s.audit(ctx, audit.Event{Action: audit.EventNotAuthorized, Actor: caller, Reference: lockID.String(), Reason: "claim"})
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "only the recipient may claim a time lock")
	}
	if !rec.Unlocked(s.now()) {
		return nil, dErrors.New(dErrors.CodeStillLocked, "time lock has not unlocked yet")
	}
	if rec.Amount == 0 {
		return nil, dErrors.New(dErrors.CodeZeroAmount, "time lock holds no funds")
	}

	rec.Claimed = true
	if err := s.save(ctx, rec, version); err != nil {
		return nil, err
	}

	// The claim is committed before the payout so a concurrent claim loses
	// the version race instead of being paid twice.
	if err := s.transfers.Transfer(ctx, s.custody, caller, rec.Asset, rec.Amount); err != nil {
		s.unclaim(ctx, lockID)
		rec.Claimed = false
		return nil, transferError(err, "failed to pay out time lock")
	}

	s.audit(ctx, audit.Event{
		Action:       audit.EventTimeLockClaimed,
		Actor:        caller,
		Counterparty: rec.Owner,
		Asset:        rec.Asset.String(),
		Amount:       rec.Amount,
		Reference:    lockID.String(),
	})
	return rec, nil
}

// Get returns the lock with its derived unlock state.
func (s *Service) Get(ctx context.Context, lockID id.TimeLockID) (*models.TimeLockView, error) {
	rec, _, err := s.load(ctx, lockID)
	if err != nil {
		return nil, err
	}
	return rec.View(s.now()), nil
}

func (s *Service) now() ledgermodels.Timestamp {
	return s.clock.Now().Unix()
}

func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "escrow."+op, trace.WithAttributes(attrs...))
	return ctx, func(errp *error) {
		outcome := "ok"
		if errp != nil && *errp != nil {
			outcome = string(dErrors.CodeOf(*errp))
			span.RecordError(*errp)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		s.metrics.ObserveOperation("escrow_"+op, outcome, start)
	}
}

func (s *Service) audit(ctx context.Context, event audit.Event, attrs ...any) {
	ports.LogAudit(ctx, s.logger, s.auditPublisher, event.Normalize(s.clock.Now()), attrs...)
}
