// Package service implements the custodial ledger: deposits, withdrawals,
// internal transfers, capacity expansion and fee collection over whole-record
// compare-and-commit units.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"custody/internal/ledger/metrics"
	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/platform/audit"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/sentinel"
)

// Type aliases for shared interfaces.
type (
	Store          = ports.RecordStore
	TransferPort   = ports.TransferPort
	PriceOracle    = ports.PriceOracle
	Clock          = ports.Clock
	AuditPublisher = ports.AuditPublisher
)

// Service owns the ledger records. Every operation loads the records it
// touches, mutates in-memory copies and commits them as one versioned unit.
type Service struct {
	store          Store
	transfers      TransferPort
	oracle         PriceOracle
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

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func New(store Store, transfers TransferPort, oracle PriceOracle, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if transfers == nil {
		return nil, fmt.Errorf("transfer port is required")
	}
	if oracle == nil {
		return nil, fmt.Errorf("price oracle is required")
	}

	svc := &Service{
		store:     store,
		transfers: transfers,
		oracle:    oracle,
		clock:     ports.SystemClock,
		logger:    slog.Default(),
		tracer:    otel.Tracer("custody/internal/ledger/service"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *Service) now() models.Timestamp {
	return s.clock.Now().Unix()
}

// begin opens a span and returns a finisher that records the outcome on the
// span and in the operation metrics.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attrs...))
	return ctx, func(errp *error) {
		outcome := "ok"
		if errp != nil && *errp != nil {
			outcome = string(dErrors.CodeOf(*errp))
			span.RecordError(*errp)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		s.metrics.ObserveOperation(op, outcome, start)
	}
}

func (s *Service) audit(ctx context.Context, event audit.Event, attrs ...any) {
	ports.LogAudit(ctx, s.logger, s.auditPublisher, event.Normalize(s.clock.Now()), attrs...)
}

// commit writes a record set and translates store failures.
func (s *Service) commit(ctx context.Context, set *recordSet) error {
	records, err := set.records()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode records")
	}
	if err := s.store.Commit(ctx, records); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementCommitConflicts()
			return dErrors.Wrap(err, dErrors.CodeConflict, "ledger changed concurrently, retry the operation")
		}
		return storeError(err, "failed to commit records")
	}
	return nil
}

// storeError maps infrastructure failures to domain errors, keeping domain
// errors raised by decoders as they are.
func storeError(err error, msg string) error {
	switch {
	case dErrors.Is(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
