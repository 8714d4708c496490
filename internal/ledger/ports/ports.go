// Package ports defines the interfaces the ledger and escrow services consume.
// Adapters in store/, oracle/ and custody/ implement them.
package ports

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	"custody/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks TransferPort,PriceOracle,RecordStore,AuditPublisher

// Record is a whole persisted record. Version is the store's optimistic
// concurrency token; zero means the record does not exist yet.
type Record struct {
	Key     models.RecordKey
	Version uint64
	Data    []byte
}

// RecordStore loads whole records and commits record sets atomically.
type RecordStore interface {
	// Get returns the record for key, or sentinel.ErrNotFound.
	Get(ctx context.Context, key models.RecordKey) (*Record, error)

	// Commit writes every record in the set or none of them. Each record's
	// Version must equal the stored version (zero: must not exist); a
	// mismatch fails the whole set with sentinel.ErrConflict.
	Commit(ctx context.Context, records []Record) error
}

// TransferPort moves custody of real value between external accounts.
type TransferPort interface {
	Transfer(ctx context.Context, from, to id.Identity, asset id.AssetID, amount uint64) error
}

// PriceOracle returns the current price for a feed no older than maxStaleness.
type PriceOracle interface {
	CurrentPrice(ctx context.Context, feedID id.Bytes32, maxStaleness time.Duration) (models.PriceQuote, error)
}

// Clock is the wall-clock source. The ledger uses second resolution.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the process wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// AuditPublisher emits audit events for ledger operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs an audit event to the structured logger and, when present,
// forwards it to the publisher.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event, attrs ...any) {
	if requestID := middleware.GetReqID(ctx); requestID != "" {
		event.RequestID = requestID
		attrs = append(attrs, "request_id", requestID)
	}

	args := append(attrs, "event", string(event.Action), "log_type", "audit")
	if !event.Actor.IsNil() {
		args = append(args, "actor", event.Actor.String())
	}

	if logger != nil {
		logger.InfoContext(ctx, string(event.Action), args...)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event.Action), "error", err)
	}
}
