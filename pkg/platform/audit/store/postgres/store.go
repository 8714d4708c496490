package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	id "custody/pkg/domain"
	audit "custody/pkg/platform/audit"
)

// Store implements audit.Store on the audit_events table. The table is
// created by the ledger schema migrations.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one event. Identities are stored in their base58 text form.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, action, actor, counterparty,
			asset, amount, reference, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var counterparty *string
	if !event.Counterparty.IsNil() {
		c := event.Counterparty.String()
		counterparty = &c
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(event.Category),
		event.Timestamp,
		string(event.Action),
		event.Actor.String(),
		counterparty,
		event.Asset,
		// NUMERIC(20,0) holds the full uint64 range
		strconv.FormatUint(event.Amount, 10),
		event.Reference,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByActor returns events for a specific actor, most recent first.
func (s *Store) ListByActor(ctx context.Context, actor id.Identity) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, action, actor, counterparty,
			   asset, amount::TEXT, reference, reason, request_id
		FROM audit_events
		WHERE actor = $1
		ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, actor.String())
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, action, actor, counterparty,
			   asset, amount::TEXT, reference, reason, request_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event        audit.Event
			category     string
			action       string
			actor        string
			counterparty sql.NullString
			amount       string
		)

		err := rows.Scan(
			&category,
			&event.Timestamp,
			&action,
			&actor,
			&counterparty,
			&event.Asset,
			&amount,
			&event.Reference,
			&event.Reason,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = audit.EventCategory(category)
		event.Action = audit.AuditEvent(action)
		if err := event.Actor.UnmarshalText([]byte(actor)); err != nil {
			return nil, fmt.Errorf("decode audit actor: %w", err)
		}
		if counterparty.Valid {
			if err := event.Counterparty.UnmarshalText([]byte(counterparty.String)); err != nil {
				return nil, fmt.Errorf("decode audit counterparty: %w", err)
			}
		}
		if event.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, fmt.Errorf("decode audit amount: %w", err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}
