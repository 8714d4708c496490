package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/platform/sentinel"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to PostgreSQL through the pgx driver.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	return nil
}

// PostgresRecordStore persists ledger records as versioned JSONB rows.
type PostgresRecordStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{db: db}
}

func (s *PostgresRecordStore) Get(ctx context.Context, key models.RecordKey) (*ports.Record, error) {
	rec := &ports.Record{Key: key}
	err := s.db.QueryRowContext(ctx, `SELECT version, data FROM ledger_records WHERE key = $1`, string(key)).
		Scan(&rec.Version, &rec.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get record %s: %w", key, err)
	}
	return rec, nil
}

// Commit applies every record in one transaction. Creates use
// INSERT .. ON CONFLICT DO NOTHING and updates are guarded on the expected
// version, so a row count of zero identifies the stale record.
func (s *PostgresRecordStore) Commit(ctx context.Context, records []ports.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		if err := apply(ctx, tx, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	return nil
}

func apply(ctx context.Context, tx *sql.Tx, rec ports.Record) error {
	var (
		res sql.Result
		err error
	)
	if rec.Version == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT INTO ledger_records (key, version, data)
			VALUES ($1, 1, $2)
			ON CONFLICT (key) DO NOTHING
		`, string(rec.Key), rec.Data)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE ledger_records
			SET version = version + 1, data = $3, updated_at = now()
			WHERE key = $1 AND version = $2
		`, string(rec.Key), rec.Version, rec.Data)
	}
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.Key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.Key, err)
	}
	if n == 0 {
		return fmt.Errorf("record %s not at version %d: %w", rec.Key, rec.Version, sentinel.ErrConflict)
	}
	return nil
}
