package service

import (
	"context"
	"encoding/json"
	"errors"

	"custody/internal/escrow/models"
	"custody/internal/ledger/ports"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/sentinel"
)

func (s *Service) load(ctx context.Context, lockID id.TimeLockID) (*models.TimeLockRecord, uint64, error) {
	raw, err := s.store.Get(ctx, models.TimeLockKey(lockID))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeNotFound, "time lock not found")
		}
		return nil, 0, storeError(err, "failed to load time lock")
	}
	var rec models.TimeLockRecord
	if err := json.Unmarshal(raw.Data, &rec); err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "corrupt time lock record")
	}
	if rec.SchemaVersion != models.CurrentSchemaVersion {
		return nil, 0, dErrors.New(dErrors.CodeInvalidSchemaVersion, "time lock has an unsupported schema version")
	}
	return &rec, raw.Version, nil
}

// save commits rec at the version it was read at; 0 creates it.
func (s *Service) save(ctx context.Context, rec *models.TimeLockRecord, version uint64) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode time lock")
	}
	err = s.store.Commit(ctx, []ports.Record{{Key: models.TimeLockKey(rec.ID), Version: version, Data: data}})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementCommitConflicts()
			return dErrors.Wrap(err, dErrors.CodeConflict, "time lock changed concurrently, retry the operation")
		}
		return storeError(err, "failed to commit time lock")
	}
	return nil
}

func storeError(err error, msg string) error {
	switch {
	case dErrors.Is(err):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
