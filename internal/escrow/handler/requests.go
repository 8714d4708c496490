package handler

import (
	"strings"
	"time"

	"custody/internal/escrow/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// CreateRequest is the body of POST /escrow/locks.
type CreateRequest struct {
	Recipient string    `json:"recipient"`
	Asset     string    `json:"asset,omitempty"`
	UnlockAt  time.Time `json:"unlock_at"`
	Note      string    `json:"note,omitempty"`

	parsed models.CreateRequest
}

// Validate implements httputil.Validatable. Time-relative checks are left to
// the service, which owns the clock.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Note) > models.MaxNoteLength {
		return dErrors.New(dErrors.CodeInvalidInput, "note exceeds 256 bytes")
	}

	recipient := strings.TrimSpace(r.Recipient)
	if recipient == "" {
		return dErrors.New(dErrors.CodeInvalidRecipient, "recipient is required")
	}
	parsedRecipient, err := id.ParseIdentity(recipient)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidRecipient, "recipient is not a valid identity")
	}

	asset := id.NativeAsset
	if s := strings.TrimSpace(r.Asset); s != "" {
		if asset, err = id.ParseAssetID(s); err != nil {
			return err
		}
	}
	if r.UnlockAt.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "unlock_at is required")
	}

	r.parsed = models.CreateRequest{
		Recipient: parsedRecipient,
		Asset:     asset,
		UnlockAt:  r.UnlockAt,
		Note:      r.Note,
	}
	return nil
}

// FundRequest is the body of POST /escrow/locks/{id}/fund.
type FundRequest struct {
	Amount uint64 `json:"amount"`
}

// Validate implements httputil.Validatable.
func (r *FundRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}
