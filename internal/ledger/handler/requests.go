package handler

import (
	"strings"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
)

// LegRequest is one asset movement. An empty asset denotes the native asset.
type LegRequest struct {
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`
}

func (l LegRequest) parse() (models.Leg, error) {
	asset := id.NativeAsset
	if s := strings.TrimSpace(l.Asset); s != "" {
		parsed, err := id.ParseAssetID(s)
		if err != nil {
			return models.Leg{}, err
		}
		asset = parsed
	}
	return models.Leg{Asset: asset, Amount: l.Amount}, nil
}

// MovementRequest is the body of POST /ledger/deposits and
// POST /ledger/withdrawals. Either a single asset and amount or a list of
// legs is accepted.
type MovementRequest struct {
	Asset  string       `json:"asset,omitempty"`
	Amount uint64       `json:"amount,omitempty"`
	Legs   []LegRequest `json:"legs,omitempty"`

	parsedLegs []models.Leg
	batch      bool
}

// Validate implements httputil.Validatable.
func (r *MovementRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	legs, batch, err := parseLegs(r.Asset, r.Amount, r.Legs)
	if err != nil {
		return err
	}
	r.parsedLegs, r.batch = legs, batch
	return nil
}

// TransferRequest is the body of POST /ledger/transfers.
type TransferRequest struct {
	To     string       `json:"to"`
	Asset  string       `json:"asset,omitempty"`
	Amount uint64       `json:"amount,omitempty"`
	Legs   []LegRequest `json:"legs,omitempty"`

	parsedTo   id.Identity
	parsedLegs []models.Leg
	batch      bool
}

// Validate implements httputil.Validatable.
func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	to := strings.TrimSpace(r.To)
	if to == "" {
		return dErrors.New(dErrors.CodeInvalidRecipient, "to is required")
	}
	parsed, err := id.ParseIdentity(to)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidRecipient, "to is not a valid identity")
	}
	r.parsedTo = parsed

	legs, batch, err := parseLegs(r.Asset, r.Amount, r.Legs)
	if err != nil {
		return err
	}
	r.parsedLegs, r.batch = legs, batch
	return nil
}

// parseLegs accepts either the single-asset fields or a legs list. Leg
// count and amounts are left to the service.
func parseLegs(asset string, amount uint64, legs []LegRequest) ([]models.Leg, bool, error) {
	if len(legs) == 0 {
		leg, err := LegRequest{Asset: asset, Amount: amount}.parse()
		if err != nil {
			return nil, false, err
		}
		return []models.Leg{leg}, false, nil
	}
	if asset != "" || amount != 0 {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "use either asset and amount or legs, not both")
	}
	if len(legs) > models.MaxBatchLegs {
		return nil, false, dErrors.New(dErrors.CodeInvalidInput, "a batch must have between 1 and 5 legs")
	}
	out := make([]models.Leg, 0, len(legs))
	for _, l := range legs {
		leg, err := l.parse()
		if err != nil {
			return nil, false, err
		}
		out = append(out, leg)
	}
	return out, true, nil
}
