package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/httputil"
	authmw "custody/pkg/platform/middleware/auth"
)

// Minter credits external balances out of thin air. Only the in-process
// custody book implements it.
type Minter interface {
	Mint(account id.Identity, asset id.AssetID, amount uint64) error
}

type mintRequest struct {
	Asset  string `json:"asset"`
	Amount uint64 `json:"amount"`

	asset id.AssetID
}

func (m *mintRequest) Validate() error {
	if m.Amount == 0 {
		return dErrors.New(dErrors.CodeZeroAmount, "amount must be positive")
	}
	if m.Asset == "" || m.Asset == "native" {
		m.asset = id.NativeAsset
		return nil
	}
	asset, err := id.ParseAssetID(m.Asset)
	if err != nil {
		return err
	}
	m.asset = asset
	return nil
}

type mintResponse struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Amount  uint64 `json:"amount"`
}

// mintHandler funds the caller's external account so the ledger can be
// exercised without a real custody backend.
func mintHandler(minter Minter, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetReqID(ctx)
		caller := authmw.GetIdentity(ctx)

		req, ok := httputil.DecodeAndPrepare[mintRequest](w, r, logger, ctx, requestID)
		if !ok {
			return
		}
		if err := minter.Mint(caller, req.asset, req.Amount); err != nil {
			logger.WarnContext(ctx, "dev mint failed", "request_id", requestID, "error", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeOverflow, "mint would overflow balance"))
			return
		}
		logger.InfoContext(ctx, "dev mint", "request_id", requestID, "account", caller.String(), "asset", req.asset.String(), "amount", req.Amount)
		httputil.WriteJSON(w, http.StatusOK, mintResponse{
			Account: caller.String(),
			Asset:   req.asset.String(),
			Amount:  req.Amount,
		})
	}
}
