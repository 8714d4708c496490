package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"custody/internal/ledger/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/httputil"
	authmw "custody/pkg/platform/middleware/auth"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the ledger operations exposed over HTTP.
type Service interface {
	Deposit(ctx context.Context, caller id.Identity, asset id.AssetID, amount uint64) (*models.DepositResult, error)
	DepositBatch(ctx context.Context, caller id.Identity, legs []models.Leg) ([]models.DepositResult, error)
	Withdraw(ctx context.Context, caller id.Identity, asset id.AssetID, amount uint64) error
	WithdrawBatch(ctx context.Context, caller id.Identity, legs []models.Leg) error
	Transfer(ctx context.Context, caller, to id.Identity, asset id.AssetID, amount uint64) error
	TransferBatch(ctx context.Context, caller, to id.Identity, legs []models.Leg) error
	CreateExpansion(ctx context.Context, caller id.Identity) (*models.VaultInfo, error)
	Balance(ctx context.Context, owner id.Identity, asset id.AssetID) (uint64, error)
	Holdings(ctx context.Context, owner id.Identity) ([]models.Holding, error)
	VaultInfo(ctx context.Context, owner id.Identity) (*models.VaultInfo, error)
	CurrentFee(ctx context.Context) (uint64, error)
	FeeVault(ctx context.Context) (*models.FeeVault, error)
	CollectFees(ctx context.Context, caller id.Identity) (uint64, error)
}

// Handler wires ledger endpoints to the ledger service. Every route expects
// the auth middleware to have stored the caller identity.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the endpoints that act on the caller's ledger. The router
// must authenticate them.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ledger/deposits", h.HandleDeposit)
	r.Post("/ledger/withdrawals", h.HandleWithdraw)
	r.Post("/ledger/transfers", h.HandleTransfer)
	r.Post("/ledger/expansions", h.HandleCreateExpansion)
	r.Get("/ledger/holdings", h.HandleHoldings)
	r.Get("/ledger/vault", h.HandleVaultInfo)
	r.Get("/ledger/balances/{asset}", h.HandleBalance)
	r.Post("/bank/fees/collect", h.HandleCollectFees)
}

// RegisterPublic mounts the bank reads that need no caller.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/bank/fee", h.HandleCurrentFee)
	r.Get("/bank/fee-vault", h.HandleFeeVault)
}

// caller returns the authenticated identity or writes 401.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Identity, bool) {
	caller := authmw.GetIdentity(r.Context())
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.Identity{}, false
	}
	return caller, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, caller id.Identity, err error) {
	log := h.logger.WarnContext
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		log = h.logger.ErrorContext
	}
	log(ctx, op+" failed",
		"request_id", middleware.GetReqID(ctx),
		"caller", caller.String(),
		"error", err,
	)
	httputil.WriteError(w, err)
}

// HandleDeposit handles POST /ledger/deposits.
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MovementRequest](w, r, h.logger, ctx, middleware.GetReqID(ctx))
	if !ok {
		return
	}

	var results []models.DepositResult
	if req.batch {
		batch, err := h.service.DepositBatch(ctx, caller, req.parsedLegs)
		if err != nil {
			h.fail(ctx, w, "deposit", caller, err)
			return
		}
		results = batch
	} else {
		leg := req.parsedLegs[0]
		res, err := h.service.Deposit(ctx, caller, leg.Asset, leg.Amount)
		if err != nil {
			h.fail(ctx, w, "deposit", caller, err)
			return
		}
		results = []models.DepositResult{*res}
	}
	httputil.WriteJSON(w, http.StatusCreated, DepositResponse{Results: results})
}

// HandleWithdraw handles POST /ledger/withdrawals.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[MovementRequest](w, r, h.logger, ctx, middleware.GetReqID(ctx))
	if !ok {
		return
	}

	var err error
	if req.batch {
		err = h.service.WithdrawBatch(ctx, caller, req.parsedLegs)
	} else {
		err = h.service.Withdraw(ctx, caller, req.parsedLegs[0].Asset, req.parsedLegs[0].Amount)
	}
	if err != nil {
		h.fail(ctx, w, "withdraw", caller, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransfer handles POST /ledger/transfers.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, middleware.GetReqID(ctx))
	if !ok {
		return
	}

	var err error
	if req.batch {
		err = h.service.TransferBatch(ctx, caller, req.parsedTo, req.parsedLegs)
	} else {
		err = h.service.Transfer(ctx, caller, req.parsedTo, req.parsedLegs[0].Asset, req.parsedLegs[0].Amount)
	}
	if err != nil {
		h.fail(ctx, w, "transfer", caller, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateExpansion handles POST /ledger/expansions.
func (h *Handler) HandleCreateExpansion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	info, err := h.service.CreateExpansion(ctx, caller)
	if err != nil {
		h.fail(ctx, w, "create expansion", caller, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, info)
}

// HandleHoldings handles GET /ledger/holdings.
func (h *Handler) HandleHoldings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	holdings, err := h.service.Holdings(ctx, caller)
	if err != nil {
		h.fail(ctx, w, "holdings", caller, err)
		return
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	httputil.WriteJSON(w, http.StatusOK, HoldingsResponse{Holdings: holdings})
}

// HandleVaultInfo handles GET /ledger/vault.
func (h *Handler) HandleVaultInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	info, err := h.service.VaultInfo(ctx, caller)
	if err != nil {
		h.fail(ctx, w, "vault info", caller, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

// HandleBalance handles GET /ledger/balances/{asset}. The asset "native"
// addresses the native asset.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "asset")
	asset := id.NativeAsset
	if raw != "native" {
		parsed, err := id.ParseAssetID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		asset = parsed
	}

	amount, err := h.service.Balance(ctx, caller, asset)
	if err != nil {
		h.fail(ctx, w, "balance", caller, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BalanceResponse{Asset: asset.String(), Amount: amount})
}

// HandleCurrentFee handles GET /bank/fee.
func (h *Handler) HandleCurrentFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fee, err := h.service.CurrentFee(ctx)
	if err != nil {
		h.fail(ctx, w, "current fee", authmw.GetIdentity(ctx), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FeeResponse{Fee: fee})
}

// HandleFeeVault handles GET /bank/fee-vault.
func (h *Handler) HandleFeeVault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vault, err := h.service.FeeVault(ctx)
	if err != nil {
		h.fail(ctx, w, "fee vault", authmw.GetIdentity(ctx), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, vault)
}

// HandleCollectFees handles POST /bank/fees/collect.
func (h *Handler) HandleCollectFees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	collected, err := h.service.CollectFees(ctx, caller)
	if err != nil {
		h.fail(ctx, w, "collect fees", caller, err)
		return
	}
	h.logger.InfoContext(ctx, "fees collected",
		"request_id", middleware.GetReqID(ctx),
		"collected", collected,
	)
	httputil.WriteJSON(w, http.StatusOK, CollectResponse{Collected: collected})
}
