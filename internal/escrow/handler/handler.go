package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"custody/internal/escrow/models"
	id "custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/httputil"
	authmw "custody/pkg/platform/middleware/auth"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the escrow operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, owner id.Identity, req models.CreateRequest) (*models.TimeLockRecord, error)
	Fund(ctx context.Context, caller id.Identity, lockID id.TimeLockID, amount uint64) (*models.TimeLockRecord, error)
	Claim(ctx context.Context, caller id.Identity, lockID id.TimeLockID) (*models.TimeLockRecord, error)
	Get(ctx context.Context, lockID id.TimeLockID) (*models.TimeLockView, error)
}

// Handler wires escrow endpoints to the escrow service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the escrow mutations. The router must authenticate them.
func (h *Handler) Register(r chi.Router) {
	r.Post("/escrow/locks", h.HandleCreate)
	r.Post("/escrow/locks/{id}/fund", h.HandleFund)
	r.Post("/escrow/locks/{id}/claim", h.HandleClaim)
}

// RegisterPublic mounts the lock lookup, which anyone may read.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/escrow/locks/{id}", h.HandleGet)
}

// HandleCreate handles POST /escrow/locks.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	owner := authmw.GetIdentity(ctx)
	if owner.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Create(ctx, owner, req.parsed)
	if err != nil {
		h.logger.WarnContext(ctx, "time lock creation failed",
			"request_id", requestID,
			"owner", owner.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

// HandleGet handles GET /escrow/locks/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	lockID, ok := lockIDParam(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), lockID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleFund handles POST /escrow/locks/{id}/fund.
func (h *Handler) HandleFund(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	caller := authmw.GetIdentity(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	lockID, ok := lockIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[FundRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.Fund(ctx, caller, lockID, req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "time lock funding failed",
			"request_id", requestID,
			"lock_id", lockID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleClaim handles POST /escrow/locks/{id}/claim.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	caller := authmw.GetIdentity(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	lockID, ok := lockIDParam(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Claim(ctx, caller, lockID)
	if err != nil {
		h.logger.WarnContext(ctx, "time lock claim failed",
			"request_id", requestID,
			"lock_id", lockID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "time lock claimed",
		"request_id", requestID,
		"lock_id", lockID.String(),
		"amount", rec.Amount,
	)
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func lockIDParam(w http.ResponseWriter, r *http.Request) (id.TimeLockID, bool) {
	lockID, err := id.ParseTimeLockID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.TimeLockID{}, false
	}
	return lockID, true
}
