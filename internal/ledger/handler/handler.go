// Package handler exposes the token-administration surface: balances, mint,
// burn, voluntary transfer, allowlist, freezes and the pause flag. ForcedMove
// has no route here; it is reachable only by the forced-transfer coordinator.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodia/internal/ledger"
	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	dErrors "custodia/pkg/domain-errors"
)

// Service defines the ledger operations the transport consumes.
type Service interface {
	Mint(ctx context.Context, caller, to string, amount int64) error
	Burn(ctx context.Context, caller, from string, amount int64) error
	Transfer(ctx context.Context, from, to string, amount int64) error
	SetAllowed(ctx context.Context, caller, holder string, allowed bool) error
	SetFrozen(ctx context.Context, caller, holder string, frozen int64) error
	SetPaused(ctx context.Context, caller string, paused bool) error
	GetAccount(ctx context.Context, holder string) (ledger.Account, error)
	State(ctx context.Context) (ledger.State, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/state", h.handleState)
	r.Get("/accounts/{holder}", h.handleGetAccount)
	r.Put("/accounts/{holder}/allowed", h.handleSetAllowed)
	r.Put("/accounts/{holder}/frozen", h.handleSetFrozen)
	r.Post("/mint", h.handleMint)
	r.Post("/burn", h.handleBurn)
	r.Post("/transfer", h.handleTransfer)
	r.Put("/paused", h.handleSetPaused)
}

type moveRequest struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Amount int64  `json:"amount"`
}

type accountResponse struct {
	Holder    string `json:"holder"`
	Balance   int64  `json:"balance"`
	Frozen    int64  `json:"frozen"`
	Available int64  `json:"available"`
	Allowed   bool   `json:"allowed"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req moveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Mint(ctx, middleware.GetActorID(ctx), req.To, req.Amount); err != nil {
		h.writeServiceError(w, r, "mint", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req moveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Burn(ctx, middleware.GetActorID(ctx), req.From, req.Amount); err != nil {
		h.writeServiceError(w, r, "burn", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTransfer moves tokens from the authenticated caller. The sender is
// never taken from the body.
func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req moveRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Transfer(ctx, middleware.GetActorID(ctx), req.To, req.Amount); err != nil {
		h.writeServiceError(w, r, "transfer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetAllowed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Allowed bool `json:"allowed"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	holder := chi.URLParam(r, "holder")
	if err := h.service.SetAllowed(ctx, middleware.GetActorID(ctx), holder, req.Allowed); err != nil {
		h.writeServiceError(w, r, "set allowed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetFrozen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Frozen int64 `json:"frozen"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	holder := chi.URLParam(r, "holder")
	if err := h.service.SetFrozen(ctx, middleware.GetActorID(ctx), holder, req.Frozen); err != nil {
		h.writeServiceError(w, r, "set frozen", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Paused bool `json:"paused"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetPaused(ctx, middleware.GetActorID(ctx), req.Paused); err != nil {
		h.writeServiceError(w, r, "set paused", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "holder"))
	if err != nil {
		h.writeServiceError(w, r, "get account", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, accountResponse{
		Holder:    acct.Holder,
		Balance:   acct.Balance,
		Frozen:    acct.Frozen,
		Available: acct.Available(),
		Allowed:   acct.Allowed,
	})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "state", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"total_supply": state.TotalSupply,
		"paused":       state.Paused,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "ledger operation failed",
			"operation", op,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "ledger operation rejected",
			"operation", op,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}
