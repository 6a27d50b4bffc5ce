// Package handler exposes role-grant administration.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodia/internal/authority"
	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	dErrors "custodia/pkg/domain-errors"
)

// Service defines the authority operations the transport consumes.
type Service interface {
	Grant(ctx context.Context, caller string, role authority.Role, actor string) error
	Revoke(ctx context.Context, caller string, role authority.Role, actor string) error
	HasRole(ctx context.Context, role authority.Role, actor string) (bool, error)
	RolesOf(ctx context.Context, actor string) ([]authority.Role, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/grants", h.handleGrant)
	r.Delete("/grants", h.handleRevoke)
	r.Get("/actors/{actor}/roles", h.handleRolesOf)
	r.Get("/actors/{actor}/roles/{role}", h.handleHasRole)
}

type grantRequest struct {
	Role  string `json:"role"`
	Actor string `json:"actor"`
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.Grant(ctx, middleware.GetActorID(ctx), authority.Role(req.Role), req.Actor); err != nil {
		h.logger.WarnContext(ctx, "role grant rejected",
			"request_id", middleware.GetRequestID(ctx),
			"role", req.Role,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.service.Revoke(ctx, middleware.GetActorID(ctx), authority.Role(req.Role), req.Actor); err != nil {
		h.logger.WarnContext(ctx, "role revocation rejected",
			"request_id", middleware.GetRequestID(ctx),
			"role", req.Role,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRolesOf(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.RolesOf(r.Context(), chi.URLParam(r, "actor"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	shared.WriteJSON(w, http.StatusOK, map[string][]string{"roles": names})
}

func (h *Handler) handleHasRole(w http.ResponseWriter, r *http.Request) {
	held, err := h.service.HasRole(r.Context(), authority.Role(chi.URLParam(r, "role")), chi.URLParam(r, "actor"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"held": held})
}
