// Package handler exposes dossier issuance and lookup.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/dossier"
	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	dErrors "custodia/pkg/domain-errors"
)

// Service defines the dossier operations the transport consumes.
type Service interface {
	Issue(ctx context.Context, caller string, d dossier.Dossier) (uint64, error)
	Get(ctx context.Context, id uint64) (dossier.Dossier, error)
	RecordExists(ctx context.Context, id uint64) (bool, error)
	Count(ctx context.Context) (uint64, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleIssue)
	r.Get("/count", h.handleCount)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/exists", h.handleExists)
}

type issueRequest struct {
	DocumentHash string `json:"document_hash"`
	Subject      string `json:"subject"`
	URI          string `json:"uri"`
}

type dossierResponse struct {
	ID           uint64 `json:"id"`
	DocumentHash string `json:"document_hash"`
	Subject      string `json:"subject"`
	URI          string `json:"uri,omitempty"`
	IssuedBy     string `json:"issued_by"`
	IssuedAt     string `json:"issued_at"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	id, err := h.service.Issue(ctx, middleware.GetActorID(ctx), dossier.Dossier{
		DocumentHash: req.DocumentHash,
		Subject:      req.Subject,
		URI:          req.URI,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "dossier issuance rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, dossierResponse{
		ID:           d.ID,
		DocumentHash: d.DocumentHash,
		Subject:      d.Subject,
		URI:          d.URI,
		IssuedBy:     d.IssuedBy,
		IssuedAt:     d.IssuedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleExists(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	exists, err := h.service.RecordExists(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Count(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]uint64{"count": count})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid id"))
		return 0, false
	}
	return id, true
}
