// Package handler exposes the forced-transfer workflow over HTTP. It is a
// thin layer: request decoding, actor extraction, error translation. All
// workflow rules live in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/forcedtransfer"
	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	dErrors "custodia/pkg/domain-errors"
)

// Service defines the coordinator operations the transport consumes. The
// collaborator setters are deliberately absent: wiring happens at startup,
// never over the wire.
type Service interface {
	Initiate(ctx context.Context, caller, from, to string, amount int64, proofID uint64, reason string) (uint64, error)
	Approve(ctx context.Context, caller string, id uint64, role forcedtransfer.ApprovalRole) error
	Execute(ctx context.Context, caller string, id uint64) error
	Cancel(ctx context.Context, caller string, id uint64) error
	GetRequest(ctx context.Context, id uint64) (forcedtransfer.Request, error)
	RequestCount(ctx context.Context) (uint64, error)
	IsProofUsed(ctx context.Context, proofID uint64) (bool, error)
	IsFullyApproved(ctx context.Context, id uint64) (bool, error)
}

// Handler handles forced-transfer endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new forced-transfer Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the forced-transfer routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleInitiate)
	r.Get("/count", h.handleCount)
	r.Get("/proofs/{proofID}/used", h.handleProofUsed)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/approved", h.handleFullyApproved)
	r.Post("/{id}/approvals/{role}", h.handleApprove)
	r.Post("/{id}/execute", h.handleExecute)
	r.Post("/{id}/cancel", h.handleCancel)
}

type initiateRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  int64  `json:"amount"`
	ProofID uint64 `json:"proof_id"`
	Reason  string `json:"reason"`
}

type requestResponse struct {
	ID          uint64          `json:"id"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      int64           `json:"amount"`
	ProofID     uint64          `json:"proof_id"`
	Initiator   string          `json:"initiator"`
	InitiatedAt time.Time       `json:"initiated_at"`
	Reason      string          `json:"reason,omitempty"`
	Approvals   map[string]bool `json:"approvals"`
	Status      string          `json:"status"`
}

func toResponse(req forcedtransfer.Request) requestResponse {
	return requestResponse{
		ID:          req.ID,
		From:        req.From,
		To:          req.To,
		Amount:      req.Amount,
		ProofID:     req.ProofID,
		Initiator:   req.Initiator,
		InitiatedAt: req.InitiatedAt,
		Reason:      req.Reason,
		Approvals: map[string]bool{
			string(forcedtransfer.ApprovalTreasury): req.TreasuryApproval,
			string(forcedtransfer.ApprovalAuditor):  req.AuditorApproval,
			string(forcedtransfer.ApprovalOrgAdmin): req.OrgAdminApproval,
		},
		Status: string(req.Status),
	}
}

func (h *Handler) handleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetActorID(ctx)

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid initiate request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	id, err := h.service.Initiate(ctx, caller, req.From, req.To, req.Amount, req.ProofID, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, "initiate", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	role := forcedtransfer.ApprovalRole(chi.URLParam(r, "role"))

	if err := h.service.Approve(ctx, middleware.GetActorID(ctx), id, role); err != nil {
		h.writeServiceError(w, r, "approve", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Execute(ctx, middleware.GetActorID(ctx), id); err != nil {
		h.writeServiceError(w, r, "execute", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Cancel(ctx, middleware.GetActorID(ctx), id); err != nil {
		h.writeServiceError(w, r, "cancel", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	req, err := h.service.GetRequest(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "get", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) handleFullyApproved(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	approved, err := h.service.IsFullyApproved(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "fully approved", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"fully_approved": approved})
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.RequestCount(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "count", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]uint64{"count": count})
}

func (h *Handler) handleProofUsed(w http.ResponseWriter, r *http.Request) {
	proofID, ok := h.pathID(w, r, "proofID")
	if !ok {
		return
	}
	used, err := h.service.IsProofUsed(r.Context(), proofID)
	if err != nil {
		h.writeServiceError(w, r, "proof used", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"used": used})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, param), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid "+param))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if dErrors.Is(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "forced-transfer operation failed",
			"operation", op,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, "forced-transfer operation rejected",
			"operation", op,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}
