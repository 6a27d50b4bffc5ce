// Package service implements the forced-transfer coordinator: the approval
// workflow that gates involuntary movement of tokens behind three independent
// sign-offs and a registered evidence dossier.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"custodia/internal/authority"
	"custodia/internal/forcedtransfer"
	"custodia/internal/forcedtransfer/metrics"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/platform/audit/publisher"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// AssetLedger is the coordinator's window onto the asset, freeze and
// restriction ledgers. ForcedMove and ReconcileFrozen are privileged
// capabilities; nothing else in the system receives this interface.
type AssetLedger interface {
	BalanceOf(ctx context.Context, holder string) (int64, error)
	FrozenOf(ctx context.Context, holder string) (int64, error)
	IsAllowed(ctx context.Context, holder string) (bool, error)
	ReconcileFrozen(ctx context.Context, holder string, frozen int64) error
	ForcedMove(ctx context.Context, from, to string, amount int64) error
}

// ProofRegistry answers whether an evidence dossier is registered. The
// coordinator consumes nothing else from the registry; "used" state is owned
// here, not there.
type ProofRegistry interface {
	RecordExists(ctx context.Context, id uint64) (bool, error)
}

// RoleAuthority answers role-membership questions. Satisfied by the authority
// service.
type RoleAuthority interface {
	HasRole(ctx context.Context, role authority.Role, actor string) (bool, error)
}

// Service owns the ForcedTransferRequest lifecycle:
//
//	Initiate -> (three approvals) -> Execute
//	                    \-> Cancel
//
// A single mutex serializes every state-mutating operation, so each one is a
// single atomic step and precondition failures leave no partial state. The
// asset ledger and proof registry are injected after construction via the
// protocol-admin gated Set* operations; until both are present every Initiate
// fails with ErrNotConfigured.
type Service struct {
	mu      sync.Mutex
	store   forcedtransfer.Store
	roles   RoleAuthority
	ledger  AssetLedger
	proofs  ProofRegistry
	audit   *publisher.Publisher
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

func NewService(
	store forcedtransfer.Store,
	roles RoleAuthority,
	auditPub *publisher.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:   store,
		roles:   roles,
		audit:   auditPub,
		metrics: m,
		tracer:  otel.Tracer("custodia/forcedtransfer"),
		logger:  logger,
	}
}

// -----------------------------------------------------------------------------
// Collaborator wiring
// -----------------------------------------------------------------------------

// SetAssetLedger installs or replaces the ledger collaborator. Idempotent;
// every call emits a configuration event.
func (s *Service) SetAssetLedger(ctx context.Context, caller string, ledger AssetLedger) error {
	if err := s.requireRole(ctx, authority.RoleProtocolAdmin, caller); err != nil {
		return err
	}
	if ledger == nil {
		return dErrors.New(dErrors.CodeValidation, "asset ledger must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger = ledger
	s.emit(ctx, audit.Event{
		Actor:  caller,
		Action: string(audit.EventCollaboratorConfigured),
		Reason: "asset_ledger",
	})
	return nil
}

// SetProofRegistry installs or replaces the proof registry collaborator.
// Idempotent; every call emits a configuration event.
func (s *Service) SetProofRegistry(ctx context.Context, caller string, proofs ProofRegistry) error {
	if err := s.requireRole(ctx, authority.RoleProtocolAdmin, caller); err != nil {
		return err
	}
	if proofs == nil {
		return dErrors.New(dErrors.CodeValidation, "proof registry must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.proofs = proofs
	s.emit(ctx, audit.Event{
		Actor:  caller,
		Action: string(audit.EventCollaboratorConfigured),
		Reason: "proof_registry",
	})
	return nil
}

// -----------------------------------------------------------------------------
// Lifecycle operations
// -----------------------------------------------------------------------------

// Initiate opens a new forced-transfer request. On success the proof is
// consumed forever, even if the request is later cancelled.
func (s *Service) Initiate(ctx context.Context, caller, from, to string, amount int64, proofID uint64, reason string) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "forcedtransfer.Initiate", trace.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.Int64("amount", amount),
		attribute.Int64("proof_id", int64(proofID)),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger == nil || s.proofs == nil {
		return 0, s.reject(span, forcedtransfer.ErrNotConfigured)
	}
	held, err := s.roles.HasRole(ctx, authority.RoleTreasuryController, caller)
	if err != nil {
		return 0, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed"))
	}
	if !held {
		return 0, s.reject(span, forcedtransfer.ErrUnauthorized)
	}
	exists, err := s.proofs.RecordExists(ctx, proofID)
	if err != nil {
		return 0, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "proof lookup failed"))
	}
	if !exists {
		return 0, s.reject(span, forcedtransfer.ErrProofNotFound)
	}
	used, err := s.store.IsProofUsed(ctx, proofID)
	if err != nil {
		return 0, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "proof usage lookup failed"))
	}
	if used {
		return 0, s.reject(span, forcedtransfer.ErrProofAlreadyUsed)
	}
	if to == "" {
		return 0, s.reject(span, forcedtransfer.ErrInvalidAddress)
	}
	if amount <= 0 {
		return 0, s.reject(span, dErrors.New(dErrors.CodeValidation, "amount must be positive"))
	}
	balance, err := s.ledger.BalanceOf(ctx, from)
	if err != nil {
		return 0, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "balance lookup failed"))
	}
	if balance < amount {
		return 0, s.reject(span, forcedtransfer.ErrInsufficientBalance)
	}

	id, err := s.store.Create(ctx, forcedtransfer.Request{
		From:        from,
		To:          to,
		Amount:      amount,
		ProofID:     proofID,
		Initiator:   caller,
		InitiatedAt: requestcontext.Now(ctx),
		Reason:      reason,
		Status:      forcedtransfer.StatusPending,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return 0, s.reject(span, forcedtransfer.ErrProofAlreadyUsed)
		}
		return 0, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist request"))
	}

	span.SetAttributes(attribute.Int64("request_id", int64(id)))
	if s.metrics != nil {
		s.metrics.InitiatedTotal.Inc()
		s.metrics.PendingRequests.Inc()
	}
	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: strconv.FormatUint(id, 10),
		Action:  string(audit.EventForcedTransferInitiated),
		From:    from,
		To:      to,
		Amount:  amount,
		ProofID: proofID,
		Reason:  reason,
	})
	s.logger.InfoContext(ctx, "forced transfer initiated",
		"request_id", id, "from", from, "to", to, "amount", amount, "proof_id", proofID)
	return id, nil
}

// Approve records one of the three independent approvals on a pending
// request. Supplying the third flips the request to Approved in the same
// atomic step; approval order never matters.
func (s *Service) Approve(ctx context.Context, caller string, id uint64, role forcedtransfer.ApprovalRole) error {
	ctx, span := s.tracer.Start(ctx, "forcedtransfer.Approve", trace.WithAttributes(
		attribute.Int64("request_id", int64(id)),
		attribute.String("role", string(role)),
	))
	defer span.End()

	if !role.Valid() {
		return s.reject(span, dErrors.New(dErrors.CodeValidation, "unknown approval role: "+string(role)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.fail(span, err)
	}
	if req.Status != forcedtransfer.StatusPending {
		return s.reject(span, forcedtransfer.ErrRequestNotPending)
	}
	held, err := s.roles.HasRole(ctx, approverRole(role), caller)
	if err != nil {
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed"))
	}
	if !held {
		return s.reject(span, forcedtransfer.ErrUnauthorized)
	}
	if role == forcedtransfer.ApprovalTreasury && caller == req.Initiator {
		return s.reject(span, forcedtransfer.ErrCannotSelfApprove)
	}
	if req.Approval(role) {
		return s.reject(span, forcedtransfer.ErrAlreadyApproved)
	}

	req.SetApproval(role)
	if req.FullyApproved() {
		req.Status = forcedtransfer.StatusApproved
	}
	if err := s.store.Update(ctx, req); err != nil {
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist approval"))
	}

	if s.metrics != nil {
		s.metrics.ApprovalsTotal.WithLabelValues(string(role)).Inc()
	}
	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: strconv.FormatUint(id, 10),
		Action:  string(audit.EventForcedTransferApproved),
		Reason:  string(role),
	})
	s.logger.InfoContext(ctx, "forced transfer approval recorded",
		"request_id", id, "role", string(role), "status", string(req.Status))
	return nil
}

// Execute settles a fully approved request against the asset ledger.
//
// Ordering within the atomic step: every precondition is re-validated first so
// the ledger call cannot fail for a predictable reason; the status is
// committed to Executed before the ledger call so a replay arriving mid-flight
// is rejected; the freeze ledger is reconciled from the pre-transfer balance
// before the move. If the move still fails, the prior frozen amount is
// restored and the status reverted to Approved.
func (s *Service) Execute(ctx context.Context, caller string, id uint64) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "forcedtransfer.Execute", trace.WithAttributes(
		attribute.Int64("request_id", int64(id)),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.fail(span, err)
	}
	if req.Status != forcedtransfer.StatusApproved {
		return s.reject(span, forcedtransfer.ErrRequestNotFullyApproved)
	}
	held, err := s.roles.HasRole(ctx, authority.RoleTreasuryController, caller)
	if err != nil {
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed"))
	}
	if !held {
		return s.reject(span, forcedtransfer.ErrUnauthorized)
	}
	if s.ledger == nil {
		return s.reject(span, forcedtransfer.ErrNotConfigured)
	}
	allowed, err := s.ledger.IsAllowed(ctx, req.To)
	if err != nil {
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "allowlist lookup failed"))
	}
	if !allowed {
		return s.reject(span, forcedtransfer.ErrInvalidAddress)
	}
	balance, err := s.ledger.BalanceOf(ctx, req.From)
	if err != nil {
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "balance lookup failed"))
	}
	if balance < req.Amount {
		return s.reject(span, forcedtransfer.ErrInsufficientBalance)
	}
	priorFrozen, err := s.ledger.FrozenOf(ctx, req.From)
	if err != nil {
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "freeze lookup failed"))
	}

	// Commit the terminal status first so the request can never execute twice.
	req.Status = forcedtransfer.StatusExecuted
	if err := s.store.Update(ctx, req); err != nil {
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist execution"))
	}

	// Forced movement takes from the frozen portion when the unfrozen portion
	// does not cover the amount. Reconcile against the pre-transfer balance so
	// frozen never exceeds what remains.
	remaining := balance - req.Amount
	if priorFrozen > remaining {
		if err := s.ledger.ReconcileFrozen(ctx, req.From, remaining); err != nil {
			s.revert(ctx, req)
			return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "freeze reconciliation failed"))
		}
	}
	if err := s.ledger.ForcedMove(ctx, req.From, req.To, req.Amount); err != nil {
		if priorFrozen > remaining {
			if rerr := s.ledger.ReconcileFrozen(ctx, req.From, priorFrozen); rerr != nil {
				s.logger.ErrorContext(ctx, "failed to restore frozen amount after aborted execution",
					"request_id", id, "holder", req.From, "error", rerr)
			}
		}
		s.revert(ctx, req)
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "ledger move failed"))
	}

	if s.metrics != nil {
		s.metrics.ExecutedTotal.Inc()
		s.metrics.PendingRequests.Dec()
		s.metrics.ObserveExecute(start)
	}
	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: strconv.FormatUint(id, 10),
		Action:  string(audit.EventForcedTransferExecuted),
		From:    req.From,
		To:      req.To,
		Amount:  req.Amount,
		ProofID: req.ProofID,
	})
	s.logger.InfoContext(ctx, "forced transfer executed",
		"request_id", id, "from", req.From, "to", req.To, "amount", req.Amount)
	return nil
}

// Cancel closes a request that has not executed. The consumed proof is not
// released.
func (s *Service) Cancel(ctx context.Context, caller string, id uint64) error {
	ctx, span := s.tracer.Start(ctx, "forcedtransfer.Cancel", trace.WithAttributes(
		attribute.Int64("request_id", int64(id)),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.getRequest(ctx, id)
	if err != nil {
		return s.fail(span, err)
	}
	if req.Status.Terminal() {
		return s.reject(span, forcedtransfer.ErrRequestNotPending)
	}
	held, err := s.roles.HasRole(ctx, authority.RoleOrgAdmin, caller)
	if err != nil {
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed"))
	}
	if !held {
		return s.reject(span, forcedtransfer.ErrUnauthorized)
	}

	req.Status = forcedtransfer.StatusCancelled
	if err := s.store.Update(ctx, req); err != nil {
		return s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist cancellation"))
	}

	if s.metrics != nil {
		s.metrics.CancelledTotal.Inc()
		s.metrics.PendingRequests.Dec()
	}
	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: strconv.FormatUint(id, 10),
		Action:  string(audit.EventForcedTransferCancelled),
		From:    req.From,
		To:      req.To,
		Amount:  req.Amount,
		ProofID: req.ProofID,
	})
	s.logger.InfoContext(ctx, "forced transfer cancelled", "request_id", id)
	return nil
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

func (s *Service) GetRequest(ctx context.Context, id uint64) (forcedtransfer.Request, error) {
	return s.getRequest(ctx, id)
}

func (s *Service) RequestCount(ctx context.Context) (uint64, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "request count failed")
	}
	return count, nil
}

func (s *Service) IsProofUsed(ctx context.Context, proofID uint64) (bool, error) {
	used, err := s.store.IsProofUsed(ctx, proofID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "proof usage lookup failed")
	}
	return used, nil
}

func (s *Service) IsFullyApproved(ctx context.Context, id uint64) (bool, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return false, err
	}
	return req.FullyApproved(), nil
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

func approverRole(role forcedtransfer.ApprovalRole) authority.Role {
	switch role {
	case forcedtransfer.ApprovalTreasury:
		return authority.RoleTreasuryController
	case forcedtransfer.ApprovalAuditor:
		return authority.RoleAuditor
	default:
		return authority.RoleOrgAdmin
	}
}

func (s *Service) getRequest(ctx context.Context, id uint64) (forcedtransfer.Request, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return forcedtransfer.Request{}, forcedtransfer.ErrRequestNotFound
		}
		return forcedtransfer.Request{}, dErrors.Wrap(err, dErrors.CodeInternal, "request lookup failed")
	}
	return req, nil
}

func (s *Service) requireRole(ctx context.Context, role authority.Role, caller string) error {
	held, err := s.roles.HasRole(ctx, role, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed")
	}
	if !held {
		return forcedtransfer.ErrUnauthorized
	}
	return nil
}

// revert returns a half-executed request to Approved so it stays executable
// once the ledger recovers.
func (s *Service) revert(ctx context.Context, req forcedtransfer.Request) {
	req.Status = forcedtransfer.StatusApproved
	if err := s.store.Update(ctx, req); err != nil {
		s.logger.ErrorContext(ctx, "failed to revert request status after aborted execution",
			"request_id", req.ID, "error", err)
	}
}

// reject records a precondition failure on the span and the rejection counter.
func (s *Service) reject(span trace.Span, err error) error {
	span.RecordError(err)
	if s.metrics != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			s.metrics.RejectionsTotal.WithLabelValues(string(de.Code)).Inc()
		}
	}
	return err
}

// fail records an infrastructure failure on the span.
func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	return err
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
