package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"custodia/internal/authority"
	"custodia/internal/dossier"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/platform/audit/publisher"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// RoleAuthority answers role-membership questions.
type RoleAuthority interface {
	HasRole(ctx context.Context, role authority.Role, actor string) (bool, error)
}

// Service manages the dossier registry: issuance and existence checks. The
// forced-transfer coordinator consumes only RecordExists.
type Service struct {
	store  dossier.Store
	roles  RoleAuthority
	audit  *publisher.Publisher
	logger *slog.Logger
}

func NewService(store dossier.Store, roles RoleAuthority, auditPub *publisher.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, roles: roles, audit: auditPub, logger: logger}
}

// Issue registers a new dossier and returns its id.
func (s *Service) Issue(ctx context.Context, caller string, d dossier.Dossier) (uint64, error) {
	held, err := s.roles.HasRole(ctx, authority.RoleOrgAdmin, caller)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed")
	}
	if !held {
		return 0, dErrors.New(dErrors.CodeForbidden, "caller is not an org admin")
	}
	if d.DocumentHash == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "document hash is required")
	}
	d.IssuedBy = caller
	if d.IssuedAt.IsZero() {
		d.IssuedAt = requestcontext.Now(ctx)
	}

	id, err := s.store.Create(ctx, d)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue dossier")
	}
	if s.audit != nil {
		err := s.audit.Emit(ctx, audit.Event{
			Actor:     caller,
			Subject:   d.Subject,
			Action:    string(audit.EventDossierIssued),
			ProofID:   id,
			RequestID: requestcontext.RequestID(ctx),
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event",
				"action", string(audit.EventDossierIssued), "error", err)
		}
	}
	return id, nil
}

// Get returns a dossier by id.
func (s *Service) Get(ctx context.Context, id uint64) (dossier.Dossier, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dossier.Dossier{}, dErrors.New(dErrors.CodeNotFound, "dossier not found: "+strconv.FormatUint(id, 10))
		}
		return dossier.Dossier{}, dErrors.Wrap(err, dErrors.CodeInternal, "dossier lookup failed")
	}
	return d, nil
}

// RecordExists reports whether the dossier id is registered. This is the
// only operation the forced-transfer coordinator consumes.
func (s *Service) RecordExists(ctx context.Context, id uint64) (bool, error) {
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "dossier lookup failed")
	}
	return exists, nil
}

// Count returns the number of issued dossiers.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "dossier count failed")
	}
	return count, nil
}
