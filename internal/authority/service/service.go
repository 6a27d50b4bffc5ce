package service

import (
	"context"
	"errors"
	"log/slog"

	"custodia/internal/authority"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/platform/audit/publisher"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// Service answers role-membership questions and manages grants. It is the
// protocol's single authorization oracle: every privileged operation asks
// "does this caller hold role R" here and nowhere else.
type Service struct {
	store  authority.Store
	audit  *publisher.Publisher
	logger *slog.Logger
}

func NewService(store authority.Store, auditPub *publisher.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, audit: auditPub, logger: logger}
}

// HasRole reports whether the actor currently holds the role.
func (s *Service) HasRole(ctx context.Context, role authority.Role, actor string) (bool, error) {
	if !role.Valid() {
		return false, dErrors.New(dErrors.CodeBadRequest, "unknown role: "+string(role))
	}
	held, err := s.store.HasRole(ctx, role, actor)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed")
	}
	return held, nil
}

// Grant gives an actor a role. Only protocol admins may change grants.
// Granting an already-held role is a no-op.
func (s *Service) Grant(ctx context.Context, caller string, role authority.Role, actor string) error {
	if err := s.requireProtocolAdmin(ctx, caller); err != nil {
		return err
	}
	if !role.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown role: "+string(role))
	}
	if actor == "" {
		return dErrors.New(dErrors.CodeValidation, "actor must not be empty")
	}
	if err := s.store.Grant(ctx, role, actor); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant role")
	}
	s.emit(ctx, audit.EventRoleGranted, caller, actor, role)
	return nil
}

// Revoke removes a role from an actor.
func (s *Service) Revoke(ctx context.Context, caller string, role authority.Role, actor string) error {
	if err := s.requireProtocolAdmin(ctx, caller); err != nil {
		return err
	}
	if !role.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown role: "+string(role))
	}
	if err := s.store.Revoke(ctx, role, actor); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "actor does not hold role")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke role")
	}
	s.emit(ctx, audit.EventRoleRevoked, caller, actor, role)
	return nil
}

// RolesOf lists the roles an actor currently holds.
func (s *Service) RolesOf(ctx context.Context, actor string) ([]authority.Role, error) {
	roles, err := s.store.RolesOf(ctx, actor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed")
	}
	return roles, nil
}

func (s *Service) requireProtocolAdmin(ctx context.Context, caller string) error {
	held, err := s.store.HasRole(ctx, authority.RoleProtocolAdmin, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed")
	}
	if !held {
		return dErrors.New(dErrors.CodeForbidden, "caller is not a protocol admin")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, actor, subject string, role authority.Role) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		Actor:     actor,
		Subject:   subject,
		Action:    string(action),
		Reason:    string(role),
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", string(action), "error", err)
	}
}
