package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/authority"
	"custodia/internal/authority/service"
	dErrors "custodia/pkg/domain-errors"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	store := authority.NewInMemoryStore()
	require.NoError(t, store.Grant(context.Background(), authority.RoleProtocolAdmin, "root"))
	return service.NewService(store, nil, slog.Default())
}

func TestGrantRevoke(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.Grant(ctx, "root", authority.RoleAuditor, "audrey"))
	held, err := svc.HasRole(ctx, authority.RoleAuditor, "audrey")
	require.NoError(t, err)
	assert.True(t, held)

	// Granting twice is a no-op.
	require.NoError(t, svc.Grant(ctx, "root", authority.RoleAuditor, "audrey"))

	require.NoError(t, svc.Revoke(ctx, "root", authority.RoleAuditor, "audrey"))
	held, err = svc.HasRole(ctx, authority.RoleAuditor, "audrey")
	require.NoError(t, err)
	assert.False(t, held)

	err = svc.Revoke(ctx, "root", authority.RoleAuditor, "audrey")
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestGrantRequiresProtocolAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	err := svc.Grant(ctx, "audrey", authority.RoleAuditor, "audrey")
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	err = svc.Revoke(ctx, "audrey", authority.RoleProtocolAdmin, "root")
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
}

func TestGrantValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	err := svc.Grant(ctx, "root", authority.Role("superuser"), "audrey")
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	err = svc.Grant(ctx, "root", authority.RoleAuditor, "")
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestRolesOf(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.Grant(ctx, "root", authority.RoleAuditor, "carol"))
	require.NoError(t, svc.Grant(ctx, "root", authority.RoleOrgAdmin, "carol"))

	roles, err := svc.RolesOf(ctx, "carol")
	require.NoError(t, err)
	assert.ElementsMatch(t, []authority.Role{authority.RoleAuditor, authority.RoleOrgAdmin}, roles)

	roles, err = svc.RolesOf(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, roles)
}
