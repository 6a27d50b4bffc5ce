package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/authority"
	"custodia/internal/dossier"
	"custodia/internal/dossier/service"
	dErrors "custodia/pkg/domain-errors"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	roles := authority.NewInMemoryStore()
	require.NoError(t, roles.Grant(context.Background(), authority.RoleOrgAdmin, "oscar"))
	return service.NewService(dossier.NewInMemoryStore(), roles, nil, slog.Default())
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	id, err := svc.Issue(ctx, "oscar", dossier.Dossier{
		DocumentHash: "sha256:abc",
		Subject:      "holder-a",
		URI:          "s3://evidence/court-order.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)

	d, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "oscar", d.IssuedBy)
	assert.False(t, d.IssuedAt.IsZero())

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIssueRejections(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Issue(ctx, "stranger", dossier.Dossier{DocumentHash: "sha256:abc"})
	assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))

	_, err = svc.Issue(ctx, "oscar", dossier.Dossier{})
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestRecordExists(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	exists, err := svc.RecordExists(ctx, 0)
	require.NoError(t, err)
	assert.False(t, exists)

	id, err := svc.Issue(ctx, "oscar", dossier.Dossier{DocumentHash: "sha256:abc"})
	require.NoError(t, err)

	exists, err = svc.RecordExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetNotFound(t *testing.T) {
	svc := newService(t)
	_, err := svc.Get(context.Background(), 42)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}
