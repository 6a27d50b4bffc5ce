package authority

import "context"

// Store persists role grants. Grant is idempotent; Revoke of an absent grant
// returns sentinel.ErrNotFound.
type Store interface {
	Grant(ctx context.Context, role Role, actor string) error
	Revoke(ctx context.Context, role Role, actor string) error
	HasRole(ctx context.Context, role Role, actor string) (bool, error)
	RolesOf(ctx context.Context, actor string) ([]Role, error)
}
