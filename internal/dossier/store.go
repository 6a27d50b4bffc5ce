package dossier

import "context"

// Store persists dossier records. IDs are assigned densely from 0 and never
// reused. Get returns sentinel.ErrNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, d Dossier) (uint64, error)
	Get(ctx context.Context, id uint64) (Dossier, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	Count(ctx context.Context) (uint64, error)
}
