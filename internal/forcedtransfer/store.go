package forcedtransfer

import "context"

// Store owns the coordinator's durable state: the append-only,
// densely-indexed request sequence and the set of consumed proof ids. No
// other component reads or writes either.
type Store interface {
	// Create atomically consumes the request's ProofID and appends the
	// request, assigning the next dense id. Returns sentinel.ErrAlreadyUsed
	// when the proof is already consumed; in that case nothing is written.
	Create(ctx context.Context, req Request) (uint64, error)
	// Get returns sentinel.ErrNotFound for unknown ids.
	Get(ctx context.Context, id uint64) (Request, error)
	// Update persists approval flags and status for an existing request.
	Update(ctx context.Context, req Request) error
	Count(ctx context.Context) (uint64, error)
	IsProofUsed(ctx context.Context, proofID uint64) (bool, error)
}
