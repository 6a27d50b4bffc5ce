package ledger

import "context"

// Store persists ledger state. Each method is atomic: it either fully applies
// or leaves the ledger untouched. Unknown holders read as the zero Account
// (zero balance, zero frozen, not allowed).
//
// Move and ForcedMove return sentinel.ErrInvalidState when the source balance
// is insufficient, keeping the conservation invariant (total supply unchanged,
// no negative balances) inside the store.
type Store interface {
	GetAccount(ctx context.Context, holder string) (Account, error)
	SetAllowed(ctx context.Context, holder string, allowed bool) error
	SetFrozen(ctx context.Context, holder string, frozen int64) error
	// Mint credits the holder and grows total supply.
	Mint(ctx context.Context, to string, amount int64) error
	// Burn debits the holder and shrinks total supply.
	Burn(ctx context.Context, from string, amount int64) error
	// Move debits from and credits to; supply is unchanged.
	Move(ctx context.Context, from, to string, amount int64) error
	GetState(ctx context.Context) (State, error)
	SetPaused(ctx context.Context, paused bool) error
}
