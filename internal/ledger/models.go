package ledger

// Account is the per-holder slice of ledger state: the fungible balance, the
// administratively frozen quantity, and the allowlist flag.
//
// available = Balance - Frozen. Voluntary transfers may only spend available
// balance; the forced-transfer path checks Balance alone and reconciles
// Frozen afterwards so Frozen <= Balance always holds.
type Account struct {
	Holder  string
	Balance int64
	Frozen  int64
	Allowed bool
}

// Available returns the balance not locked by a freeze.
func (a Account) Available() int64 {
	return a.Balance - a.Frozen
}

// State is the token-wide state: total supply and the pause circuit breaker.
// Pausing halts voluntary movement only; forced transfers stay live because
// they exist precisely for adversarial conditions.
type State struct {
	TotalSupply int64
	Paused      bool
}
