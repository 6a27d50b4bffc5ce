package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"custodia/internal/authority"
	"custodia/internal/ledger"
	"custodia/internal/ledger/metrics"
	dErrors "custodia/pkg/domain-errors"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/platform/audit/publisher"
	"custodia/pkg/platform/sentinel"
	"custodia/pkg/requestcontext"
)

// RoleAuthority answers role-membership questions. Satisfied by the authority
// service.
type RoleAuthority interface {
	HasRole(ctx context.Context, role authority.Role, actor string) (bool, error)
}

// Service owns the fungible asset ledger: balances, the allowlist
// (restriction ledger), and per-holder freezes. Voluntary operations enforce
// the full restriction stack; ForcedMove is the single privileged entry point
// that bypasses the source-side checks, and it is handed only to the
// forced-transfer coordinator, never exposed over HTTP.
//
// A single mutex serializes mutations so every operation is one atomic step,
// matching the all-or-nothing semantics the coordinator's bookkeeping
// depends on.
type Service struct {
	mu      sync.Mutex
	store   ledger.Store
	cache   *ledger.AllowlistCache
	roles   RoleAuthority
	audit   *publisher.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(
	store ledger.Store,
	roles RoleAuthority,
	auditPub *publisher.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{store: store, roles: roles, audit: auditPub, metrics: m, logger: logger}
}

// WithAllowlistCache attaches an optional Redis read-through cache for
// allowlist lookups.
func (s *Service) WithAllowlistCache(cache *ledger.AllowlistCache) *Service {
	s.cache = cache
	return s
}

// Mint credits newly issued tokens to an allowed holder.
func (s *Service) Mint(ctx context.Context, caller, to string, amount int64) error {
	if err := s.requireRole(ctx, authority.RoleTreasuryController, caller); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if to == "" {
		return dErrors.New(dErrors.CodeValidation, "destination must not be the zero holder")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireUnpaused(ctx); err != nil {
		return err
	}
	allowed, err := s.isAllowed(ctx, to)
	if err != nil {
		return err
	}
	if !allowed {
		return dErrors.New(dErrors.CodeForbidden, "destination holder is not allowed")
	}
	if err := s.store.Mint(ctx, to, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mint failed")
	}
	if s.metrics != nil {
		s.metrics.MintsTotal.Inc()
	}
	s.emit(ctx, audit.Event{
		Actor: caller, Subject: to, Action: string(audit.EventTokensMinted),
		To: to, Amount: amount,
	})
	return nil
}

// Burn destroys tokens from a holder's available balance.
func (s *Service) Burn(ctx context.Context, caller, from string, amount int64) error {
	if err := s.requireRole(ctx, authority.RoleTreasuryController, caller); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireUnpaused(ctx); err != nil {
		return err
	}
	acct, err := s.account(ctx, from)
	if err != nil {
		return err
	}
	if acct.Available() < amount {
		return dErrors.New(dErrors.CodeValidation, "insufficient available balance")
	}
	if err := s.store.Burn(ctx, from, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "burn failed")
	}
	if s.metrics != nil {
		s.metrics.BurnsTotal.Inc()
	}
	s.emit(ctx, audit.Event{
		Actor: caller, Subject: from, Action: string(audit.EventTokensBurned),
		From: from, Amount: amount,
	})
	return nil
}

// Transfer moves tokens voluntarily. The sender is the authenticated caller;
// both parties must be allowed, the token unpaused, and the sender's
// available (unfrozen) balance sufficient.
func (s *Service) Transfer(ctx context.Context, from, to string, amount int64) error {
	start := time.Now()
	if err := validateAmount(amount); err != nil {
		return err
	}
	if to == "" {
		return dErrors.New(dErrors.CodeValidation, "destination must not be the zero holder")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireUnpaused(ctx); err != nil {
		return err
	}
	for _, holder := range []string{from, to} {
		allowed, err := s.isAllowed(ctx, holder)
		if err != nil {
			return err
		}
		if !allowed {
			return dErrors.New(dErrors.CodeForbidden, "holder is not allowed: "+holder)
		}
	}
	acct, err := s.account(ctx, from)
	if err != nil {
		return err
	}
	if acct.Available() < amount {
		return dErrors.New(dErrors.CodeValidation, "insufficient available balance")
	}
	if err := s.store.Move(ctx, from, to, amount); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeValidation, "insufficient available balance")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "transfer failed")
	}
	if s.metrics != nil {
		s.metrics.TransfersTotal.Inc()
		s.metrics.ObserveTransfer(start)
	}
	s.emit(ctx, audit.Event{
		Actor: from, Subject: from, Action: string(audit.EventTokensTransferred),
		From: from, To: to, Amount: amount,
	})
	return nil
}

// SetAllowed flips a holder's restriction-ledger flag.
func (s *Service) SetAllowed(ctx context.Context, caller, holder string, allowed bool) error {
	if err := s.requireRole(ctx, authority.RoleOrgAdmin, caller); err != nil {
		return err
	}
	if holder == "" {
		return dErrors.New(dErrors.CodeValidation, "holder must not be the zero holder")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetAllowed(ctx, holder, allowed); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "allowlist update failed")
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, holder)
	}
	action := audit.EventHolderAllowed
	if !allowed {
		action = audit.EventHolderDisallowed
	}
	s.emit(ctx, audit.Event{Actor: caller, Subject: holder, Action: string(action)})
	return nil
}

// SetFrozen sets the absolute frozen quantity for a holder. The voluntary
// path never allows frozen to exceed the balance; only the coordinator's
// reconciliation adjusts it downward after a forced transfer.
func (s *Service) SetFrozen(ctx context.Context, caller, holder string, frozen int64) error {
	if err := s.requireRole(ctx, authority.RoleOrgAdmin, caller); err != nil {
		return err
	}
	if frozen < 0 {
		return dErrors.New(dErrors.CodeValidation, "frozen amount must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, err := s.account(ctx, holder)
	if err != nil {
		return err
	}
	if frozen > acct.Balance {
		return dErrors.New(dErrors.CodeValidation, "frozen amount exceeds balance")
	}
	if err := s.store.SetFrozen(ctx, holder, frozen); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "freeze update failed")
	}
	action := audit.EventBalanceFrozen
	if frozen < acct.Frozen {
		action = audit.EventBalanceUnfrozen
	}
	s.emit(ctx, audit.Event{Actor: caller, Subject: holder, Action: string(action), Amount: frozen})
	return nil
}

// SetPaused toggles the voluntary-movement circuit breaker.
func (s *Service) SetPaused(ctx context.Context, caller string, paused bool) error {
	if err := s.requireRole(ctx, authority.RoleOrgAdmin, caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetPaused(ctx, paused); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "pause update failed")
	}
	action := audit.EventTokenPaused
	if !paused {
		action = audit.EventTokenUnpaused
	}
	s.emit(ctx, audit.Event{Actor: caller, Action: string(action)})
	return nil
}

// -----------------------------------------------------------------------------
// Views
// -----------------------------------------------------------------------------

func (s *Service) GetAccount(ctx context.Context, holder string) (ledger.Account, error) {
	return s.account(ctx, holder)
}

func (s *Service) BalanceOf(ctx context.Context, holder string) (int64, error) {
	acct, err := s.account(ctx, holder)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func (s *Service) FrozenOf(ctx context.Context, holder string) (int64, error) {
	acct, err := s.account(ctx, holder)
	if err != nil {
		return 0, err
	}
	return acct.Frozen, nil
}

func (s *Service) IsAllowed(ctx context.Context, holder string) (bool, error) {
	return s.isAllowed(ctx, holder)
}

func (s *Service) State(ctx context.Context) (ledger.State, error) {
	state, err := s.store.GetState(ctx)
	if err != nil {
		return ledger.State{}, dErrors.Wrap(err, dErrors.CodeInternal, "ledger state read failed")
	}
	return state, nil
}

// -----------------------------------------------------------------------------
// Forced-transfer entry point
// -----------------------------------------------------------------------------

// ForcedMove moves value bypassing the source-side allowlist, the freeze, and
// the pause flag. The destination must still be allowed and the raw balance
// sufficient; either failure aborts with no partial effect.
//
// Access control is by capability, not by role check: this method is reachable
// only through the narrow interface handed to the forced-transfer coordinator.
func (s *Service) ForcedMove(ctx context.Context, from, to string, amount int64) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, err := s.isAllowed(ctx, to)
	if err != nil {
		return err
	}
	if !allowed {
		return dErrors.New(dErrors.CodeForbidden, "destination holder is not allowed")
	}
	if err := s.store.Move(ctx, from, to, amount); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeValidation, "insufficient balance")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "forced move failed")
	}
	if s.metrics != nil {
		s.metrics.ForcedMovesTotal.Inc()
	}
	s.emit(ctx, audit.Event{
		Subject: from, Action: string(audit.EventTokensTransferred),
		From: from, To: to, Amount: amount, Reason: "forced",
	})
	return nil
}

// ReconcileFrozen overwrites a holder's frozen quantity without the role gate
// or the frozen<=balance check of SetFrozen. Like ForcedMove, it is reachable
// only through the interface handed to the forced-transfer coordinator, which
// uses it to reconcile the freeze ledger around an execution.
func (s *Service) ReconcileFrozen(ctx context.Context, holder string, frozen int64) error {
	if frozen < 0 {
		return dErrors.New(dErrors.CodeValidation, "frozen amount must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SetFrozen(ctx, holder, frozen); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "freeze reconciliation failed")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------------

func (s *Service) account(ctx context.Context, holder string) (ledger.Account, error) {
	acct, err := s.store.GetAccount(ctx, holder)
	if err != nil {
		return ledger.Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "account read failed")
	}
	return acct, nil
}

func (s *Service) isAllowed(ctx context.Context, holder string) (bool, error) {
	if s.cache != nil {
		if allowed, ok := s.cache.Get(ctx, holder); ok {
			if s.metrics != nil {
				s.metrics.AllowlistHits.Inc()
			}
			return allowed, nil
		}
		if s.metrics != nil {
			s.metrics.AllowlistMisses.Inc()
		}
	}
	acct, err := s.account(ctx, holder)
	if err != nil {
		return false, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, holder, acct.Allowed)
	}
	return acct.Allowed, nil
}

func (s *Service) requireRole(ctx context.Context, role authority.Role, caller string) error {
	held, err := s.roles.HasRole(ctx, role, caller)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed")
	}
	if !held {
		return dErrors.New(dErrors.CodeForbidden, "caller does not hold role "+string(role))
	}
	return nil
}

func (s *Service) requireUnpaused(ctx context.Context) error {
	state, err := s.store.GetState(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger state read failed")
	}
	if state.Paused {
		return dErrors.New(dErrors.CodeConflict, "token is paused")
	}
	return nil
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
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
