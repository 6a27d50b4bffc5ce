package service_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/authority"
	"custodia/internal/forcedtransfer"
	ftservice "custodia/internal/forcedtransfer/service"
	"custodia/internal/ledger"
	ledgerservice "custodia/internal/ledger/service"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/platform/audit/publisher"
	auditmem "custodia/pkg/platform/audit/store/memory"
)

const (
	protocolAdmin   = "root"
	initiator       = "alice"   // treasury controller who opens requests
	secondTreasurer = "tessa"   // treasury controller who signs the treasury slot
	theAuditor      = "audrey"  // auditor
	orgAdmin        = "oscar"   // org admin
	holderA         = "holder-a"
	holderB         = "holder-b"
)

type fixture struct {
	svc        *ftservice.Service
	store      *forcedtransfer.InMemoryStore
	ledgerSvc  *ledgerservice.Service
	ledgerMem  *ledger.InMemoryStore
	dossiers   *stubRegistry
	auditStore *auditmem.InMemoryStore
}

// stubRegistry registers proof ids explicitly so tests control existence
// without issuing full dossiers.
type stubRegistry struct {
	known map[uint64]bool
	err   error
}

func (r *stubRegistry) RecordExists(_ context.Context, id uint64) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	return r.known[id], nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.Default()

	roles := authority.NewInMemoryStore()
	for actor, role := range map[string]authority.Role{
		protocolAdmin:   authority.RoleProtocolAdmin,
		initiator:       authority.RoleTreasuryController,
		secondTreasurer: authority.RoleTreasuryController,
		theAuditor:      authority.RoleAuditor,
		orgAdmin:        authority.RoleOrgAdmin,
	} {
		require.NoError(t, roles.Grant(ctx, role, actor))
	}

	auditStore := auditmem.NewInMemoryStore()
	auditPub := publisher.NewPublisher(auditStore)

	ledgerMem := ledger.NewInMemoryStore()
	ledgerSvc := ledgerservice.NewService(ledgerMem, roles, auditPub, nil, logger)
	require.NoError(t, ledgerMem.SetAllowed(ctx, holderA, true))
	require.NoError(t, ledgerMem.SetAllowed(ctx, holderB, true))
	require.NoError(t, ledgerMem.Mint(ctx, holderA, 10_000))

	dossiers := &stubRegistry{known: map[uint64]bool{7: true, 8: true}}

	store := forcedtransfer.NewInMemoryStore()
	svc := ftservice.NewService(store, roles, auditPub, nil, logger)
	require.NoError(t, svc.SetAssetLedger(ctx, protocolAdmin, ledgerSvc))
	require.NoError(t, svc.SetProofRegistry(ctx, protocolAdmin, dossiers))

	return &fixture{
		svc:        svc,
		store:      store,
		ledgerSvc:  ledgerSvc,
		ledgerMem:  ledgerMem,
		dossiers:   dossiers,
		auditStore: auditStore,
	}
}

func (f *fixture) initiate(t *testing.T, proofID uint64) uint64 {
	t.Helper()
	id, err := f.svc.Initiate(context.Background(), initiator, holderA, holderB, 5_000, proofID, "court order")
	require.NoError(t, err)
	return id
}

func (f *fixture) approveAll(t *testing.T, id uint64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.Approve(ctx, secondTreasurer, id, forcedtransfer.ApprovalTreasury))
	require.NoError(t, f.svc.Approve(ctx, theAuditor, id, forcedtransfer.ApprovalAuditor))
	require.NoError(t, f.svc.Approve(ctx, orgAdmin, id, forcedtransfer.ApprovalOrgAdmin))
}

func TestInitiate(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns dense ids from zero", func(t *testing.T) {
		f := newFixture(t)
		id0 := f.initiate(t, 7)
		id1 := f.initiate(t, 8)
		assert.Equal(t, uint64(0), id0)
		assert.Equal(t, uint64(1), id1)

		req, err := f.svc.GetRequest(ctx, id0)
		require.NoError(t, err)
		assert.Equal(t, forcedtransfer.StatusPending, req.Status)
		assert.Equal(t, holderA, req.From)
		assert.Equal(t, holderB, req.To)
		assert.Equal(t, int64(5_000), req.Amount)
		assert.Equal(t, initiator, req.Initiator)
		assert.False(t, req.TreasuryApproval)
		assert.False(t, req.AuditorApproval)
		assert.False(t, req.OrgAdminApproval)

		count, err := f.svc.RequestCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), count)
	})

	t.Run("consumes the proof immediately", func(t *testing.T) {
		f := newFixture(t)
		f.initiate(t, 7)
		used, err := f.svc.IsProofUsed(ctx, 7)
		require.NoError(t, err)
		assert.True(t, used)
	})

	t.Run("not configured", func(t *testing.T) {
		roles := authority.NewInMemoryStore()
		require.NoError(t, roles.Grant(ctx, authority.RoleTreasuryController, initiator))
		bare := ftservice.NewService(forcedtransfer.NewInMemoryStore(), roles, nil, nil, slog.Default())
		_, err := bare.Initiate(ctx, initiator, holderA, holderB, 5_000, 7, "")
		assert.ErrorIs(t, err, forcedtransfer.ErrNotConfigured)
	})

	t.Run("caller without treasury role", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Initiate(ctx, theAuditor, holderA, holderB, 5_000, 7, "")
		assert.ErrorIs(t, err, forcedtransfer.ErrUnauthorized)
	})

	t.Run("unknown proof", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Initiate(ctx, initiator, holderA, holderB, 5_000, 999, "")
		assert.ErrorIs(t, err, forcedtransfer.ErrProofNotFound)
	})

	t.Run("zero-holder destination", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Initiate(ctx, initiator, holderA, "", 5_000, 7, "")
		assert.ErrorIs(t, err, forcedtransfer.ErrInvalidAddress)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Initiate(ctx, initiator, holderA, holderB, 10_001, 7, "")
		assert.ErrorIs(t, err, forcedtransfer.ErrInsufficientBalance)
	})

	t.Run("precondition failure leaves no state", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Initiate(ctx, initiator, holderA, holderB, 10_001, 7, "")
		require.Error(t, err)

		used, err := f.svc.IsProofUsed(ctx, 7)
		require.NoError(t, err)
		assert.False(t, used, "a failed initiation must not consume the proof")
		count, err := f.svc.RequestCount(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

// P1: at most one request may ever cite a given proof.
func TestProofUniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.initiate(t, 7)

	_, err := f.svc.Initiate(ctx, initiator, holderA, holderB, 1_000, 7, "")
	assert.ErrorIs(t, err, forcedtransfer.ErrProofAlreadyUsed)

	// Still consumed after the citing request is cancelled.
	require.NoError(t, f.svc.Cancel(ctx, orgAdmin, id))
	_, err = f.svc.Initiate(ctx, initiator, holderA, holderB, 1_000, 7, "")
	assert.ErrorIs(t, err, forcedtransfer.ErrProofAlreadyUsed)
}

// P2: any permutation of the three approvals reaches Approved, and only the
// full set does.
func TestApprovalOrderIndependence(t *testing.T) {
	ctx := context.Background()
	permutations := [][]forcedtransfer.ApprovalRole{
		{forcedtransfer.ApprovalTreasury, forcedtransfer.ApprovalAuditor, forcedtransfer.ApprovalOrgAdmin},
		{forcedtransfer.ApprovalTreasury, forcedtransfer.ApprovalOrgAdmin, forcedtransfer.ApprovalAuditor},
		{forcedtransfer.ApprovalAuditor, forcedtransfer.ApprovalTreasury, forcedtransfer.ApprovalOrgAdmin},
		{forcedtransfer.ApprovalAuditor, forcedtransfer.ApprovalOrgAdmin, forcedtransfer.ApprovalTreasury},
		{forcedtransfer.ApprovalOrgAdmin, forcedtransfer.ApprovalTreasury, forcedtransfer.ApprovalAuditor},
		{forcedtransfer.ApprovalOrgAdmin, forcedtransfer.ApprovalAuditor, forcedtransfer.ApprovalTreasury},
	}
	callers := map[forcedtransfer.ApprovalRole]string{
		forcedtransfer.ApprovalTreasury: secondTreasurer,
		forcedtransfer.ApprovalAuditor:  theAuditor,
		forcedtransfer.ApprovalOrgAdmin: orgAdmin,
	}

	for _, perm := range permutations {
		f := newFixture(t)
		id := f.initiate(t, 7)

		for i, role := range perm {
			require.NoError(t, f.svc.Approve(ctx, callers[role], id, role))
			approved, err := f.svc.IsFullyApproved(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, i == len(perm)-1, approved)

			req, err := f.svc.GetRequest(ctx, id)
			require.NoError(t, err)
			if i == len(perm)-1 {
				assert.Equal(t, forcedtransfer.StatusApproved, req.Status)
			} else {
				assert.Equal(t, forcedtransfer.StatusPending, req.Status)
			}
		}
	}
}

// P3: the self-approval ban binds only the treasury slot.
func TestSelfApprovalBanScopedToTreasury(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	// The initiator also holds auditor and org-admin so the scoping is visible.
	roles := authority.NewInMemoryStore()
	for _, role := range []authority.Role{
		authority.RoleProtocolAdmin, authority.RoleTreasuryController,
		authority.RoleAuditor, authority.RoleOrgAdmin,
	} {
		require.NoError(t, roles.Grant(ctx, role, initiator))
	}
	store := forcedtransfer.NewInMemoryStore()
	svc := ftservice.NewService(store, roles, nil, nil, slog.Default())
	require.NoError(t, svc.SetAssetLedger(ctx, initiator, f.ledgerSvc))
	require.NoError(t, svc.SetProofRegistry(ctx, initiator, f.dossiers))

	id, err := svc.Initiate(ctx, initiator, holderA, holderB, 5_000, 7, "")
	require.NoError(t, err)

	err = svc.Approve(ctx, initiator, id, forcedtransfer.ApprovalTreasury)
	assert.ErrorIs(t, err, forcedtransfer.ErrCannotSelfApprove)

	assert.NoError(t, svc.Approve(ctx, initiator, id, forcedtransfer.ApprovalAuditor))
	assert.NoError(t, svc.Approve(ctx, initiator, id, forcedtransfer.ApprovalOrgAdmin))
}

// P4: a second identical approval fails and changes nothing.
func TestApprovalIdempotencyRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.initiate(t, 7)

	require.NoError(t, f.svc.Approve(ctx, theAuditor, id, forcedtransfer.ApprovalAuditor))
	before, err := f.svc.GetRequest(ctx, id)
	require.NoError(t, err)

	err = f.svc.Approve(ctx, theAuditor, id, forcedtransfer.ApprovalAuditor)
	assert.ErrorIs(t, err, forcedtransfer.ErrAlreadyApproved)

	after, err := f.svc.GetRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown request", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Approve(ctx, theAuditor, 42, forcedtransfer.ApprovalAuditor)
		assert.ErrorIs(t, err, forcedtransfer.ErrRequestNotFound)
	})

	t.Run("caller without matching role", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		err := f.svc.Approve(ctx, theAuditor, id, forcedtransfer.ApprovalTreasury)
		assert.ErrorIs(t, err, forcedtransfer.ErrUnauthorized)
	})

	t.Run("not pending", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		require.NoError(t, f.svc.Cancel(ctx, orgAdmin, id))
		err := f.svc.Approve(ctx, theAuditor, id, forcedtransfer.ApprovalAuditor)
		assert.ErrorIs(t, err, forcedtransfer.ErrRequestNotPending)
	})

	t.Run("approved request accepts no further approvals", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		f.approveAll(t, id)
		err := f.svc.Approve(ctx, theAuditor, id, forcedtransfer.ApprovalAuditor)
		assert.ErrorIs(t, err, forcedtransfer.ErrRequestNotPending)
	})
}

// The end-to-end happy path: balance 10,000, freeze 8,000, move 5,000. The
// freeze must reconcile down to the 5,000 that remains.
func TestExecuteScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id := f.initiate(t, 7)
	assert.Equal(t, uint64(0), id)

	require.NoError(t, f.ledgerSvc.SetFrozen(ctx, orgAdmin, holderA, 8_000))

	f.approveAll(t, id)
	require.NoError(t, f.svc.Execute(ctx, initiator, id))

	balA, err := f.ledgerSvc.BalanceOf(ctx, holderA)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), balA)
	balB, err := f.ledgerSvc.BalanceOf(ctx, holderB)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), balB)
	frozenA, err := f.ledgerSvc.FrozenOf(ctx, holderA)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), frozenA)

	req, err := f.svc.GetRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, forcedtransfer.StatusExecuted, req.Status)

	used, err := f.svc.IsProofUsed(ctx, 7)
	require.NoError(t, err)
	assert.True(t, used)
}

// P5: the second execute fails and moves nothing.
func TestNoDoubleExecution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.initiate(t, 7)
	f.approveAll(t, id)
	require.NoError(t, f.svc.Execute(ctx, initiator, id))

	err := f.svc.Execute(ctx, initiator, id)
	assert.ErrorIs(t, err, forcedtransfer.ErrRequestNotFullyApproved)

	balA, err := f.ledgerSvc.BalanceOf(ctx, holderA)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), balA)
	balB, err := f.ledgerSvc.BalanceOf(ctx, holderB)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), balB)
}

// P6: freeze is reconciled only when it exceeds the post-transfer balance.
func TestFreezeReconciliation(t *testing.T) {
	ctx := context.Background()

	t.Run("clamped when exceeding remaining balance", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		require.NoError(t, f.ledgerSvc.SetFrozen(ctx, orgAdmin, holderA, 8_000))
		f.approveAll(t, id)
		require.NoError(t, f.svc.Execute(ctx, initiator, id))

		frozen, err := f.ledgerSvc.FrozenOf(ctx, holderA)
		require.NoError(t, err)
		assert.Equal(t, int64(5_000), frozen)
	})

	t.Run("unchanged when already within remaining balance", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		require.NoError(t, f.ledgerSvc.SetFrozen(ctx, orgAdmin, holderA, 3_000))
		f.approveAll(t, id)
		require.NoError(t, f.svc.Execute(ctx, initiator, id))

		frozen, err := f.ledgerSvc.FrozenOf(ctx, holderA)
		require.NoError(t, err)
		assert.Equal(t, int64(3_000), frozen)
	})

	t.Run("fully frozen balance still moves", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		require.NoError(t, f.ledgerSvc.SetFrozen(ctx, orgAdmin, holderA, 10_000))
		f.approveAll(t, id)
		require.NoError(t, f.svc.Execute(ctx, initiator, id))

		frozen, err := f.ledgerSvc.FrozenOf(ctx, holderA)
		require.NoError(t, err)
		assert.Equal(t, int64(5_000), frozen)
	})
}

// P7: cancellation never releases the proof.
func TestCancelPreservesProofConsumption(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.initiate(t, 7)
	require.NoError(t, f.svc.Cancel(ctx, orgAdmin, id))

	used, err := f.svc.IsProofUsed(ctx, 7)
	require.NoError(t, err)
	assert.True(t, used)

	req, err := f.svc.GetRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, forcedtransfer.StatusCancelled, req.Status)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("approved request can be cancelled", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		f.approveAll(t, id)
		require.NoError(t, f.svc.Cancel(ctx, orgAdmin, id))

		err := f.svc.Execute(ctx, initiator, id)
		assert.ErrorIs(t, err, forcedtransfer.ErrRequestNotFullyApproved)
	})

	t.Run("requires org admin", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		err := f.svc.Cancel(ctx, initiator, id)
		assert.ErrorIs(t, err, forcedtransfer.ErrUnauthorized)
	})

	t.Run("terminal request cannot be cancelled", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		require.NoError(t, f.svc.Cancel(ctx, orgAdmin, id))
		err := f.svc.Cancel(ctx, orgAdmin, id)
		assert.ErrorIs(t, err, forcedtransfer.ErrRequestNotPending)
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.Cancel(ctx, orgAdmin, 42)
		assert.ErrorIs(t, err, forcedtransfer.ErrRequestNotFound)
	})
}

// P8: destination eligibility is re-derived at execution time.
func TestExecuteRechecksDestination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.initiate(t, 7)
	f.approveAll(t, id)

	require.NoError(t, f.ledgerSvc.SetAllowed(ctx, orgAdmin, holderB, false))

	err := f.svc.Execute(ctx, initiator, id)
	assert.ErrorIs(t, err, forcedtransfer.ErrInvalidAddress)

	// The request survives the rejection and executes once B is allowed again.
	req, err := f.svc.GetRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, forcedtransfer.StatusApproved, req.Status)

	require.NoError(t, f.ledgerSvc.SetAllowed(ctx, orgAdmin, holderB, true))
	assert.NoError(t, f.svc.Execute(ctx, initiator, id))
}

// P9: a disallowed source cannot block a forced transfer.
func TestExecuteBypassesSourceRestriction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.initiate(t, 7)
	f.approveAll(t, id)

	require.NoError(t, f.ledgerSvc.SetAllowed(ctx, orgAdmin, holderA, false))
	require.NoError(t, f.svc.Execute(ctx, initiator, id))

	balB, err := f.ledgerSvc.BalanceOf(ctx, holderB)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000), balB)
}

// Forced transfer is exempt from the voluntary-movement pause.
func TestExecuteIgnoresPause(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.initiate(t, 7)
	f.approveAll(t, id)

	require.NoError(t, f.ledgerSvc.SetPaused(ctx, orgAdmin, true))
	require.NoError(t, f.svc.Execute(ctx, initiator, id))
}

func TestExecuteRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("pending request", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		err := f.svc.Execute(ctx, initiator, id)
		assert.ErrorIs(t, err, forcedtransfer.ErrRequestNotFullyApproved)
	})

	t.Run("caller without treasury role", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		f.approveAll(t, id)
		err := f.svc.Execute(ctx, theAuditor, id)
		assert.ErrorIs(t, err, forcedtransfer.ErrUnauthorized)
	})

	t.Run("initiator may execute", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		f.approveAll(t, id)
		assert.NoError(t, f.svc.Execute(ctx, initiator, id))
	})

	t.Run("balance drained between approval and execution", func(t *testing.T) {
		f := newFixture(t)
		id := f.initiate(t, 7)
		f.approveAll(t, id)
		require.NoError(t, f.ledgerMem.Burn(ctx, holderA, 6_000))

		err := f.svc.Execute(ctx, initiator, id)
		assert.ErrorIs(t, err, forcedtransfer.ErrInsufficientBalance)
		req, err := f.svc.GetRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, forcedtransfer.StatusApproved, req.Status)
	})
}

func TestCollaboratorWiring(t *testing.T) {
	ctx := context.Background()

	t.Run("requires protocol admin", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.SetAssetLedger(ctx, initiator, f.ledgerSvc)
		assert.ErrorIs(t, err, forcedtransfer.ErrUnauthorized)
		err = f.svc.SetProofRegistry(ctx, initiator, f.dossiers)
		assert.ErrorIs(t, err, forcedtransfer.ErrUnauthorized)
	})

	t.Run("idempotent and audited each time", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.svc.SetAssetLedger(ctx, protocolAdmin, f.ledgerSvc))
		require.NoError(t, f.svc.SetAssetLedger(ctx, protocolAdmin, f.ledgerSvc))

		events, err := f.auditStore.ListRecent(ctx, 100)
		require.NoError(t, err)
		var configured int
		for _, e := range events {
			if e.Action == string(audit.EventCollaboratorConfigured) {
				configured++
			}
		}
		// Two from the fixture, two from this test.
		assert.Equal(t, 4, configured)
	})
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.initiate(t, 7)
	f.approveAll(t, id)
	require.NoError(t, f.svc.Execute(ctx, initiator, id))

	events, err := f.auditStore.ListBySubject(ctx, "0")
	require.NoError(t, err)

	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{
		string(audit.EventForcedTransferInitiated),
		string(audit.EventForcedTransferApproved),
		string(audit.EventForcedTransferApproved),
		string(audit.EventForcedTransferApproved),
		string(audit.EventForcedTransferExecuted),
	}, actions)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
	assert.Equal(t, uint64(7), events[0].ProofID)
	assert.Equal(t, "court order", events[0].Reason)
}

func TestRegistryFailurePropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.dossiers.err = errors.New("registry offline")

	_, err := f.svc.Initiate(ctx, initiator, holderA, holderB, 5_000, 7, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, forcedtransfer.ErrProofNotFound)
}
