package forcedtransfer

import (
	"time"

	dErrors "custodia/pkg/domain-errors"
)

// Status is the lifecycle state of a forced-transfer request. Transitions are
// monotonic and one-directional:
//
//	Pending -> Approved -> Executed
//	Pending | Approved -> Cancelled
//
// There is no transition out of Executed or Cancelled.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusExecuted  Status = "executed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusExecuted || s == StatusCancelled
}

// ApprovalRole tags one of the three independent approval slots.
type ApprovalRole string

const (
	ApprovalTreasury ApprovalRole = "treasury"
	ApprovalAuditor  ApprovalRole = "auditor"
	ApprovalOrgAdmin ApprovalRole = "org_admin"
)

// Valid reports whether the tag names a real approval slot.
func (r ApprovalRole) Valid() bool {
	switch r {
	case ApprovalTreasury, ApprovalAuditor, ApprovalOrgAdmin:
		return true
	}
	return false
}

// Request is a forced-transfer approval request. Requests are append-only:
// once created they are retained forever as an audit trail, addressable by ID.
type Request struct {
	// ID is dense from 0 and never reused.
	ID     uint64
	From   string
	To     string
	Amount int64
	// ProofID is the dossier cited as evidence. Exactly one request may ever
	// cite a given proof, and the proof stays consumed even if the request is
	// cancelled.
	ProofID     uint64
	Initiator   string
	InitiatedAt time.Time
	// Reason is free-text justification, persisted for audit, never validated.
	Reason string

	TreasuryApproval bool
	AuditorApproval  bool
	OrgAdminApproval bool

	Status Status
}

// FullyApproved reports whether all three approval slots are set. The
// conjunction is commutative: approval order never matters.
func (r Request) FullyApproved() bool {
	return r.TreasuryApproval && r.AuditorApproval && r.OrgAdminApproval
}

// Approval returns the slot for the given role tag.
func (r Request) Approval(role ApprovalRole) bool {
	switch role {
	case ApprovalTreasury:
		return r.TreasuryApproval
	case ApprovalAuditor:
		return r.AuditorApproval
	case ApprovalOrgAdmin:
		return r.OrgAdminApproval
	}
	return false
}

// SetApproval sets the slot for the given role tag.
func (r *Request) SetApproval(role ApprovalRole) {
	switch role {
	case ApprovalTreasury:
		r.TreasuryApproval = true
	case ApprovalAuditor:
		r.AuditorApproval = true
	case ApprovalOrgAdmin:
		r.OrgAdminApproval = true
	}
}

// Every precondition failure is a distinct, named error so callers never have
// to parse messages. All are terminal: the coordinator retries nothing.
var (
	ErrNotConfigured           = dErrors.New(dErrors.CodeNotConfigured, "asset ledger or proof registry not configured")
	ErrUnauthorized            = dErrors.New(dErrors.CodeForbidden, "caller does not hold the required role")
	ErrProofNotFound           = dErrors.New(dErrors.CodeNotFound, "proof record not found")
	ErrProofAlreadyUsed        = dErrors.New(dErrors.CodeConflict, "proof already consumed by another request")
	ErrInvalidAddress          = dErrors.New(dErrors.CodeValidation, "destination is the zero holder or not allowed")
	ErrInsufficientBalance     = dErrors.New(dErrors.CodeValidation, "source balance is insufficient")
	ErrRequestNotFound         = dErrors.New(dErrors.CodeNotFound, "forced-transfer request not found")
	ErrRequestNotPending       = dErrors.New(dErrors.CodeInvariantViolation, "request is not pending")
	ErrCannotSelfApprove       = dErrors.New(dErrors.CodeConflict, "initiator may not supply the treasury approval")
	ErrAlreadyApproved         = dErrors.New(dErrors.CodeConflict, "approval already given for this role")
	ErrRequestNotFullyApproved = dErrors.New(dErrors.CodeInvariantViolation, "request is not fully approved")
)
