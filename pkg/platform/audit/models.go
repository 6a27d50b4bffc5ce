package audit

import "time"

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention (e.g., 7 years).
	// Examples: forced-transfer lifecycle, mint/burn, dossier issuance.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics: role changes, allowlist changes, freezes, pause toggles.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Actor is the authenticated caller who performed the action.
	Actor string
	// Subject identifies the entity acted upon: a holder, a forced-transfer
	// request id, or a dossier id, depending on the action.
	Subject string
	Action  string
	// Transfer fields, populated for ledger and forced-transfer events.
	From   string
	To     string
	Amount int64
	// ProofID is the dossier cited as evidence for a forced transfer.
	ProofID uint64
	// Reason carries the free-text justification recorded at initiation. It is
	// persisted verbatim for audit and never validated.
	Reason string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

type AuditEvent string

const (
	// Forced-transfer lifecycle events
	EventForcedTransferInitiated AuditEvent = "forced_transfer_initiated"
	EventForcedTransferApproved  AuditEvent = "forced_transfer_approved"
	EventForcedTransferExecuted  AuditEvent = "forced_transfer_executed"
	EventForcedTransferCancelled AuditEvent = "forced_transfer_cancelled"
	EventCollaboratorConfigured  AuditEvent = "collaborator_configured"

	// Ledger events
	EventTokensMinted      AuditEvent = "tokens_minted"
	EventTokensBurned      AuditEvent = "tokens_burned"
	EventTokensTransferred AuditEvent = "tokens_transferred"
	EventBalanceFrozen     AuditEvent = "balance_frozen"
	EventBalanceUnfrozen   AuditEvent = "balance_unfrozen"
	EventHolderAllowed     AuditEvent = "holder_allowed"
	EventHolderDisallowed  AuditEvent = "holder_disallowed"
	EventTokenPaused       AuditEvent = "token_paused"
	EventTokenUnpaused     AuditEvent = "token_unpaused"

	// Dossier events
	EventDossierIssued AuditEvent = "dossier_issued"

	// Authority events
	EventRoleGranted AuditEvent = "role_granted"
	EventRoleRevoked AuditEvent = "role_revoked"
)

// eventCategories maps each audit event to its category.
// Compliance: regulatory significance, long retention required.
// Security: security monitoring, SIEM integration, alerting.
// Operations: debugging, operational visibility, can be sampled.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - the involuntary-movement trail regulators ask for
	EventForcedTransferInitiated: CategoryCompliance,
	EventForcedTransferApproved:  CategoryCompliance,
	EventForcedTransferExecuted:  CategoryCompliance,
	EventForcedTransferCancelled: CategoryCompliance,
	EventTokensMinted:            CategoryCompliance,
	EventTokensBurned:            CategoryCompliance,
	EventDossierIssued:           CategoryCompliance,

	// Security events - privileged state changes
	EventCollaboratorConfigured: CategorySecurity,
	EventBalanceFrozen:          CategorySecurity,
	EventBalanceUnfrozen:        CategorySecurity,
	EventHolderAllowed:          CategorySecurity,
	EventHolderDisallowed:       CategorySecurity,
	EventTokenPaused:            CategorySecurity,
	EventTokenUnpaused:          CategorySecurity,
	EventRoleGranted:            CategorySecurity,
	EventRoleRevoked:            CategorySecurity,

	// Operations events - routine activity
	EventTokensTransferred: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
