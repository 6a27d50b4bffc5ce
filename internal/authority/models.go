package authority

// Role identifies a privileged capability in the protocol.
type Role string

const (
	// RoleTreasuryController may initiate and execute forced transfers, mint,
	// and supply the treasury approval slot.
	RoleTreasuryController Role = "treasury_controller"
	// RoleAuditor supplies the independent audit approval slot.
	RoleAuditor Role = "auditor"
	// RoleOrgAdmin supplies the organizational approval slot, cancels
	// requests, and operates compliance controls (freeze, allowlist, pause).
	RoleOrgAdmin Role = "org_admin"
	// RoleProtocolAdmin governs wiring only: which collaborators the
	// coordinator points at and who holds which role.
	RoleProtocolAdmin Role = "protocol_admin"
)

// Valid reports whether the role is one the protocol knows about.
func (r Role) Valid() bool {
	switch r {
	case RoleTreasuryController, RoleAuditor, RoleOrgAdmin, RoleProtocolAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
