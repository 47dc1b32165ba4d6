package identity

// Role labels known to the authorization layer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Policy describes who may perform a guarded operation.
//
// Exactly one rule applies, in order:
//   - a principal holding RoleAdmin is always allowed;
//   - when Owner is set, only the resource owner is allowed (role labels
//     are not consulted);
//   - otherwise the principal's roles must intersect AnyOf.
type Policy struct {
	AnyOf []string
	Owner bool
}

// AnyOf builds a role-intersection policy.
func AnyOf(roles ...string) Policy { return Policy{AnyOf: roles} }

// OwnerOnly builds an ownership policy (admin still overrides).
func OwnerOnly() Policy { return Policy{Owner: true} }

// Allowed is the single pure decision function for role/ownership checks.
// ownerID is the owning-user id of the target resource, or "" when the
// operation is not scoped to a resource.
func Allowed(p Principal, pol Policy, ownerID string) bool {
	if p.HasRole(RoleAdmin) {
		return true
	}

	if pol.Owner {
		return ownerID != "" && ownerID == p.ID
	}

	for _, want := range pol.AnyOf {
		if p.HasRole(want) {
			return true
		}
	}
	return false
}
