package permkit

import "math"

// Well-known base role token IDs. Base roles occupy 1-999; a role is scoped
// into a permission set by adding setID*1000. Role 0 is reserved and acts as
// a "global / don't care" sentinel in scope checks.
const (
	RoleNone           uint64 = 0
	RoleAdmin          uint64 = 1
	RoleDeployer       uint64 = 2
	RoleWhitelistAdmin uint64 = 3
	RoleBlacklistAdmin uint64 = 4
	RoleMinter         uint64 = 5
	RoleTransferer     uint64 = 6
	RoleOperator       uint64 = 7
	RoleIsWhitelisted  uint64 = 8
	RoleIsBlacklisted  uint64 = 9
)

// roleScopeFactor is the arithmetic namespace width: scopedID = base + setID*1000.
const roleScopeFactor uint64 = 1000

// BaseRole returns the base role component of a token ID.
func BaseRole(tokenID uint64) uint64 {
	return tokenID % roleScopeFactor
}

// ScopeOf returns the permission-set scope component of a token ID.
func ScopeOf(tokenID uint64) uint64 {
	return tokenID / roleScopeFactor
}

// ScopedRole composes a base role and a permission-set ID into a scoped token
// ID. It fails with ErrInvalidRole when base is not a base role or when the
// set ID would overflow the ID space.
func ScopedRole(setID, base uint64) (uint64, error) {
	if base >= roleScopeFactor {
		return 0, NewError(ErrInvalidRole, "base role must be below 1000").WithToken(base)
	}
	if setID > (math.MaxUint64-base)/roleScopeFactor {
		return 0, NewError(ErrInvalidRole, "permission set id overflows token id space").WithSet(setID)
	}
	return base + setID*roleScopeFactor, nil
}

// mustScopedRole is ScopedRole for set IDs already known to be in range.
func mustScopedRole(setID, base uint64) uint64 {
	return base + setID*roleScopeFactor
}

// requiredAdminRole maps each recognized base role to the base role a caller
// must hold (at the target's scope, or global Admin) to mint it. Roles not in
// the table - arbitrary custom tokens - are treated like administrative
// roles and require Admin.
var requiredAdminRole = map[uint64]uint64{
	RoleAdmin:          RoleAdmin,
	RoleDeployer:       RoleAdmin,
	RoleWhitelistAdmin: RoleAdmin,
	RoleBlacklistAdmin: RoleAdmin,
	RoleMinter:         RoleAdmin,
	RoleTransferer:     RoleAdmin,
	RoleOperator:       RoleAdmin,
	RoleIsWhitelisted:  RoleWhitelistAdmin,
	RoleIsBlacklisted:  RoleBlacklistAdmin,
}

// RequiredAdminRole returns the base role required to mint the given base
// role. Unrecognized base roles fall back to Admin.
func RequiredAdminRole(base uint64) uint64 {
	if required, ok := requiredAdminRole[base]; ok {
		return required
	}
	return RoleAdmin
}

// derivedRoles maps an admin role to the status roles that follow it around:
// delegating whitelist administration into a permission set must carry the
// derived is-whitelisted status role along with it. Consulted by the
// overwriter when toggling role overwrites.
var derivedRoles = map[uint64][]uint64{
	RoleWhitelistAdmin: {RoleIsWhitelisted},
	RoleBlacklistAdmin: {RoleIsBlacklisted},
}

// DerivedRoles returns the status roles that cascade with the given admin
// role, or nil when none do.
func DerivedRoles(base uint64) []uint64 {
	return derivedRoles[base]
}

// RoleName returns a human-readable name for a well-known base role, or the
// empty string for custom roles.
func RoleName(base uint64) string {
	switch base {
	case RoleAdmin:
		return "admin"
	case RoleDeployer:
		return "deployer"
	case RoleWhitelistAdmin:
		return "whitelist_admin"
	case RoleBlacklistAdmin:
		return "blacklist_admin"
	case RoleMinter:
		return "minter"
	case RoleTransferer:
		return "transferer"
	case RoleOperator:
		return "operator"
	case RoleIsWhitelisted:
		return "is_whitelisted"
	case RoleIsBlacklisted:
		return "is_blacklisted"
	}
	return ""
}
