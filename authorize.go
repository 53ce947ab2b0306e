package permkit

import (
	"context"
)

// HoldingsSource answers whether an address holds a role token. Satisfied by
// *Ledger (live database lookups) and by point-in-time fakes in tests.
type HoldingsSource interface {
	HoldsToken(ctx context.Context, address string, tokenID uint64) (bool, error)
}

// Authorizer decides which caller may mint, create or burn which role token.
// It keeps no state of its own; every decision is a pure function over the
// holdings source and the admin-hierarchy tables in roles.go.
type Authorizer struct {
	holdings HoldingsSource
}

// NewAuthorizer creates an Authorizer over a holdings source.
func NewAuthorizer(holdings HoldingsSource) *Authorizer {
	return &Authorizer{holdings: holdings}
}

// IsAdmin reports whether the address holds the Admin role for the given
// permission set. Global Admin (set 0) satisfies every set; a scoped Admin
// token never reaches outside its own set. IsAdmin(addr, 0) reflects the
// global token only.
func (a *Authorizer) IsAdmin(ctx context.Context, address string, setID uint64) (bool, error) {
	if setID != 0 {
		ok, err := a.holdings.HoldsToken(ctx, address, mustScopedRole(setID, RoleAdmin))
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return a.holdings.HoldsToken(ctx, address, RoleAdmin)
}

// IsAdminOrDeployer reports whether the address holds the global Admin or
// global Deployer role. This is the gate for permission-set registry
// mutations.
func (a *Authorizer) IsAdminOrDeployer(ctx context.Context, address string) (bool, error) {
	ok, err := a.IsAdmin(ctx, address, 0)
	if err != nil || ok {
		return ok, err
	}
	return a.holdings.HoldsToken(ctx, address, RoleDeployer)
}

// CheckMinting decides whether caller may mint/create the target role token.
// It returns the role token that would authorize the operation, reported at
// the target's scope, whether or not the caller holds it.
//
// Admins of the target's scope (or global admins) may mint anything in that
// scope. Otherwise the admin hierarchy applies: administrative and custom
// roles require Admin, the is-whitelisted / is-blacklisted status roles
// require the matching list-admin role at the same scope (a globally held
// list-admin role counts for every scope, mirroring the global Admin rule).
func (a *Authorizer) CheckMinting(ctx context.Context, caller string, targetID uint64) (bool, uint64, error) {
	base := BaseRole(targetID)
	scope := ScopeOf(targetID)

	admin, err := a.IsAdmin(ctx, caller, scope)
	if err != nil {
		return false, 0, err
	}

	requiredBase := RequiredAdminRole(base)
	required := mustScopedRole(scope, requiredBase)

	if admin {
		if requiredBase == RoleAdmin {
			return true, required, nil
		}
		return true, mustScopedRole(scope, RoleAdmin), nil
	}

	if requiredBase == RoleAdmin {
		// Admin was already ruled out above.
		return false, required, nil
	}

	ok, err := a.holdings.HoldsToken(ctx, caller, required)
	if err != nil {
		return false, 0, err
	}
	if !ok && scope != 0 {
		ok, err = a.holdings.HoldsToken(ctx, caller, requiredBase)
		if err != nil {
			return false, 0, err
		}
	}
	return ok, required, nil
}

// RequireMinting is CheckMinting with a hard failure: it returns
// ErrMissingRole carrying the caller, the target and the required role when
// the caller is not allowed to mint.
func (a *Authorizer) RequireMinting(ctx context.Context, caller string, targetID uint64) error {
	ok, required, err := a.CheckMinting(ctx, caller, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ErrMissingRole, "caller lacks the role required for minting").
			WithOperator(caller).
			WithToken(targetID).
			WithRequired(required)
	}
	return nil
}

// RequireAdmin fails with ErrAdminRoleRequired unless the caller administers
// the given permission set.
func (a *Authorizer) RequireAdmin(ctx context.Context, caller string, setID uint64) error {
	ok, err := a.IsAdmin(ctx, caller, setID)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ErrAdminRoleRequired, "admin role required for this permission set").
			WithOperator(caller).
			WithSet(setID)
	}
	return nil
}

// RequireAdminOrDeployer fails with ErrAdminOrDeployerRequired unless the
// caller holds the global Admin or Deployer role.
func (a *Authorizer) RequireAdminOrDeployer(ctx context.Context, caller string) error {
	ok, err := a.IsAdminOrDeployer(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(ErrAdminOrDeployerRequired, "admin or deployer role required").
			WithOperator(caller)
	}
	return nil
}
