// Package permkit implements a scoped role-token permission engine: a
// registry of named permission sets and, per set, a soul-bound multi-token
// ledger in which holding a token means holding a role.
//
// # Core Concepts
//
// Role token: a numeric ID encoding a base role (1-999) and an optional
// permission-set scope via scopedID = base + setID*1000. An address either
// holds a token (balance 1) or does not (balance 0); tokens cannot be
// transferred, only minted and burned.
//
// Permission set: a registered (ID, name) pair that scopes role tokens.
// Set 0 is the global scope; a global Admin token authorizes actions in
// every scope, while a scoped Admin token only reaches its own set.
//
// Authorization: minting a role requires holding the admin role the
// hierarchy demands - Admin for administrative roles, WhitelistAdmin (at
// the same scope) for IsWhitelisted, BlacklistAdmin for IsBlacklisted.
//
// Overwriter: remaps a configurable set of well-known base roles into an
// alternate permission set at runtime, so code querying a global role
// transparently receives the scoped answer.
//
// # Key Features
//
//   - Soul-bound tokens: no holder-to-holder transfers, ever
//   - Per-scope admin hierarchy with a global superuser scope
//   - Holder enumeration per token (swap-and-pop on removal)
//   - Batch minting with all-or-nothing semantics
//   - Append-only event log written atomically with each mutation
//   - DBKit integration: uses your existing database connection
//
// # Basic Usage
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	ledger := permkit.NewLedger(db)
//
//	// Run migrations and mint the initial global Admin token to the deployer.
//	ledger.Migrate(ctx)
//	ctx = permkit.WithOperator(ctx, deployer)
//	ledger.Setup(ctx, "https://admin-token-uri")
//
//	// Grant roles.
//	ledger.Create(ctx, alice, permkit.RoleMinter, "https://minter")
//	ledger.Mint(ctx, bob, permkit.RoleMinter)
//
//	// Check roles.
//	ok, _ := ledger.HasRole(ctx, permkit.RoleMinter, bob)
//
// # Scoped Roles
//
// Register a permission set and scope tokens into it:
//
//	setID, _ := ledger.RegisterPermissionSet(ctx, "MySet")
//	scoped, _ := permkit.ScopedRole(setID, permkit.RoleAdmin)
//	ledger.CreateOrMint(ctx, alice, scoped, "custom://")
//	// alice now administers setID, but not the global scope.
//
// # Overwriter
//
// An Overwriter redirects well-known roles into its active set:
//
//	ow := permkit.NewOverwriter(ledger, "my-app")
//	ow.Init(ctx, 11)
//	ow.SetRoleIDOverwrite(ctx, permkit.RoleWhitelistAdmin, true)
//	ow.SetPermissionSetID(ctx, 42)
//	// ow.HasRole(ctx, RoleWhitelistAdmin, addr) now consults role 42003.
//
// # Event Log
//
// Every mutation appends events (TransferSingle, PermissionSetAdded, ...)
// in the same transaction as the state change, after the state is final.
// Query them with Events and an EventFilter.
package permkit
