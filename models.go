package permkit

import (
	"time"

	"github.com/uptrace/bun"
)

// PermissionSet is a registered (ID, name) scope for role tokens.
// Slot tracks enumeration order; removal reuses the freed slot for the last
// entry (swap-and-pop), so order among survivors is not insertion order.
type PermissionSet struct {
	bun.BaseModel `bun:"table:permission_sets,alias:ps"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	SetID     uint64    `bun:"set_id,notnull,unique"`
	Name      string    `bun:"name,notnull,unique"`
	Slot      int64     `bun:"slot,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// RoleToken is a created role token: its ID, metadata URI and creation time.
// Holder balances live in TokenHolder rows; a token must exist here before
// it can be minted to further holders.
type RoleToken struct {
	bun.BaseModel `bun:"table:role_tokens,alias:rt"`

	TokenID   uint64    `bun:"token_id,pk"`
	URI       string    `bun:"uri,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// TokenHolder records that an address holds one unit of a role token.
// HolderIndex is 1-based and dense per token; burning a non-last holder
// moves the last holder into the freed index.
type TokenHolder struct {
	bun.BaseModel `bun:"table:token_holders,alias:th"`

	ID          string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	TokenID     uint64    `bun:"token_id,notnull"`
	Address     string    `bun:"address,notnull"`
	HolderIndex int64     `bun:"holder_index,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// OperatorApproval is a per (owner, operator) burn approval flag.
type OperatorApproval struct {
	bun.BaseModel `bun:"table:operator_approvals,alias:oa"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Owner     string    `bun:"owner,notnull"`
	Operator  string    `bun:"operator,notnull"`
	Approved  bool      `bun:"approved,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// OverwriterState is the active permission-set ID of one overwriter instance.
type OverwriterState struct {
	bun.BaseModel `bun:"table:overwriter_states,alias:os"`

	Key       string    `bun:"key,pk"`
	SetID     uint64    `bun:"set_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// OverwriterRole marks a base role as overwrite-enabled for an overwriter.
// Slot preserves insertion order for reconciliation.
type OverwriterRole struct {
	bun.BaseModel `bun:"table:overwriter_roles,alias:or"`

	ID       string `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Key      string `bun:"key,notnull"`
	BaseRole uint64 `bun:"base_role,notnull"`
	Slot     int64  `bun:"slot,notnull"`
}

// OverwriterToken is a scoped token ID currently associated with a base role
// through overwrite reconciliation.
type OverwriterToken struct {
	bun.BaseModel `bun:"table:overwriter_tokens,alias:ot"`

	ID       string `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Key      string `bun:"key,notnull"`
	BaseRole uint64 `bun:"base_role,notnull"`
	TokenID  uint64 `bun:"token_id,notnull"`
	Slot     int64  `bun:"slot,notnull"`
}

// Counter is a named monotonically increasing counter (auto permission-set IDs).
type Counter struct {
	bun.BaseModel `bun:"table:counters,alias:cn"`

	Name  string `bun:"name,pk"`
	Value uint64 `bun:"value,notnull"`
}

// RoleHoldings holds all role tokens of one address, indexed for lookup.
// It is a point-in-time view; the Authorizer accepts it wherever live ledger
// access is not wanted.
type RoleHoldings struct {
	Address string
	Tokens  []uint64

	byToken map[uint64]bool
}

// NewRoleHoldings creates a RoleHoldings from a list of held token IDs.
func NewRoleHoldings(address string, tokens []uint64) *RoleHoldings {
	rh := &RoleHoldings{
		Address: address,
		Tokens:  tokens,
		byToken: make(map[uint64]bool, len(tokens)),
	}
	for _, id := range tokens {
		rh.byToken[id] = true
	}
	return rh
}

// HasToken reports whether the address holds the given role token.
func (rh *RoleHoldings) HasToken(tokenID uint64) bool {
	return rh.byToken[tokenID]
}

// HasBaseRole reports whether the address holds the base role in the given
// permission set.
func (rh *RoleHoldings) HasBaseRole(setID, base uint64) bool {
	scoped, err := ScopedRole(setID, base)
	if err != nil {
		return false
	}
	return rh.byToken[scoped]
}

// IsEmpty returns true if the address holds no role tokens.
func (rh *RoleHoldings) IsEmpty() bool {
	return len(rh.Tokens) == 0
}
