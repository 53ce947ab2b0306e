package permkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection
type Database interface {
	dbkit.IDB
}

// TokenMinter defines the authorization-checked token issuing interface
type TokenMinter interface {
	Create(ctx context.Context, to string, tokenID uint64, uri string) error
	Mint(ctx context.Context, to string, tokenID uint64) error
	CreateOrMint(ctx context.Context, to string, tokenID uint64, uri string) error
	MintOneBatch(ctx context.Context, addresses []string, tokenID uint64) error
	MintBatch(ctx context.Context, addresses []string, tokenIDs []uint64) error
}

// TokenBurner defines the token revocation interface
type TokenBurner interface {
	Burn(ctx context.Context, from string, tokenID uint64, amount uint64) error
	BurnAs(ctx context.Context, from string, tokenID uint64) error
}

// HoldingsReader defines the ownership query interface
type HoldingsReader interface {
	BalanceOf(ctx context.Context, address string, tokenID uint64) (uint64, error)
	BalanceOfBatch(ctx context.Context, addresses []string, tokenIDs []uint64) ([]uint64, error)
	HasRole(ctx context.Context, tokenID uint64, address string) (bool, error)
	OwnersOf(ctx context.Context, tokenID uint64) ([]string, error)
	TokenMemberCount(ctx context.Context, tokenID uint64) (uint64, error)
	TokenMember(ctx context.Context, tokenID uint64, index uint64) (string, error)
}

// RegistryManager defines the permission-set registry interface
type RegistryManager interface {
	AddPermissionSet(ctx context.Context, setID uint64, name string) error
	RegisterPermissionSet(ctx context.Context, name string) (uint64, error)
	RemovePermissionSet(ctx context.Context, setID uint64) error
	PermissionSetName(ctx context.Context, setID uint64) (string, error)
	PermissionSetIDs(ctx context.Context) ([]uint64, error)
}

// RoleChecker defines the authorization decision interface
type RoleChecker interface {
	IsAdmin(ctx context.Context, address string, setID uint64) (bool, error)
	CheckMinting(ctx context.Context, caller string, tokenID uint64) (bool, uint64, error)
}

// TransactionManager defines the transaction management interface
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, tx *Ledger) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context, tx *Ledger) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx *Ledger) error) error
}

// HealthMonitor defines the health monitoring interface
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// EventReader defines the event log query interface
type EventReader interface {
	Events(ctx context.Context, filter EventFilter) ([]Event, error)
	CountEvents(ctx context.Context, filter EventFilter) (int, error)
}

// TransactionMonitor defines the transaction monitoring interface
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
}

var (
	_ TokenMinter        = (*Ledger)(nil)
	_ TokenBurner        = (*Ledger)(nil)
	_ HoldingsReader     = (*Ledger)(nil)
	_ RegistryManager    = (*Ledger)(nil)
	_ RoleChecker        = (*Ledger)(nil)
	_ TransactionManager = (*Ledger)(nil)
	_ EventReader        = (*Ledger)(nil)
	_ TransactionMonitor = (*Ledger)(nil)
	_ HoldingsSource     = (*Ledger)(nil)
	_ RoleVerifier       = (*Ledger)(nil)
	_ HealthMonitor      = (*HealthService)(nil)
)
