package permkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// Ledger provides the role-token ownership ledger and the permission-set
// registry on top of a database through dbkit.
//
// Every public mutating operation runs in one database transaction: either
// all of its state changes and events persist, or none do. Queries run
// outside transactions against committed state.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping to provide
// detailed context about failed operations. Domain failures surface as
// permkit sentinel errors with structured context:
//
//	err := ledger.Mint(ctx, to, id)
//	if err != nil {
//	    if permkit.IsConflict(err) {
//	        // target already holds the role
//	    }
//	    var pkErr *permkit.Error
//	    if errors.As(err, &pkErr) {
//	        fmt.Printf("token: %d, required: %d\n", pkErr.TokenID, pkErr.Required)
//	    }
//	}
type Ledger struct {
	db        dbkit.IDB
	txMonitor *transactionMonitor
}

// NewLedger creates a new Ledger over a database connection.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	ledger := permkit.NewLedger(db)
func NewLedger(db dbkit.IDB) *Ledger {
	return &Ledger{
		db:        db,
		txMonitor: newTransactionMonitor(),
	}
}

// Authorizer returns an authorization engine over the ledger's committed
// state.
func (l *Ledger) Authorizer() *Authorizer {
	return NewAuthorizer(l)
}

// HoldsToken reports whether the address holds the role token. Implements
// HoldingsSource against committed state.
func (l *Ledger) HoldsToken(ctx context.Context, address string, tokenID uint64) (bool, error) {
	return ledgerHoldings{db: l.db}.HoldsToken(ctx, address, tokenID)
}

// Setup bootstraps a freshly migrated ledger: it creates the global Admin
// token and mints it to the operator in context (the "deployer"). Calling
// Setup on a ledger that already has an Admin token fails with
// ErrTokenAlreadyCreated.
func (l *Ledger) Setup(ctx context.Context, adminTokenURI string) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required for ledger setup")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		exists, err := tokenExists(ctx, tx, RoleAdmin)
		if err != nil {
			return err
		}
		if exists {
			return NewError(ErrTokenAlreadyCreated, "ledger already set up").WithToken(RoleAdmin)
		}
		if err := insertToken(ctx, tx, RoleAdmin, adminTokenURI); err != nil {
			return err
		}
		if err := appendHolder(ctx, tx, RoleAdmin, cc.Operator); err != nil {
			return err
		}
		return appendEvent(ctx, tx, transferSingleEvent(cc, "", cc.Operator, RoleAdmin))
	})
}

// ledgerHoldings adapts an IDB (connection or open transaction) to the
// HoldingsSource interface. Authorization inside a mutation must read through
// the mutation's own transaction, never the outer connection.
type ledgerHoldings struct {
	db dbkit.IDB
}

func (h ledgerHoldings) HoldsToken(ctx context.Context, address string, tokenID uint64) (bool, error) {
	exists, err := dbkit.Exists[TokenHolder](ctx, h.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("token_id = ? AND address = ?", tokenID, address)
	})
	if err != nil {
		return false, dbkit.WithErr1(err, "HoldsToken").Err()
	}
	return exists, nil
}

// authorizerFor returns an Authorizer reading through the given IDB.
func authorizerFor(db dbkit.IDB) *Authorizer {
	return NewAuthorizer(ledgerHoldings{db: db})
}
