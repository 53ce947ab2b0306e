package permkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// MintOneBatch mints one role token to many addresses atomically. Every
// address is checked like a single Mint; the first failure rolls back the
// whole batch.
//
// Example:
//
//	err := ledger.MintOneBatch(ctx, seedAccounts, permkit.RoleIsWhitelisted)
func (l *Ledger) MintOneBatch(ctx context.Context, addresses []string, tokenID uint64) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to mint tokens")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireMinting(ctx, cc.Operator, tokenID); err != nil {
			return err
		}
		for _, to := range addresses {
			if err := mintTo(ctx, tx, cc, to, tokenID); err != nil {
				return err
			}
		}
		return nil
	})
}

// MintBatch mints one token per address from two parallel slices, atomically.
// Fails with ErrLengthMismatch when the slices differ in length. Each
// (address, token) pair is authorization-checked independently against the
// caller's roles; any failure rolls back the whole batch.
func (l *Ledger) MintBatch(ctx context.Context, addresses []string, tokenIDs []uint64) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to mint tokens")
	}
	if len(addresses) != len(tokenIDs) {
		return NewError(ErrLengthMismatch, "addresses and token ids must have the same length")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		authorizer := authorizerFor(tx)
		for i, to := range addresses {
			if err := authorizer.RequireMinting(ctx, cc.Operator, tokenIDs[i]); err != nil {
				return err
			}
			if err := mintTo(ctx, tx, cc, to, tokenIDs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}
