package permkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// BalanceOf returns 1 when the address holds the role token and 0 otherwise.
// Balances never exceed 1.
func (l *Ledger) BalanceOf(ctx context.Context, address string, tokenID uint64) (uint64, error) {
	holds, err := l.HoldsToken(ctx, address, tokenID)
	if err != nil {
		return 0, err
	}
	if holds {
		return 1, nil
	}
	return 0, nil
}

// BalanceOfBatch returns the balances for parallel address/token slices.
// Fails with ErrLengthMismatch when the slices differ in length.
func (l *Ledger) BalanceOfBatch(ctx context.Context, addresses []string, tokenIDs []uint64) ([]uint64, error) {
	if len(addresses) != len(tokenIDs) {
		return nil, NewError(ErrLengthMismatch, "addresses and token ids must have the same length")
	}

	balances := make([]uint64, len(addresses))
	for i := range addresses {
		balance, err := l.BalanceOf(ctx, addresses[i], tokenIDs[i])
		if err != nil {
			return nil, err
		}
		balances[i] = balance
	}
	return balances, nil
}

// HasRole reports whether the address holds the role token. Same answer as
// BalanceOf, shaped for authorization call sites.
func (l *Ledger) HasRole(ctx context.Context, tokenID uint64, address string) (bool, error) {
	return l.HoldsToken(ctx, address, tokenID)
}

// IsAdmin reports whether the address administers the given permission set.
// Set 0 means the global scope.
func (l *Ledger) IsAdmin(ctx context.Context, address string, setID uint64) (bool, error) {
	return l.Authorizer().IsAdmin(ctx, address, setID)
}

// CheckMinting reports whether the caller may mint or create the target role
// token, and which role token would authorize it.
func (l *Ledger) CheckMinting(ctx context.Context, caller string, tokenID uint64) (bool, uint64, error) {
	return l.Authorizer().CheckMinting(ctx, caller, tokenID)
}

// OwnersOf returns the current holder set of a role token in ledger-internal
// order. The order changes across burns (the freed slot is filled by the
// last holder); an uncreated or unheld token yields an empty slice.
func (l *Ledger) OwnersOf(ctx context.Context, tokenID uint64) ([]string, error) {
	var holders []TokenHolder
	err := l.db.NewSelect().
		Model(&holders).
		Where("token_id = ?", tokenID).
		Order("holder_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, dbkit.WithErr1(err, "OwnersOf").Err()
	}

	owners := make([]string, len(holders))
	for i, h := range holders {
		owners[i] = h.Address
	}
	return owners, nil
}

// TokenMemberCount returns the number of current holders of a role token.
func (l *Ledger) TokenMemberCount(ctx context.Context, tokenID uint64) (uint64, error) {
	count, err := dbkit.Count[TokenHolder](ctx, l.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("token_id = ?", tokenID)
	})
	if err != nil {
		return 0, dbkit.WithErr1(err, "TokenMemberCount").Err()
	}
	return uint64(count), nil
}

// TokenMember returns the holder at a 1-based index into the token's holder
// set. Fails with ErrIndexOutOfRange for index 0 or past the last holder.
func (l *Ledger) TokenMember(ctx context.Context, tokenID uint64, index uint64) (string, error) {
	if index == 0 {
		return "", NewError(ErrIndexOutOfRange, "holder index is 1-based").WithToken(tokenID)
	}

	var holder TokenHolder
	err := l.db.NewSelect().
		Model(&holder).
		Where("token_id = ? AND holder_index = ?", tokenID, int64(index)).
		Scan(ctx)
	if err != nil {
		if dbkit.IsNotFound(err) {
			return "", NewError(ErrIndexOutOfRange, "holder index past the last holder").WithToken(tokenID)
		}
		return "", dbkit.WithErr1(err, "TokenMember").Err()
	}
	return holder.Address, nil
}

// TokenExists reports whether the role token was created.
func (l *Ledger) TokenExists(ctx context.Context, tokenID uint64) (bool, error) {
	return tokenExists(ctx, l.db, tokenID)
}

// TokenURI returns the metadata URI of a created role token. Fails with
// ErrTokenNotCreated for unknown tokens.
func (l *Ledger) TokenURI(ctx context.Context, tokenID uint64) (string, error) {
	var token RoleToken
	err := l.db.NewSelect().
		Model(&token).
		Where("token_id = ?", tokenID).
		Scan(ctx)
	if err != nil {
		if dbkit.IsNotFound(err) {
			return "", NewError(ErrTokenNotCreated, "role token was not created yet").WithToken(tokenID)
		}
		return "", dbkit.WithErr1(err, "TokenURI").Err()
	}
	return token.URI, nil
}

// IsApprovedForAll reports whether owner approved operator for burns.
func (l *Ledger) IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error) {
	return isApprovedForAll(ctx, l.db, owner, operator)
}

// HolderTokens returns every role token an address currently holds, as a
// point-in-time RoleHoldings snapshot.
func (l *Ledger) HolderTokens(ctx context.Context, address string) (*RoleHoldings, error) {
	var holders []TokenHolder
	err := l.db.NewSelect().
		Model(&holders).
		Where("address = ?", address).
		Order("token_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, dbkit.WithErr1(err, "HolderTokens").Err()
	}

	tokens := make([]uint64, len(holders))
	for i, h := range holders {
		tokens[i] = h.TokenID
	}
	return NewRoleHoldings(address, tokens), nil
}
