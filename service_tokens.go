package permkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// Create creates a role token with a metadata URI and mints its first unit
// to an address. The caller needs minting rights for the token per the admin
// hierarchy. Fails with ErrTokenAlreadyCreated when the token exists.
//
// Example:
//
//	ctx := permkit.WithOperator(ctx, deployer)
//	err := ledger.Create(ctx, alice, permkit.RoleMinter, "ipfs://minter.json")
func (l *Ledger) Create(ctx context.Context, to string, tokenID uint64, uri string) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to create tokens")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireMinting(ctx, cc.Operator, tokenID); err != nil {
			return err
		}
		exists, err := tokenExists(ctx, tx, tokenID)
		if err != nil {
			return err
		}
		if exists {
			return NewError(ErrTokenAlreadyCreated, "role token was already created").WithToken(tokenID)
		}
		if err := insertToken(ctx, tx, tokenID, uri); err != nil {
			return err
		}
		if err := appendHolder(ctx, tx, tokenID, to); err != nil {
			return err
		}
		return appendEvent(ctx, tx, transferSingleEvent(cc, "", to, tokenID))
	})
}

// Mint mints one unit of an existing role token to an address. Fails with
// ErrTokenNotCreated when the token was never created and with
// ErrTokenAlreadyHeld when the address already holds it.
func (l *Ledger) Mint(ctx context.Context, to string, tokenID uint64) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to mint tokens")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireMinting(ctx, cc.Operator, tokenID); err != nil {
			return err
		}
		return mintTo(ctx, tx, cc, to, tokenID)
	})
}

// CreateOrMint creates the role token when it does not exist yet, otherwise
// mints it. The URI only applies on the create branch; once a token exists
// its URI is kept. Minting to an address that already holds the token fails
// with ErrTokenAlreadyHeld on both branches.
func (l *Ledger) CreateOrMint(ctx context.Context, to string, tokenID uint64, uri string) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to mint tokens")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireMinting(ctx, cc.Operator, tokenID); err != nil {
			return err
		}
		exists, err := tokenExists(ctx, tx, tokenID)
		if err != nil {
			return err
		}
		if !exists {
			if err := insertToken(ctx, tx, tokenID, uri); err != nil {
				return err
			}
			if err := appendHolder(ctx, tx, tokenID, to); err != nil {
				return err
			}
			return appendEvent(ctx, tx, transferSingleEvent(cc, "", to, tokenID))
		}
		return mintTo(ctx, tx, cc, to, tokenID)
	})
}

// Burn removes one unit of a role token from an address. Amount must be 1.
// The caller must be the holder or an operator the holder approved via
// SetApprovalForAll. Holder enumeration order is not stable across burns:
// the freed slot is filled by the last holder.
func (l *Ledger) Burn(ctx context.Context, from string, tokenID uint64, amount uint64) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to burn tokens")
	}
	if amount != 1 {
		return NewError(ErrInvalidAmount, "burn amount must be exactly 1").
			WithToken(tokenID).
			WithAmount(amount)
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if cc.Operator != from {
			approved, err := isApprovedForAll(ctx, tx, from, cc.Operator)
			if err != nil {
				return err
			}
			if !approved {
				return NewError(ErrNotOwnerNorApproved, "caller may not burn for this holder").
					WithOperator(cc.Operator).
					WithAddress(from).
					WithToken(tokenID)
			}
		}
		if err := removeHolder(ctx, tx, tokenID, from); err != nil {
			return err
		}
		return appendEvent(ctx, tx, transferSingleEvent(cc, from, "", tokenID))
	})
}

// BurnAs is a privileged burn for administrators: it bypasses the
// owner/approval requirement and instead requires the admin role for the
// token's scope. Fails with ErrAdminRoleRequired otherwise.
func (l *Ledger) BurnAs(ctx context.Context, from string, tokenID uint64) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to burn tokens")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireAdmin(ctx, cc.Operator, ScopeOf(tokenID)); err != nil {
			return err
		}
		if err := removeHolder(ctx, tx, tokenID, from); err != nil {
			return err
		}
		return appendEvent(ctx, tx, transferSingleEvent(cc, from, "", tokenID))
	})
}

// SetTokenURI replaces the metadata URI of a created token. Requires the
// admin role for the token's scope.
func (l *Ledger) SetTokenURI(ctx context.Context, tokenID uint64, newURI string) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to change token URIs")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireAdmin(ctx, cc.Operator, ScopeOf(tokenID)); err != nil {
			return err
		}
		var token RoleToken
		err := tx.NewSelect().
			Model(&token).
			Where("token_id = ?", tokenID).
			Scan(ctx)
		if err != nil {
			if dbkit.IsNotFound(err) {
				return NewError(ErrTokenNotCreated, "role token was not created yet").WithToken(tokenID)
			}
			return dbkit.WithErr1(err, "SetTokenURI").Err()
		}

		result, err := tx.NewUpdate().
			Model((*RoleToken)(nil)).
			Set("uri = ?", newURI).
			Where("token_id = ?", tokenID).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "SetTokenURI").Err(); err != nil {
			return err
		}

		ev := newEvent(EventTokenUriChanged, cc)
		ev.TokenID = tokenID
		ev.OldURI = token.URI
		ev.NewURI = newURI
		return appendEvent(ctx, tx, ev)
	})
}

// SetApprovalForAll grants or revokes an operator's right to burn on behalf
// of the caller. Approval is a single boolean per (owner, operator) pair.
func (l *Ledger) SetApprovalForAll(ctx context.Context, operator string, approved bool) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to set approvals")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		exists, err := dbkit.Exists[OperatorApproval](ctx, tx, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("owner = ? AND operator = ?", cc.Operator, operator)
		})
		if err != nil {
			return dbkit.WithErr1(err, "SetApprovalForAll").Err()
		}

		if exists {
			result, err := tx.NewUpdate().
				Model((*OperatorApproval)(nil)).
				Set("approved = ?", approved).
				Set("updated_at = ?", time.Now()).
				Where("owner = ? AND operator = ?", cc.Operator, operator).
				Exec(ctx)
			if err := dbkit.WithErr(result, err, "SetApprovalForAll").Err(); err != nil {
				return err
			}
		} else {
			approval := &OperatorApproval{
				Owner:     cc.Operator,
				Operator:  operator,
				Approved:  approved,
				UpdatedAt: time.Now(),
			}
			result, err := tx.NewInsert().Model(approval).Exec(ctx)
			if err := dbkit.WithErr(result, err, "SetApprovalForAll").Err(); err != nil {
				return err
			}
		}

		ev := newEvent(EventApprovalForAll, cc)
		ev.From = cc.Operator
		ev.To = operator
		ev.Enabled = approved
		return appendEvent(ctx, tx, ev)
	})
}

// SafeTransferFrom always fails: role tokens are soul-bound. A caller that
// is neither the holder nor an approved operator fails the ownership check
// first, everyone else hits ErrTransferNotAllowed.
func (l *Ledger) SafeTransferFrom(ctx context.Context, from, to string, tokenID uint64, amount uint64) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required for transfers")
	}

	if cc.Operator != from {
		approved, err := isApprovedForAll(ctx, l.db, from, cc.Operator)
		if err != nil {
			return err
		}
		if !approved {
			return NewError(ErrNotOwnerNorApproved, "caller may not transfer for this holder").
				WithOperator(cc.Operator).
				WithAddress(from).
				WithToken(tokenID)
		}
	}
	return NewError(ErrTransferNotAllowed, "role tokens are bound to their holder").
		WithToken(tokenID).
		WithAddress(from)
}

// SafeBatchTransferFrom always fails for the same reason as SafeTransferFrom.
func (l *Ledger) SafeBatchTransferFrom(ctx context.Context, from, to string, tokenIDs []uint64, amounts []uint64) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required for transfers")
	}

	if cc.Operator != from {
		approved, err := isApprovedForAll(ctx, l.db, from, cc.Operator)
		if err != nil {
			return err
		}
		if !approved {
			return NewError(ErrNotOwnerNorApproved, "caller may not transfer for this holder").
				WithOperator(cc.Operator).
				WithAddress(from)
		}
	}
	if len(tokenIDs) != len(amounts) {
		return NewError(ErrLengthMismatch, "token ids and amounts must have the same length")
	}
	return NewError(ErrTransferNotAllowed, "role tokens are bound to their holder").
		WithAddress(from)
}

// mintTo mints one unit of an already created token inside an open
// transaction, after authorization has passed.
func mintTo(ctx context.Context, db dbkit.IDB, cc CallContext, to string, tokenID uint64) error {
	exists, err := tokenExists(ctx, db, tokenID)
	if err != nil {
		return err
	}
	if !exists {
		return NewError(ErrTokenNotCreated, "role token was not created yet").WithToken(tokenID)
	}
	if err := appendHolder(ctx, db, tokenID, to); err != nil {
		return err
	}
	return appendEvent(ctx, db, transferSingleEvent(cc, "", to, tokenID))
}

// tokenExists reports whether a role token was created.
func tokenExists(ctx context.Context, db dbkit.IDB, tokenID uint64) (bool, error) {
	exists, err := dbkit.Exists[RoleToken](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("token_id = ?", tokenID)
	})
	if err != nil {
		return false, dbkit.WithErr1(err, "tokenExists").Err()
	}
	return exists, nil
}

// insertToken inserts the created-token row.
func insertToken(ctx context.Context, db dbkit.IDB, tokenID uint64, uri string) error {
	token := &RoleToken{
		TokenID:   tokenID,
		URI:       uri,
		CreatedAt: time.Now(),
	}
	result, err := db.NewInsert().Model(token).Exec(ctx)
	if err := dbkit.WithErr(result, err, "insertToken").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrTokenAlreadyCreated, "role token was already created").WithToken(tokenID)
		}
		return err
	}
	return nil
}

// appendHolder appends an address to a token's holder set at the next
// 1-based index. Fails with ErrTokenAlreadyHeld when the address is already
// in the set.
func appendHolder(ctx context.Context, db dbkit.IDB, tokenID uint64, address string) error {
	count, err := dbkit.Count[TokenHolder](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("token_id = ?", tokenID)
	})
	if err != nil {
		return dbkit.WithErr1(err, "appendHolder").Err()
	}

	holder := &TokenHolder{
		TokenID:     tokenID,
		Address:     address,
		HolderIndex: int64(count) + 1,
		CreatedAt:   time.Now(),
	}
	result, err := db.NewInsert().Model(holder).Exec(ctx)
	if err := dbkit.WithErr(result, err, "appendHolder").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrTokenAlreadyHeld, "address already holds this role token").
				WithToken(tokenID).
				WithAddress(address)
		}
		return err
	}
	return nil
}

// removeHolder removes an address from a token's holder set via
// swap-and-pop: the last holder takes over the freed index so indices stay
// dense and 1-based.
func removeHolder(ctx context.Context, db dbkit.IDB, tokenID uint64, address string) error {
	var holder TokenHolder
	err := db.NewSelect().
		Model(&holder).
		Where("token_id = ? AND address = ?", tokenID, address).
		Scan(ctx)
	if err != nil {
		if dbkit.IsNotFound(err) {
			return NewError(ErrInvalidAmount, "burn amount exceeds balance").
				WithToken(tokenID).
				WithAddress(address)
		}
		return dbkit.WithErr1(err, "removeHolder").Err()
	}

	var last TokenHolder
	err = db.NewSelect().
		Model(&last).
		Where("token_id = ?", tokenID).
		Order("holder_index DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return dbkit.WithErr1(err, "removeHolder").Err()
	}

	result, err := db.NewDelete().
		Model((*TokenHolder)(nil)).
		Where("id = ?", holder.ID).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "removeHolder").Err(); err != nil {
		return err
	}

	if last.ID != holder.ID {
		result, err := db.NewUpdate().
			Model((*TokenHolder)(nil)).
			Set("holder_index = ?", holder.HolderIndex).
			Where("id = ?", last.ID).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "removeHolder").Err(); err != nil {
			return err
		}
	}
	return nil
}

// isApprovedForAll reads the (owner, operator) approval flag.
func isApprovedForAll(ctx context.Context, db dbkit.IDB, owner, operator string) (bool, error) {
	exists, err := dbkit.Exists[OperatorApproval](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("owner = ? AND operator = ? AND approved = TRUE", owner, operator)
	})
	if err != nil {
		return false, dbkit.WithErr1(err, "isApprovedForAll").Err()
	}
	return exists, nil
}
