package permkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// Overwriter redirects well-known base roles into the currently active
// permission set. Code that queries a global role through an overwriter
// transparently receives the scoped answer for every role with overwriting
// enabled, so a whole subsystem can be re-pointed at another permission set
// by a single SetPermissionSetID call.
//
// Overwriters are keyed: several independent instances can share one ledger,
// each with its own active set and overwritten roles. State lives in the
// ledger's database and survives restarts.
//
// Example:
//
//	ov := ledger.Overwriter("token-sale")
//	if err := ov.Init(ctx, salesSetID); err != nil { ... }
//	_ = ov.SetRoleIDOverwrite(ctx, permkit.RoleWhitelistAdmin, true)
//	ok, _ := ov.HasRole(ctx, permkit.RoleIsWhitelisted, buyer)
type Overwriter struct {
	ledger *Ledger
	key    string
}

// Overwriter returns the overwriter instance stored under key.
func (l *Ledger) Overwriter(key string) *Overwriter {
	return &Overwriter{ledger: l, key: key}
}

// NewOverwriter creates an overwriter over a ledger under the given key.
func NewOverwriter(ledger *Ledger, key string) *Overwriter {
	return ledger.Overwriter(key)
}

// Key returns the overwriter's instance key.
func (o *Overwriter) Key() string {
	return o.key
}

// Init stores the overwriter's initial active permission-set ID. Fails with
// ErrPermissionSetExists when the instance was already initialized.
func (o *Overwriter) Init(ctx context.Context, setID uint64) error {
	return o.ledger.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		state := &OverwriterState{
			Key:       o.key,
			SetID:     setID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		result, err := tx.NewInsert().Model(state).Exec(ctx)
		if err := dbkit.WithErr(result, err, "Init").Err(); err != nil {
			if dbkit.IsDuplicate(err) {
				return NewError(ErrPermissionSetExists, "overwriter already initialized").
					WithName(o.key)
			}
			return err
		}
		return nil
	})
}

// PermissionSetID returns the currently active permission-set ID.
func (o *Overwriter) PermissionSetID(ctx context.Context) (uint64, error) {
	state, err := o.loadState(ctx, o.ledger.db)
	if err != nil {
		return 0, err
	}
	return state.SetID, nil
}

// SetPermissionSetID switches the active permission set and reconciles every
// overwritten role: for each role, in the order overwriting was enabled, the
// mapping to the old scope is removed and a mapping to the new scope added,
// each with its own event. Requires the global Admin role. Fails with
// ErrPermissionSetUnchanged when newID is already active.
func (o *Overwriter) SetPermissionSetID(ctx context.Context, newID uint64) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to change permission sets")
	}

	return o.ledger.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireAdmin(ctx, cc.Operator, 0); err != nil {
			return err
		}

		state, err := o.loadState(ctx, tx)
		if err != nil {
			return err
		}
		if state.SetID == newID {
			return NewError(ErrPermissionSetUnchanged, "permission set id is already active").
				WithSet(newID).
				WithName(o.key)
		}

		roles, err := o.enabledRoles(ctx, tx)
		if err != nil {
			return err
		}

		for _, base := range roles {
			oldScoped := mustScopedRole(state.SetID, base)
			result, err := tx.NewDelete().
				Model((*OverwriterToken)(nil)).
				Where("key = ? AND base_role = ? AND token_id = ?", o.key, base, oldScoped).
				Exec(ctx)
			if err := dbkit.WithErr(result, err, "SetPermissionSetID").Err(); err != nil {
				return err
			}

			ev := newEvent(EventCustomRoleTokenRemoved, cc)
			ev.OverwriterKey = o.key
			ev.BaseRole = base
			ev.TokenID = oldScoped
			if err := appendEvent(ctx, tx, ev); err != nil {
				return err
			}
		}

		result, err := tx.NewUpdate().
			Model((*OverwriterState)(nil)).
			Set("set_id = ?", newID).
			Set("updated_at = ?", time.Now()).
			Where("key = ?", o.key).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "SetPermissionSetID").Err(); err != nil {
			return err
		}

		for _, base := range roles {
			newScoped, err := ScopedRole(newID, base)
			if err != nil {
				return err
			}
			if err := o.appendCustomToken(ctx, tx, base, newScoped); err != nil {
				return err
			}

			ev := newEvent(EventCustomRoleTokenAdded, cc)
			ev.OverwriterKey = o.key
			ev.BaseRole = base
			ev.TokenID = newScoped
			if err := appendEvent(ctx, tx, ev); err != nil {
				return err
			}
		}

		ev := newEvent(EventPermissionSetIdChanged, cc)
		ev.OverwriterKey = o.key
		ev.OldSetID = state.SetID
		ev.NewSetID = newID
		return appendEvent(ctx, tx, ev)
	})
}

// SetRoleIDOverwrite enables or disables overwriting for a base role.
// Toggling WhitelistAdmin or BlacklistAdmin cascades to the matching status
// role (IsWhitelisted / IsBlacklisted), each toggle with its own event:
// delegating list administration into a set carries the status role along.
// Requires the global Admin role.
func (o *Overwriter) SetRoleIDOverwrite(ctx context.Context, baseRole uint64, enabled bool) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to change role overwrites")
	}
	if baseRole == RoleNone || baseRole >= roleScopeFactor {
		return NewError(ErrInvalidRole, "overwrites apply to base roles only").WithToken(baseRole)
	}

	return o.ledger.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireAdmin(ctx, cc.Operator, 0); err != nil {
			return err
		}
		if _, err := o.loadState(ctx, tx); err != nil {
			return err
		}

		if err := o.toggleRole(ctx, tx, cc, baseRole, enabled); err != nil {
			return err
		}
		for _, derived := range DerivedRoles(baseRole) {
			if err := o.toggleRole(ctx, tx, cc, derived, enabled); err != nil {
				return err
			}
		}
		return nil
	})
}

// IsRoleIDOverwritten reports whether overwriting is enabled for a base role.
func (o *Overwriter) IsRoleIDOverwritten(ctx context.Context, baseRole uint64) (bool, error) {
	exists, err := dbkit.Exists[OverwriterRole](ctx, o.ledger.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("key = ? AND base_role = ?", o.key, baseRole)
	})
	if err != nil {
		return false, dbkit.WithErr1(err, "IsRoleIDOverwritten").Err()
	}
	return exists, nil
}

// TransformedRoleID composes a base role with a permission-set ID,
// regardless of whether overwriting is enabled for it.
func TransformedRoleID(setID, baseRole uint64) uint64 {
	return mustScopedRole(setID, baseRole)
}

// HasRole answers the ledger's HasRole with the redirect applied: a base
// role with overwriting enabled is checked at the active permission set,
// every other role ID is checked as given.
func (o *Overwriter) HasRole(ctx context.Context, roleID uint64, address string) (bool, error) {
	overwritten, err := o.IsRoleIDOverwritten(ctx, roleID)
	if err != nil {
		return false, err
	}
	if overwritten {
		state, err := o.loadState(ctx, o.ledger.db)
		if err != nil {
			return false, err
		}
		scoped, err := ScopedRole(state.SetID, roleID)
		if err != nil {
			return false, err
		}
		return o.ledger.HasRole(ctx, scoped, address)
	}
	return o.ledger.HasRole(ctx, roleID, address)
}

// CustomRoleTokenCount returns the number of scoped token IDs currently
// associated with a base role through overwrite reconciliation.
func (o *Overwriter) CustomRoleTokenCount(ctx context.Context, baseRole uint64) (uint64, error) {
	count, err := dbkit.Count[OverwriterToken](ctx, o.ledger.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("key = ? AND base_role = ?", o.key, baseRole)
	})
	if err != nil {
		return 0, dbkit.WithErr1(err, "CustomRoleTokenCount").Err()
	}
	return uint64(count), nil
}

// CustomRoleTokenAt returns the scoped token ID at a 0-based index into the
// base role's association list. Fails with ErrIndexOutOfRange past the end.
func (o *Overwriter) CustomRoleTokenAt(ctx context.Context, baseRole uint64, index uint64) (uint64, error) {
	tokens, err := o.CustomRoleTokens(ctx, baseRole)
	if err != nil {
		return 0, err
	}
	if index >= uint64(len(tokens)) {
		return 0, NewError(ErrIndexOutOfRange, "custom role token index past the end").
			WithToken(baseRole).
			WithName(o.key)
	}
	return tokens[index], nil
}

// CustomRoleTokens returns all scoped token IDs associated with a base role,
// in association order.
func (o *Overwriter) CustomRoleTokens(ctx context.Context, baseRole uint64) ([]uint64, error) {
	var rows []OverwriterToken
	err := o.ledger.db.NewSelect().
		Model(&rows).
		Where("key = ? AND base_role = ?", o.key, baseRole).
		Order("slot ASC").
		Scan(ctx)
	if err != nil {
		return nil, dbkit.WithErr1(err, "CustomRoleTokens").Err()
	}

	tokens := make([]uint64, len(rows))
	for i, r := range rows {
		tokens[i] = r.TokenID
	}
	return tokens, nil
}

// loadState reads the overwriter's state row. A missing row means the
// instance was never initialized.
func (o *Overwriter) loadState(ctx context.Context, db dbkit.IDB) (*OverwriterState, error) {
	var state OverwriterState
	err := db.NewSelect().
		Model(&state).
		Where("key = ?", o.key).
		Scan(ctx)
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrKeyNotFound, "overwriter not initialized").WithName(o.key)
		}
		return nil, dbkit.WithErr1(err, "loadState").Err()
	}
	return &state, nil
}

// enabledRoles returns the overwrite-enabled base roles in the order
// overwriting was enabled. Cascaded status roles got their slot right after
// their admin role, so reconciliation order follows automatically.
func (o *Overwriter) enabledRoles(ctx context.Context, db dbkit.IDB) ([]uint64, error) {
	var rows []OverwriterRole
	err := db.NewSelect().
		Model(&rows).
		Where("key = ?", o.key).
		Order("slot ASC").
		Scan(ctx)
	if err != nil {
		return nil, dbkit.WithErr1(err, "enabledRoles").Err()
	}

	roles := make([]uint64, len(rows))
	for i, r := range rows {
		roles[i] = r.BaseRole
	}
	return roles, nil
}

// toggleRole flips one base role's overwrite flag and records the event.
// Enabling an already enabled role (or disabling a disabled one) only emits
// the event.
func (o *Overwriter) toggleRole(ctx context.Context, db dbkit.IDB, cc CallContext, baseRole uint64, enabled bool) error {
	if enabled {
		slot, err := o.nextRoleSlot(ctx, db)
		if err != nil {
			return err
		}
		role := &OverwriterRole{
			Key:      o.key,
			BaseRole: baseRole,
			Slot:     slot,
		}
		result, err := db.NewInsert().
			Model(role).
			On("CONFLICT (key, base_role) DO NOTHING").
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "toggleRole").Err(); err != nil {
			return err
		}
	} else {
		result, err := db.NewDelete().
			Model((*OverwriterRole)(nil)).
			Where("key = ? AND base_role = ?", o.key, baseRole).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "toggleRole").Err(); err != nil {
			return err
		}
	}

	ev := newEvent(EventSetRoleIdOverwritten, cc)
	ev.OverwriterKey = o.key
	ev.BaseRole = baseRole
	ev.Enabled = enabled
	return appendEvent(ctx, db, ev)
}

// appendCustomToken associates a scoped token ID with a base role at the
// end of its association list.
func (o *Overwriter) appendCustomToken(ctx context.Context, db dbkit.IDB, baseRole, tokenID uint64) error {
	var last OverwriterToken
	slot := int64(1)
	err := db.NewSelect().
		Model(&last).
		Where("key = ? AND base_role = ?", o.key, baseRole).
		Order("slot DESC").
		Limit(1).
		Scan(ctx)
	if err != nil && !dbkit.IsNotFound(err) {
		return dbkit.WithErr1(err, "appendCustomToken").Err()
	}
	if err == nil {
		slot = last.Slot + 1
	}

	token := &OverwriterToken{
		Key:      o.key,
		BaseRole: baseRole,
		TokenID:  tokenID,
		Slot:     slot,
	}
	result, err := db.NewInsert().
		Model(token).
		On("CONFLICT (key, base_role, token_id) DO NOTHING").
		Exec(ctx)
	return dbkit.WithErr(result, err, "appendCustomToken").Err()
}

// nextRoleSlot returns a slot past every slot ever used for this instance,
// so insertion order survives removals.
func (o *Overwriter) nextRoleSlot(ctx context.Context, db dbkit.IDB) (int64, error) {
	var last OverwriterRole
	err := db.NewSelect().
		Model(&last).
		Where("key = ?", o.key).
		Order("slot DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if dbkit.IsNotFound(err) {
			return 1, nil
		}
		return 0, dbkit.WithErr1(err, "nextRoleSlot").Err()
	}
	return last.Slot + 1, nil
}
