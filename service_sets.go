package permkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// counterPermissionSets names the auto-ID counter for RegisterPermissionSet.
const counterPermissionSets = "permission_sets"

// AddPermissionSet registers a permission set under an explicit ID. The
// caller needs the global Admin or Deployer role. IDs and names are unique
// among currently registered sets; duplicates fail with
// ErrPermissionSetExists / ErrPermissionSetNameTaken.
//
// Example:
//
//	err := ledger.AddPermissionSet(ctx, 7, "treasury")
func (l *Ledger) AddPermissionSet(ctx context.Context, setID uint64, name string) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to manage permission sets")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireAdminOrDeployer(ctx, cc.Operator); err != nil {
			return err
		}
		return addPermissionSet(ctx, tx, cc, setID, name)
	})
}

// RegisterPermissionSet registers a permission set under the next
// auto-assigned ID and returns it. The internal counter starts at 1 and
// only ever moves forward; removed sets never free their IDs for reuse.
func (l *Ledger) RegisterPermissionSet(ctx context.Context, name string) (uint64, error) {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return 0, NewError(ErrNoOperator, "operator identity required to manage permission sets")
	}

	var setID uint64
	err := l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireAdminOrDeployer(ctx, cc.Operator); err != nil {
			return err
		}

		err := tx.NewRaw(
			"UPDATE counters SET value = value + 1 WHERE name = ? RETURNING value - 1",
			counterPermissionSets,
		).Scan(ctx, &setID)
		if err != nil {
			return dbkit.WithErr1(err, "RegisterPermissionSet").Err()
		}

		return addPermissionSet(ctx, tx, cc, setID, name)
	})
	if err != nil {
		return 0, err
	}
	return setID, nil
}

// RemovePermissionSet removes a registered permission set. The caller needs
// the global Admin or Deployer role. Fails with ErrPermissionSetNotFound
// when the ID was never added. Removal does not touch role tokens already
// scoped into the set.
func (l *Ledger) RemovePermissionSet(ctx context.Context, setID uint64) error {
	cc := GetCallContext(ctx)
	if cc.Operator == "" {
		return NewError(ErrNoOperator, "operator identity required to manage permission sets")
	}

	return l.transaction(ctx, func(ctx context.Context, tx dbkit.IDB) error {
		if err := authorizerFor(tx).RequireAdminOrDeployer(ctx, cc.Operator); err != nil {
			return err
		}

		var set PermissionSet
		err := tx.NewSelect().
			Model(&set).
			Where("set_id = ?", setID).
			Scan(ctx)
		if err != nil {
			if dbkit.IsNotFound(err) {
				return NewError(ErrPermissionSetNotFound, "permission set was never added").WithSet(setID)
			}
			return dbkit.WithErr1(err, "RemovePermissionSet").Err()
		}

		var last PermissionSet
		err = tx.NewSelect().
			Model(&last).
			Order("slot DESC").
			Limit(1).
			Scan(ctx)
		if err != nil {
			return dbkit.WithErr1(err, "RemovePermissionSet").Err()
		}

		result, err := tx.NewDelete().
			Model((*PermissionSet)(nil)).
			Where("id = ?", set.ID).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "RemovePermissionSet").Err(); err != nil {
			return err
		}

		if last.ID != set.ID {
			result, err := tx.NewUpdate().
				Model((*PermissionSet)(nil)).
				Set("slot = ?", set.Slot).
				Where("id = ?", last.ID).
				Exec(ctx)
			if err := dbkit.WithErr(result, err, "RemovePermissionSet").Err(); err != nil {
				return err
			}
		}

		ev := newEvent(EventPermissionSetRemoved, cc)
		ev.SetID = setID
		ev.SetName = set.Name
		return appendEvent(ctx, tx, ev)
	})
}

// PermissionSetName returns the name of a registered permission set. Fails
// with ErrKeyNotFound for unknown IDs.
func (l *Ledger) PermissionSetName(ctx context.Context, setID uint64) (string, error) {
	var set PermissionSet
	err := l.db.NewSelect().
		Model(&set).
		Where("set_id = ?", setID).
		Scan(ctx)
	if err != nil {
		if dbkit.IsNotFound(err) {
			return "", NewError(ErrKeyNotFound, "permission set not registered").WithSet(setID)
		}
		return "", dbkit.WithErr1(err, "PermissionSetName").Err()
	}
	return set.Name, nil
}

// PermissionSetID returns the ID registered under a name (exact,
// case-sensitive match). Fails with ErrKeyNotFound for unknown names.
func (l *Ledger) PermissionSetID(ctx context.Context, name string) (uint64, error) {
	var set PermissionSet
	err := l.db.NewSelect().
		Model(&set).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if dbkit.IsNotFound(err) {
			return 0, NewError(ErrKeyNotFound, "permission set not registered").WithName(name)
		}
		return 0, dbkit.WithErr1(err, "PermissionSetID").Err()
	}
	return set.SetID, nil
}

// PermissionSetIDs returns the IDs of all registered permission sets in
// registry-internal order. Like holder sets, removal fills the freed slot
// with the last entry, so the order is not insertion order after removals.
func (l *Ledger) PermissionSetIDs(ctx context.Context) ([]uint64, error) {
	sets, err := l.PermissionSets(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, len(sets))
	for i, s := range sets {
		ids[i] = s.SetID
	}
	return ids, nil
}

// PermissionSets returns all registered permission sets in registry-internal
// order.
func (l *Ledger) PermissionSets(ctx context.Context) ([]PermissionSet, error) {
	var sets []PermissionSet
	err := l.db.NewSelect().
		Model(&sets).
		Order("slot ASC").
		Scan(ctx)
	if err != nil {
		return nil, dbkit.WithErr1(err, "PermissionSets").Err()
	}
	return sets, nil
}

// PermissionSetCount returns the number of registered permission sets.
func (l *Ledger) PermissionSetCount(ctx context.Context) (uint64, error) {
	count, err := dbkit.Count[PermissionSet](ctx, l.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
	if err != nil {
		return 0, dbkit.WithErr1(err, "PermissionSetCount").Err()
	}
	return uint64(count), nil
}

// NextPermissionSetID returns the ID the next RegisterPermissionSet call
// would assign.
func (l *Ledger) NextPermissionSetID(ctx context.Context) (uint64, error) {
	var counter Counter
	err := l.db.NewSelect().
		Model(&counter).
		Where("name = ?", counterPermissionSets).
		Scan(ctx)
	if err != nil {
		return 0, dbkit.WithErr1(err, "NextPermissionSetID").Err()
	}
	return counter.Value, nil
}

// addPermissionSet inserts the registry row and its event inside an open
// transaction, after authorization has passed.
func addPermissionSet(ctx context.Context, db dbkit.IDB, cc CallContext, setID uint64, name string) error {
	exists, err := dbkit.Exists[PermissionSet](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("set_id = ?", setID)
	})
	if err != nil {
		return dbkit.WithErr1(err, "addPermissionSet").Err()
	}
	if exists {
		return NewError(ErrPermissionSetExists, "permission set id already registered").WithSet(setID)
	}

	nameTaken, err := dbkit.Exists[PermissionSet](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("name = ?", name)
	})
	if err != nil {
		return dbkit.WithErr1(err, "addPermissionSet").Err()
	}
	if nameTaken {
		return NewError(ErrPermissionSetNameTaken, "permission set name already registered").
			WithSet(setID).
			WithName(name)
	}

	count, err := dbkit.Count[PermissionSet](ctx, db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
	if err != nil {
		return dbkit.WithErr1(err, "addPermissionSet").Err()
	}

	set := &PermissionSet{
		SetID:     setID,
		Name:      name,
		Slot:      int64(count) + 1,
		CreatedAt: time.Now(),
	}
	result, err := db.NewInsert().Model(set).Exec(ctx)
	if err := dbkit.WithErr(result, err, "addPermissionSet").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return NewError(ErrPermissionSetExists, "permission set id already registered").WithSet(setID)
		}
		return err
	}

	ev := newEvent(EventPermissionSetAdded, cc)
	ev.SetID = setID
	ev.SetName = name
	return appendEvent(ctx, db, ev)
}
