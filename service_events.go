package permkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// appendEvent writes an event row inside the mutation's transaction. Called
// after the state change it describes, so an aborted mutation never leaves
// an event behind.
func appendEvent(ctx context.Context, db dbkit.IDB, ev *Event) error {
	result, err := db.NewInsert().Model(ev).Exec(ctx)
	return dbkit.WithErr(result, err, "appendEvent").Err()
}

// Events returns event log entries matching the filter, oldest first.
//
// Example:
//
//	filter := permkit.NewEventFilter().
//	    WithKind(permkit.EventTransferSingle).
//	    WithAddress(alice).
//	    WithLimit(50)
//	events, err := ledger.Events(ctx, filter)
func (l *Ledger) Events(ctx context.Context, filter EventFilter) ([]Event, error) {
	var events []Event
	q := l.db.NewSelect().Model(&events)
	q = applyEventFilter(q, filter)
	q = q.Order("seq ASC")

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, dbkit.WithErr1(err, "Events").Err()
	}
	return events, nil
}

// CountEvents returns the number of event log entries matching the filter,
// ignoring pagination.
func (l *Ledger) CountEvents(ctx context.Context, filter EventFilter) (int, error) {
	count, err := dbkit.Count[Event](ctx, l.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return applyEventFilter(q, filter)
	})
	if err != nil {
		return 0, dbkit.WithErr1(err, "CountEvents").Err()
	}
	return count, nil
}

func applyEventFilter(q *bun.SelectQuery, filter EventFilter) *bun.SelectQuery {
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Operator != "" {
		q = q.Where("operator = ?", filter.Operator)
	}
	if filter.HasTokenID {
		q = q.Where("token_id = ?", filter.TokenID)
	}
	if filter.Address != "" {
		q = q.Where("(from_address = ? OR to_address = ?)", filter.Address, filter.Address)
	}
	if filter.OverwriterKey != "" {
		q = q.Where("overwriter_key = ?", filter.OverwriterKey)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}
	return q
}
