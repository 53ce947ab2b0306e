package permkit

import "time"

// EventFilter provides options for filtering event log queries.
type EventFilter struct {
	// Filter by event kind
	Kind EventKind

	// Filter by the caller that emitted the event
	Operator string

	// Filter by role token
	TokenID uint64
	// HasTokenID must be set for TokenID filtering (token 0 is a valid filter value)
	HasTokenID bool

	// Filter by either side of a transfer-like event
	Address string

	// Filter by overwriter instance
	OverwriterKey string

	// Filter by time range
	Since time.Time
	Until time.Time

	// Pagination
	Limit  int
	Offset int
}

// NewEventFilter creates a new EventFilter with default values.
func NewEventFilter() EventFilter {
	return EventFilter{
		Limit: 100,
	}
}

// WithKind sets the event kind filter.
func (f EventFilter) WithKind(kind EventKind) EventFilter {
	f.Kind = kind
	return f
}

// WithOperator sets the operator filter.
func (f EventFilter) WithOperator(operator string) EventFilter {
	f.Operator = operator
	return f
}

// WithToken sets the role token filter.
func (f EventFilter) WithToken(tokenID uint64) EventFilter {
	f.TokenID = tokenID
	f.HasTokenID = true
	return f
}

// WithAddress filters for events touching an address on either side.
func (f EventFilter) WithAddress(address string) EventFilter {
	f.Address = address
	return f
}

// WithOverwriter sets the overwriter instance filter.
func (f EventFilter) WithOverwriter(key string) EventFilter {
	f.OverwriterKey = key
	return f
}

// WithTimeRange sets the time range filter.
func (f EventFilter) WithTimeRange(since, until time.Time) EventFilter {
	f.Since = since
	f.Until = until
	return f
}

// WithSince sets the start time filter.
func (f EventFilter) WithSince(since time.Time) EventFilter {
	f.Since = since
	return f
}

// WithUntil sets the end time filter.
func (f EventFilter) WithUntil(until time.Time) EventFilter {
	f.Until = until
	return f
}

// WithLimit sets the limit for results.
func (f EventFilter) WithLimit(limit int) EventFilter {
	f.Limit = limit
	return f
}

// WithOffset sets the offset for pagination.
func (f EventFilter) WithOffset(offset int) EventFilter {
	f.Offset = offset
	return f
}

// WithPagination sets both limit and offset.
func (f EventFilter) WithPagination(limit, offset int) EventFilter {
	f.Limit = limit
	f.Offset = offset
	return f
}
