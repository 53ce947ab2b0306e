package permkit

import (
	"time"

	"github.com/uptrace/bun"
)

// EventKind names an externally observable ledger event.
type EventKind string

const (
	EventTransferSingle         EventKind = "TransferSingle"
	EventApprovalForAll         EventKind = "ApprovalForAll"
	EventPermissionSetAdded     EventKind = "PermissionSetAdded"
	EventPermissionSetRemoved   EventKind = "PermissionSetRemoved"
	EventTokenUriChanged        EventKind = "TokenUriChanged"
	EventPermissionSetIdChanged EventKind = "PermissionSetIdChanged"
	EventSetRoleIdOverwritten   EventKind = "SetRoleIdOverwritten"
	EventCustomRoleTokenAdded   EventKind = "CustomRoleTokenAdded"
	EventCustomRoleTokenRemoved EventKind = "CustomRoleTokenRemoved"
)

// Event is one entry of the append-only event log: the sole externally
// observable audit trail of the ledger. Events are written in the same
// transaction as the mutation that caused them, after the state change is
// final, and Seq orders them globally.
type Event struct {
	bun.BaseModel `bun:"table:ledger_events,alias:ev"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Seq       int64     `bun:"seq,notnull,autoincrement"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	Kind     EventKind `bun:"kind,notnull"`
	Operator string    `bun:"operator,notnull"`

	// Transfer-like events: (operator, from, to, token_id, amount).
	From    string `bun:"from_address"`
	To      string `bun:"to_address"`
	TokenID uint64 `bun:"token_id"`
	Amount  uint64 `bun:"amount"`

	// Registry events.
	SetID   uint64 `bun:"set_id"`
	SetName string `bun:"set_name"`

	// Uri and permission-set-id changes.
	OldURI   string `bun:"old_uri"`
	NewURI   string `bun:"new_uri"`
	OldSetID uint64 `bun:"old_set_id"`
	NewSetID uint64 `bun:"new_set_id"`

	// Overwriter events.
	OverwriterKey string `bun:"overwriter_key"`
	BaseRole      uint64 `bun:"base_role"`
	Enabled       bool   `bun:"enabled"`

	// Request metadata for correlation.
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`
}

// newEvent stamps an event with the caller metadata from a CallContext.
func newEvent(kind EventKind, cc CallContext) *Event {
	return &Event{
		Kind:      kind,
		Operator:  cc.Operator,
		IPAddress: cc.IPAddress,
		UserAgent: cc.UserAgent,
		RequestID: cc.RequestID,
		Timestamp: time.Now(),
	}
}

// transferSingleEvent builds a TransferSingle event. Mints use the empty
// string as from, burns as to.
func transferSingleEvent(cc CallContext, from, to string, tokenID uint64) *Event {
	ev := newEvent(EventTransferSingle, cc)
	ev.From = from
	ev.To = to
	ev.TokenID = tokenID
	ev.Amount = 1
	return ev
}
