package permkit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// MigrationService provides migration management functionality as an extension to Ledger
type MigrationService struct {
	*Ledger
}

// NewMigrationService creates a new migration service extension
func NewMigrationService(ledger *Ledger) *MigrationService {
	return &MigrationService{Ledger: ledger}
}

// Migrations returns all database migrations required for the ledger.
// Use db.Migrate(ctx, service.Migrations()) to run migrations.
func (ms *MigrationService) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "permkit-001",
			Description: "Create permission_sets table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permission_sets (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    set_id BIGINT NOT NULL UNIQUE,
                    name TEXT NOT NULL UNIQUE,
                    slot BIGINT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "permkit-002",
			Description: "Create role_tokens table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_tokens (
                    token_id BIGINT PRIMARY KEY,
                    uri TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "permkit-003",
			Description: "Create token_holders table",
			SQL: `
                CREATE TABLE IF NOT EXISTS token_holders (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    token_id BIGINT NOT NULL,
                    address TEXT NOT NULL,
                    holder_index BIGINT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (token_id, address),
                    UNIQUE (token_id, holder_index)
                );
                CREATE INDEX IF NOT EXISTS idx_token_holders_address ON token_holders (address)`,
		},
		{
			ID:          "permkit-004",
			Description: "Create operator_approvals table",
			SQL: `
                CREATE TABLE IF NOT EXISTS operator_approvals (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    owner TEXT NOT NULL,
                    operator TEXT NOT NULL,
                    approved BOOLEAN NOT NULL,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (owner, operator)
                )`,
		},
		{
			ID:          "permkit-005",
			Description: "Create overwriter tables",
			SQL: `
                CREATE TABLE IF NOT EXISTS overwriter_states (
                    key TEXT PRIMARY KEY,
                    set_id BIGINT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                );
                CREATE TABLE IF NOT EXISTS overwriter_roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    key TEXT NOT NULL,
                    base_role BIGINT NOT NULL,
                    slot BIGINT NOT NULL,
                    UNIQUE (key, base_role)
                );
                CREATE TABLE IF NOT EXISTS overwriter_tokens (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    key TEXT NOT NULL,
                    base_role BIGINT NOT NULL,
                    token_id BIGINT NOT NULL,
                    slot BIGINT NOT NULL,
                    UNIQUE (key, base_role, token_id)
                )`,
		},
		{
			ID:          "permkit-006",
			Description: "Create counters table and seed the permission-set counter",
			SQL: `
                CREATE TABLE IF NOT EXISTS counters (
                    name TEXT PRIMARY KEY,
                    value BIGINT NOT NULL
                );
                INSERT INTO counters (name, value) VALUES ('permission_sets', 1)
                ON CONFLICT (name) DO NOTHING`,
		},
		{
			ID:          "permkit-007",
			Description: "Create ledger_events table",
			SQL: `
                CREATE TABLE IF NOT EXISTS ledger_events (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    seq BIGSERIAL UNIQUE,
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    kind TEXT NOT NULL,
                    operator TEXT NOT NULL,
                    from_address TEXT,
                    to_address TEXT,
                    token_id BIGINT,
                    amount BIGINT,
                    set_id BIGINT,
                    set_name TEXT,
                    old_uri TEXT,
                    new_uri TEXT,
                    old_set_id BIGINT,
                    new_set_id BIGINT,
                    overwriter_key TEXT,
                    base_role BIGINT,
                    enabled BOOLEAN,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT
                );
                CREATE INDEX IF NOT EXISTS idx_ledger_events_kind ON ledger_events (kind);
                CREATE INDEX IF NOT EXISTS idx_ledger_events_token ON ledger_events (token_id)`,
		},
	}
}

// Migrate applies all pending ledger migrations. The ledger must sit on a
// *dbkit.DBKit connection, not an open transaction.
func (l *Ledger) Migrate(ctx context.Context) error {
	db, ok := l.db.(*dbkit.DBKit)
	if !ok {
		return NewError(ErrDatabaseError, "migrations require a dbkit.DBKit connection")
	}
	_, err := db.Migrate(ctx, NewMigrationService(l).Migrations())
	return err
}
