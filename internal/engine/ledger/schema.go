// internal/engine/ledger/schema.go
package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS channel_settings (
		tenant_id     TEXT NOT NULL,
		channel       TEXT NOT NULL,
		is_enabled    BOOLEAN NOT NULL DEFAULT FALSE,
		provider_name TEXT NOT NULL DEFAULT '',
		config        JSONB NOT NULL DEFAULT '{}',
		PRIMARY KEY (tenant_id, channel)
	)`,
	`CREATE TABLE IF NOT EXISTS notification_templates (
		id         TEXT PRIMARY KEY,
		tenant_id  TEXT NOT NULL DEFAULT '',
		code       TEXT NOT NULL,
		channel    TEXT NOT NULL,
		language   TEXT NOT NULL DEFAULT 'en',
		subject    TEXT,
		body       TEXT NOT NULL,
		is_active  BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (tenant_id, code, channel, language)
	)`,
	`CREATE TABLE IF NOT EXISTS notification_logs (
		id                  TEXT PRIMARY KEY,
		tenant_id           TEXT NOT NULL,
		channel             TEXT NOT NULL,
		event_type          TEXT NOT NULL,
		recipient           TEXT NOT NULL,
		subject             TEXT NOT NULL DEFAULT '',
		body                TEXT NOT NULL,
		status              TEXT NOT NULL DEFAULT 'pending',
		retry_count         INTEGER NOT NULL DEFAULT 0,
		max_retries         INTEGER NOT NULL DEFAULT 3,
		next_retry_at       TIMESTAMPTZ,
		external_message_id TEXT NOT NULL DEFAULT '',
		error_message       TEXT NOT NULL DEFAULT '',
		reference_id        TEXT NOT NULL DEFAULT '',
		reference_type      TEXT NOT NULL DEFAULT '',
		user_id             TEXT NOT NULL DEFAULT '',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		sent_at             TIMESTAMPTZ,
		failed_at           TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notification_logs_due
		ON notification_logs (next_retry_at) WHERE status = 'retrying'`,
	`CREATE INDEX IF NOT EXISTS idx_notification_logs_reference
		ON notification_logs (reference_type, reference_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notification_logs_tenant
		ON notification_logs (tenant_id, created_at)`,
}

// EnsureSchema creates the notification tables and indexes when they do
// not exist yet. Deployments with managed migrations can skip this; it
// never alters existing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
