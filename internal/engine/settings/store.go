// internal/engine/settings/store.go
package settings

import (
	"context"
	"database/sql"

	"notification-engine/internal/models"
)

// Store reads per-tenant channel configuration and tenant metadata.
// Settings are maintained by out-of-band admin tooling, so the dispatch
// path only ever reads.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetChannelSettings returns the configuration row for (tenant, channel),
// or nil when the channel was never configured.
func (s *Store) GetChannelSettings(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
	var cs models.ChannelSettings

	err := s.db.QueryRowContext(ctx, `
		SELECT tenant_id, channel, is_enabled, provider_name, config
		FROM channel_settings
		WHERE tenant_id = $1 AND channel = $2`, tenantID, string(channel)).Scan(
		&cs.TenantID, &cs.Channel, &cs.IsEnabled, &cs.ProviderName, &cs.Config,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

// GetTenantName returns the display name for a tenant, or "" when the
// tenant is unknown.
func (s *Store) GetTenantName(ctx context.Context, tenantID string) (string, error) {
	var name string

	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM tenants WHERE id = $1`, tenantID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
