// internal/engine/template/store.go
package template

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"notification-engine/internal/models"
)

// Store reads and writes notification templates in Postgres.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the active template for the exact (tenant, code, channel,
// language) tuple, or nil when none exists.
func (s *Store) Get(ctx context.Context, tenantID, code string, channel models.Channel, language string) (*models.NotificationTemplate, error) {
	var tmpl models.NotificationTemplate
	var subject sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, code, channel, language, subject, body, is_active, created_at, updated_at
		FROM notification_templates
		WHERE tenant_id = $1 AND code = $2 AND channel = $3 AND language = $4 AND is_active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1`, tenantID, code, string(channel), language).Scan(
		&tmpl.ID, &tmpl.TenantID, &tmpl.Code, &tmpl.Channel, &tmpl.Language,
		&subject, &tmpl.Body, &tmpl.IsActive, &tmpl.CreatedAt, &tmpl.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tmpl.Subject = subject.String
	return &tmpl, nil
}

// Upsert inserts or replaces the template for its (tenant, code, channel,
// language) tuple. Used by the template loader, never by the dispatch path.
func (s *Store) Upsert(ctx context.Context, tmpl *models.NotificationTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_templates (id, tenant_id, code, channel, language, subject, body, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (tenant_id, code, channel, language)
		DO UPDATE SET subject = EXCLUDED.subject, body = EXCLUDED.body, is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`,
		tmpl.ID, tmpl.TenantID, tmpl.Code, string(tmpl.Channel), tmpl.Language,
		tmpl.Subject, tmpl.Body, tmpl.IsActive, now,
	)
	return err
}

// List returns every template owned by a tenant. Pass the global sentinel
// to list platform defaults.
func (s *Store) List(ctx context.Context, tenantID string) ([]*models.NotificationTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, code, channel, language, subject, body, is_active, created_at, updated_at
		FROM notification_templates
		WHERE tenant_id = $1
		ORDER BY code, channel, language`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*models.NotificationTemplate
	for rows.Next() {
		var tmpl models.NotificationTemplate
		var subject sql.NullString
		if err := rows.Scan(
			&tmpl.ID, &tmpl.TenantID, &tmpl.Code, &tmpl.Channel, &tmpl.Language,
			&subject, &tmpl.Body, &tmpl.IsActive, &tmpl.CreatedAt, &tmpl.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tmpl.Subject = subject.String
		templates = append(templates, &tmpl)
	}
	return templates, rows.Err()
}
