// internal/engine/ledger/store.go
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notification-engine/internal/models"
)

const logColumns = `id, tenant_id, channel, event_type, recipient, subject, body,
	status, retry_count, max_retries, next_retry_at,
	external_message_id, error_message, reference_id, reference_type,
	user_id, created_at, sent_at, failed_at`

// Store persists the notification ledger. Entries are append-mostly: rows
// are inserted once and only their delivery state mutates afterwards.
// Nothing is ever deleted.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert writes a new ledger entry. ID, CreatedAt, Status and MaxRetries
// are filled in when the caller left them unset.
func (s *Store) Insert(ctx context.Context, entry *models.NotificationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Status == "" {
		entry.Status = models.StatusPending
	}
	if entry.MaxRetries <= 0 {
		entry.MaxRetries = models.DefaultMaxRetries
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_logs (`+logColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		entry.ID, entry.TenantID, string(entry.Channel), entry.EventType,
		entry.Recipient, entry.Subject, entry.Body,
		string(entry.Status), entry.RetryCount, entry.MaxRetries, entry.NextRetryAt,
		entry.ExternalMessageID, entry.ErrorMessage, entry.ReferenceID, entry.ReferenceType,
		entry.UserID, entry.CreatedAt, entry.SentAt, entry.FailedAt,
	)
	return err
}

// MarkSent finalizes a successful delivery. Only a pending entry can
// become sent; anything else means the row raced with another writer.
func (s *Store) MarkSent(ctx context.Context, id, externalMessageID string, sentAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notification_logs
		SET status = 'sent', sent_at = $2, external_message_id = $3, next_retry_at = NULL
		WHERE id = $1 AND status = 'pending'`,
		id, sentAt, externalMessageID,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res, id)
}

// MarkRetrying schedules the next automatic attempt after a transient
// failure.
func (s *Store) MarkRetrying(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, errorMessage string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notification_logs
		SET status = 'retrying', retry_count = $2, next_retry_at = $3, error_message = $4
		WHERE id = $1 AND status = 'pending'`,
		id, retryCount, nextRetryAt, errorMessage,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res, id)
}

// MarkFailed records the terminal failure state once retries are spent.
func (s *Store) MarkFailed(ctx context.Context, id string, retryCount int, errorMessage string, failedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notification_logs
		SET status = 'failed', retry_count = $2, error_message = $3, failed_at = $4, next_retry_at = NULL
		WHERE id = $1 AND status = 'pending'`,
		id, retryCount, errorMessage, failedAt,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res, id)
}

// ClaimRetry atomically takes a due entry back to pending so exactly one
// sweep re-dispatches it. Returns false when another sweep won the claim.
func (s *Store) ClaimRetry(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notification_logs
		SET status = 'pending', next_retry_at = NULL
		WHERE id = $1 AND status = 'retrying'`,
		id,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ListDue returns entries whose retry is due, oldest first, bounded by
// limit so one sweep never takes unbounded work.
func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.NotificationLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+logColumns+`
		FROM notification_logs
		WHERE status = 'retrying' AND next_retry_at <= $1
		ORDER BY next_retry_at ASC
		LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

// CountDue reports how many entries are currently due for retry.
func (s *Store) CountDue(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notification_logs
		WHERE status = 'retrying' AND next_retry_at <= $1`,
		now,
	).Scan(&count)
	return count, err
}

// GetByID returns one entry, or nil when the id is unknown.
func (s *Store) GetByID(ctx context.Context, id string) (*models.NotificationLog, error) {
	entry, err := scanLog(s.db.QueryRowContext(ctx, `
		SELECT `+logColumns+`
		FROM notification_logs
		WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListByReference returns the delivery history for one domain object,
// newest first. This is the primary support-tooling query for "why didn't
// this notification arrive".
func (s *Store) ListByReference(ctx context.Context, referenceType, referenceID string) ([]*models.NotificationLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+logColumns+`
		FROM notification_logs
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at DESC`,
		referenceType, referenceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

// ListByTenant returns a page of a tenant's entries, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.NotificationLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+logColumns+`
		FROM notification_logs
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

// CountByStatus aggregates entry counts per lifecycle state.
func (s *Store) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM notification_logs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[models.Status(status)] = count
	}
	return counts, rows.Err()
}

func requireOneRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("ledger entry %s is not in pending state", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLog(row rowScanner) (*models.NotificationLog, error) {
	var entry models.NotificationLog
	err := row.Scan(
		&entry.ID, &entry.TenantID, &entry.Channel, &entry.EventType,
		&entry.Recipient, &entry.Subject, &entry.Body,
		&entry.Status, &entry.RetryCount, &entry.MaxRetries, &entry.NextRetryAt,
		&entry.ExternalMessageID, &entry.ErrorMessage, &entry.ReferenceID, &entry.ReferenceType,
		&entry.UserID, &entry.CreatedAt, &entry.SentAt, &entry.FailedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func scanLogs(rows *sql.Rows) ([]*models.NotificationLog, error) {
	var entries []*models.NotificationLog
	for rows.Next() {
		entry, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
