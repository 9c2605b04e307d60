// internal/engine/audit/indexer.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"notification-engine/internal/common/logger"
	"notification-engine/internal/models"
)

// DefaultIndex receives the audit documents unless configuration picks
// another index.
const DefaultIndex = "notification-audit"

// indexTimeout bounds one index call so a slow cluster cannot hold up
// the dispatch path it trails.
const indexTimeout = 5 * time.Second

// Indexer mirrors terminal ledger outcomes into Elasticsearch so
// operators can search deliveries without querying Postgres. Indexing is
// best-effort: every failure is logged and dropped, never returned.
type Indexer struct {
	es    *elasticsearch.Client
	index string
	log   logger.Logger
}

// NewIndexer wires an indexer against an Elasticsearch client. An empty
// index name falls back to DefaultIndex.
func NewIndexer(es *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{es: es, index: index, log: log}
}

// document flattens a ledger entry for the audit index. Field names
// match the ledger columns operators already query.
type document struct {
	LogID             string     `json:"log_id"`
	TenantID          string     `json:"tenant_id"`
	Channel           string     `json:"channel"`
	EventType         string     `json:"event_type"`
	Recipient         string     `json:"recipient"`
	Subject           string     `json:"subject,omitempty"`
	Status            string     `json:"status"`
	ExternalMessageID string     `json:"external_message_id,omitempty"`
	RetryCount        int        `json:"retry_count"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	ReferenceID       string     `json:"reference_id,omitempty"`
	ReferenceType     string     `json:"reference_type,omitempty"`
	UserID            string     `json:"user_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	FailedAt          *time.Time `json:"failed_at,omitempty"`
	RecordedAt        time.Time  `json:"recorded_at"`
}

// Record indexes one terminal outcome. The entry id doubles as the
// document id, so a re-recorded entry overwrites instead of duplicating.
func (ix *Indexer) Record(ctx context.Context, entry *models.NotificationLog) {
	doc := document{
		LogID:             entry.ID,
		TenantID:          entry.TenantID,
		Channel:           string(entry.Channel),
		EventType:         entry.EventType,
		Recipient:         entry.Recipient,
		Subject:           entry.Subject,
		Status:            string(entry.Status),
		ExternalMessageID: entry.ExternalMessageID,
		RetryCount:        entry.RetryCount,
		ErrorMessage:      entry.ErrorMessage,
		ReferenceID:       entry.ReferenceID,
		ReferenceType:     entry.ReferenceType,
		UserID:            entry.UserID,
		CreatedAt:         entry.CreatedAt,
		SentAt:            entry.SentAt,
		FailedAt:          entry.FailedAt,
		RecordedAt:        time.Now().UTC(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		ix.log.Warn("audit document marshal failed", map[string]interface{}{
			"logId": entry.ID,
			"error": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	res, err := ix.es.Index(
		ix.index,
		bytes.NewReader(body),
		ix.es.Index.WithDocumentID(entry.ID),
		ix.es.Index.WithContext(ctx),
	)
	if err != nil {
		ix.log.Warn("audit index write failed", map[string]interface{}{
			"logId": entry.ID,
			"index": ix.index,
			"error": err.Error(),
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		ix.log.Warn("audit index write rejected", map[string]interface{}{
			"logId":  entry.ID,
			"index":  ix.index,
			"status": res.Status(),
		})
		return
	}

	ix.log.Debug("audit outcome recorded", map[string]interface{}{
		"logId":  entry.ID,
		"status": string(entry.Status),
	})
}
