// internal/engine/scheduler/scheduler.go

// Package scheduler sweeps the ledger for entries due another delivery
// attempt and pushes them back through the dispatch engine's resend path.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"notification-engine/internal/common/config"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/common/metrics"
	"notification-engine/internal/engine/dispatch"
	"notification-engine/internal/models"
)

// LedgerSweeper is the slice of the ledger store the scheduler uses.
// Interface for mocking.
type LedgerSweeper interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.NotificationLog, error)
	CountDue(ctx context.Context, now time.Time) (int, error)
	ClaimRetry(ctx context.Context, id string) (bool, error)
}

// SettingsReader re-checks channel settings before an entry is claimed.
// Interface for mocking.
type SettingsReader interface {
	GetChannelSettings(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error)
}

// Resender is the dispatch engine's re-send surface. Interface for
// mocking.
type Resender interface {
	Resend(ctx context.Context, entry *models.NotificationLog, st *models.ChannelSettings) dispatch.Result
}

// Scheduler owns the periodic retry sweep. One instance runs per daemon;
// overlapping instances stay safe because every entry is claimed with an
// atomic conditional update before it is re-sent.
type Scheduler struct {
	cfg      config.SchedulerConfig
	entries  LedgerSweeper
	settings SettingsReader
	engine   Resender
	log      logger.Logger
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

// New wires a scheduler. Start must be called before it does anything.
func New(cfg config.SchedulerConfig, entries LedgerSweeper, settings SettingsReader, engine Resender, log logger.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		entries:  entries,
		settings: settings,
		engine:   engine,
		log:      log,
		now:      time.Now,
	}
}

// Start launches the sweep goroutine.
func (s *Scheduler) Start() {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run()
	s.log.Info("retry scheduler started", map[string]interface{}{
		"interval":  s.interval().String(),
		"batchSize": s.batchSize(),
	})
}

// Stop ends the sweep loop and blocks until any in-flight sweep
// finishes.
func (s *Scheduler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	<-s.done
	s.stop = nil
	s.log.Info("retry scheduler stopped", nil)
}

func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if _, err := s.ProcessRetries(context.Background()); err != nil {
				s.log.Error("retry sweep failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// ProcessRetries runs one sweep: list entries whose nextRetryAt has
// passed, re-check each channel's settings, claim, and re-send the
// stored content. It returns how many entries went through a delivery
// attempt. Entries whose settings are missing or disabled are left
// untouched for a later sweep, and entries another sweep claims first
// are skipped.
func (s *Scheduler) ProcessRetries(ctx context.Context) (int, error) {
	now := s.now().UTC()

	if due, err := s.entries.CountDue(ctx, now); err != nil {
		s.log.Warn("due count failed", map[string]interface{}{"error": err.Error()})
	} else {
		metrics.RetriesDue.Set(float64(due))
	}

	batch, err := s.entries.ListDue(ctx, now, s.batchSize())
	if err != nil {
		return 0, fmt.Errorf("list due entries: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	processed := 0
	for _, entry := range batch {
		if s.processOne(ctx, entry) {
			processed++
		}
	}

	s.log.Info("retry sweep finished", map[string]interface{}{
		"due":       len(batch),
		"processed": processed,
	})
	return processed, nil
}

// processOne re-sends a single due entry, reporting whether a delivery
// attempt happened. The settings check precedes the claim so skipped
// entries keep their retrying state and schedule.
func (s *Scheduler) processOne(ctx context.Context, entry *models.NotificationLog) bool {
	log := s.log.WithFields(map[string]interface{}{
		"logId":    entry.ID,
		"tenantId": entry.TenantID,
		"channel":  string(entry.Channel),
	})

	st, err := s.settings.GetChannelSettings(ctx, entry.TenantID, entry.Channel)
	if err != nil {
		log.Warn("settings lookup failed, leaving entry for next sweep", map[string]interface{}{"error": err.Error()})
		return false
	}
	if st == nil || !st.IsEnabled {
		log.Warn("channel vanished or disabled, leaving entry for next sweep", nil)
		return false
	}

	claimed, err := s.entries.ClaimRetry(ctx, entry.ID)
	if err != nil {
		log.Error("retry claim failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	if !claimed {
		log.Debug("entry claimed by another sweep", nil)
		return false
	}

	res := s.engine.Resend(ctx, entry, st)
	if res.Success {
		log.Info("retry delivered", map[string]interface{}{"externalMessageId": res.MessageID})
	}
	return true
}

func (s *Scheduler) interval() time.Duration {
	if t := s.cfg.GetInterval(); t > 0 {
		return t
	}
	return 2 * time.Minute
}

func (s *Scheduler) batchSize() int {
	if s.cfg.BatchSize > 0 {
		return s.cfg.BatchSize
	}
	return 50
}
