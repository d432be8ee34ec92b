package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/database"
)

// RefreshScheduler runs the periodic ingest and maintenance jobs.
type RefreshScheduler struct {
	db            *database.DB
	ingest        *IngestService
	analytics     *AnalyticsService
	logger        *logrus.Logger
	cron          *cron.Cron
	sports        []string
	fetchInterval time.Duration
	afterRefresh  func()
	mu            sync.Mutex
	isRunning     bool
}

func NewRefreshScheduler(
	db *database.DB,
	ingest *IngestService,
	analytics *AnalyticsService,
	logger *logrus.Logger,
	sports []string,
	fetchInterval time.Duration,
) *RefreshScheduler {
	return &RefreshScheduler{
		db:            db,
		ingest:        ingest,
		analytics:     analytics,
		logger:        logger,
		cron:          cron.New(),
		sports:        sports,
		fetchInterval: fetchInterval,
	}
}

// Start schedules the refresh and cleanup jobs.
func (s *RefreshScheduler) Start(runInitialFetch bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("refresh scheduler is already running")
	}

	schedule := fmt.Sprintf("@every %s", s.fetchInterval.String())
	if _, err := s.cron.AddFunc(schedule, s.refreshAll); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	// Games concentrate in the evening; refresh hourly through the window.
	if _, err := s.cron.AddFunc("0 17-23 * * *", s.refreshAll); err != nil {
		return fmt.Errorf("failed to schedule evening refresh: %w", err)
	}

	if _, err := s.cron.AddFunc("0 3 * * *", s.cleanupOldData); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	if runInitialFetch {
		go s.refreshAll()
	}

	s.logger.Info("Refresh scheduler started")
	return nil
}

// Stop halts the scheduled jobs, waiting for any in-flight run.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Refresh scheduler stopped")
}

func (s *RefreshScheduler) refreshAll() {
	s.logger.Info("Starting scheduled data refresh")
	ctx := context.Background()

	s.ingest.RefreshAll(ctx, s.sports)
	for _, sport := range s.sports {
		if _, err := s.analytics.Recompute(ctx, sport); err != nil {
			s.logger.Errorf("Analytics recompute failed for %s: %v", sport, err)
		}
	}

	if s.afterRefresh != nil {
		s.afterRefresh()
	}

	s.logger.Info("Completed scheduled data refresh")
}

// SetAfterRefresh installs a hook that runs at the end of every scheduled
// refresh, after ingest and analytics. Used to push alerts off fresh data.
func (s *RefreshScheduler) SetAfterRefresh(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterRefresh = fn
}

// cleanupOldData drops stale odds and aged synthetic rows.
func (s *RefreshScheduler) cleanupOldData() {
	s.logger.Info("Starting daily cleanup")

	staleCutoff := time.Now().AddDate(0, 0, -2)
	result := s.db.Where("last_updated < ?", staleCutoff).Delete(&models.LiveOdds{})
	if result.Error != nil {
		s.logger.Errorf("Failed to cleanup stale odds: %v", result.Error)
	} else {
		s.logger.Infof("Cleaned up %d stale odds rows", result.RowsAffected)
	}

	syntheticCutoff := time.Now().AddDate(0, 0, -7)
	result = s.db.Where("source = ? AND created_at < ?", models.ProvenanceSynthetic, syntheticCutoff).Delete(&models.PlayerStat{})
	if result.Error != nil {
		s.logger.Errorf("Failed to cleanup synthetic stats: %v", result.Error)
	} else {
		s.logger.Infof("Cleaned up %d synthetic stat rows", result.RowsAffected)
	}
}

// Status reports the scheduler state for the health endpoint.
func (s *RefreshScheduler) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	nextRuns := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		nextRuns = append(nextRuns, entry.Next)
	}

	return map[string]interface{}{
		"is_running":     s.isRunning,
		"fetch_interval": s.fetchInterval.String(),
		"next_runs":      nextRuns,
		"cron_jobs":      len(entries),
	}
}
