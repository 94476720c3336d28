package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/backup"
	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/modules/audit"
	"github.com/aristath/advisor/internal/modules/report"
)

// Cron schedules (six-field, with seconds).
const (
	ScheduleDailyReport  = "0 0 6 * * MON-FRI"
	SchedulePriceWarm    = "0 0 * * * *"
	ScheduleCacheCleanup = "0 30 3 * * *"
	ScheduleS3Backup     = "0 0 4 * * *"
)

// DailyReportJob builds, stores and dispatches the morning report.
type DailyReportJob struct {
	Service    *report.Service
	Repo       *report.Repository
	Dispatcher *report.Dispatcher
	Audit      *audit.Repository
	Bus        *events.Bus
	Log        zerolog.Logger
}

// Name implements Job.
func (j *DailyReportJob) Name() string { return "daily_report" }

// Run implements Job.
func (j *DailyReportJob) Run(ctx context.Context) error {
	daily, err := j.Service.BuildDaily(ctx)
	if err != nil {
		return fmt.Errorf("building daily report: %w", err)
	}
	markdown := report.RenderMarkdown(daily)

	dispatch := j.Dispatcher.Send(ctx, markdown)

	id, err := j.Repo.Store(daily, markdown, dispatch)
	if err != nil {
		return fmt.Errorf("storing report snapshot: %w", err)
	}

	if err := j.Audit.Record("report_run", map[string]interface{}{
		"trigger": "scheduled",
		"slack":   dispatch.SlackStatus,
		"email":   dispatch.EmailStatus,
	}); err != nil {
		j.Log.Error().Err(err).Msg("Failed to record audit entry")
	}

	j.Bus.Publish(events.TypeReportGenerated, map[string]interface{}{"id": id})
	j.Bus.Publish(events.TypeReportDispatch, map[string]interface{}{
		"slack": dispatch.SlackStatus,
		"email": dispatch.EmailStatus,
	})
	return nil
}

// PriceWarmJob refreshes the price cache for every tracked ticker so the
// first dashboard request of the hour is served warm.
type PriceWarmJob struct {
	Settings *config.Store
	Prices   *yahoo.Client
	Bus      *events.Bus
	Log      zerolog.Logger
}

// Name implements Job.
func (j *PriceWarmJob) Name() string { return "price_warm" }

// Run implements Job.
func (j *PriceWarmJob) Run(ctx context.Context) error {
	settings := j.Settings.Get()
	tickers := j.Settings.AllTickers()

	warmed := 0
	for _, ticker := range tickers {
		if _, err := j.Prices.History(ctx, ticker, settings.Data.LookbackDays); err != nil {
			j.Log.Warn().Err(err).Str("ticker", ticker).Msg("Price warm failed")
			continue
		}
		warmed++
	}

	j.Bus.Publish(events.TypePricesWarmed, map[string]interface{}{
		"warmed": warmed,
		"total":  len(tickers),
	})
	return nil
}

// CacheCleanupJob purges expired client cache rows.
type CacheCleanupJob struct {
	Cache *clientdata.Repository
	Log   zerolog.Logger
}

// Name implements Job.
func (j *CacheCleanupJob) Name() string { return "cache_cleanup" }

// Run implements Job.
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	purged, err := j.Cache.PurgeExpired()
	if err != nil {
		return fmt.Errorf("purging expired cache rows: %w", err)
	}
	j.Log.Info().Int64("purged", purged).Msg("Cache cleanup complete")
	return nil
}

// S3BackupJob uploads a compressed database snapshot.
type S3BackupJob struct {
	Backup *backup.Service
	DBPath string
	Bus    *events.Bus
	Log    zerolog.Logger
}

// Name implements Job.
func (j *S3BackupJob) Name() string { return "s3_backup" }

// Run implements Job.
func (j *S3BackupJob) Run(ctx context.Context) error {
	if !j.Backup.Enabled() {
		j.Log.Debug().Msg("Backup not configured, skipping")
		return nil
	}

	key, err := j.Backup.Upload(ctx, j.DBPath)
	if err != nil {
		return err
	}

	j.Bus.Publish(events.TypeBackupComplete, map[string]interface{}{"key": key})
	return nil
}
