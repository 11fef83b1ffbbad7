package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/observability"
	"github.com/ambrevelours/av-suite/internal/replenish"
	"github.com/ambrevelours/av-suite/internal/store"
	"github.com/ambrevelours/av-suite/jobs"
)

// TaskHandlers binds the periodic jobs to their data sources.
func TaskHandlers(reporter jobs.ReplenishReporter, verifier jobs.LedgerVerifier, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) []jobs.TaskHandler {
	scan := &jobs.ReplenishScanJob{Reporter: reporter, Logger: logger, Metrics: metrics, Currency: cfg.Currency}
	verify := &jobs.LedgerVerifyJob{Verifier: verifier, Logger: logger, Metrics: metrics}
	return []jobs.TaskHandler{
		{Type: jobs.TaskReplenishScan, Handler: scan.Handle},
		{Type: jobs.TaskLedgerVerify, Handler: verify.Handle},
	}
}

// CronSchedule returns the cron registrations enabled by cfg. An empty expression
// disables the corresponding job.
func CronSchedule(cfg *Config, now time.Time) ([]jobs.CronRegistration, error) {
	var out []jobs.CronRegistration
	if cfg.ReplenishCron != "" {
		task, err := jobs.NewReplenishScanTask(now)
		if err != nil {
			return nil, err
		}
		out = append(out, jobs.CronRegistration{Spec: cfg.ReplenishCron, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}
	if cfg.LedgerVerifyCron != "" {
		task, err := jobs.NewLedgerVerifyTask(now)
		if err != nil {
			return nil, err
		}
		out = append(out, jobs.CronRegistration{Spec: cfg.LedgerVerifyCron, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}
	return out, nil
}

// FreshView reloads the snapshot on every call so a standalone worker sees the writes
// made by the API process.
type FreshView struct {
	Provider store.Provider
	Logger   *slog.Logger
}

func (v FreshView) open(ctx context.Context) (*store.Store, error) {
	logger := v.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return store.Open(ctx, v.Provider, store.WithLogger(logger))
}

// Report implements jobs.ReplenishReporter.
func (v FreshView) Report(ctx context.Context) (replenish.Report, error) {
	s, err := v.open(ctx)
	if err != nil {
		return replenish.Report{}, err
	}
	return replenish.NewService(s.Repositories().Replenish).Report(ctx)
}

// Verify implements jobs.LedgerVerifier.
func (v FreshView) Verify(ctx context.Context) (inventory.VerifyReport, error) {
	s, err := v.open(ctx)
	if err != nil {
		return inventory.VerifyReport{}, err
	}
	return inventory.NewService(s.Repositories().Inventory, nil, inventory.ServiceConfig{Logger: v.Logger}).Verify(ctx)
}
