package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ambrevelours/av-suite/internal/money"
	"github.com/ambrevelours/av-suite/internal/replenish"
)

// ReplenishReporter produces the current replenishment report.
type ReplenishReporter interface {
	Report(ctx context.Context) (replenish.Report, error)
}

// JobObserver records job outcomes.
type JobObserver interface {
	ObserveJob(task string, err error)
}

// ReplenishScanJob logs every product whose suggested quantity is positive.
type ReplenishScanJob struct {
	Reporter ReplenishReporter
	Logger   *slog.Logger
	Metrics  JobObserver
	Currency string
}

// Handle executes the scan.
func (j *ReplenishScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Reporter == nil {
		return errors.New("replenish scan: handler not configured")
	}
	payload, err := decodeScanPayload(t)
	if err != nil {
		return err
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.ObserveJob(TaskReplenishScan, err)
		}
	}()
	logger := j.logger()
	start := time.Now()

	report, err := j.Reporter.Report(ctx)
	if err != nil {
		logger.Error("replenishment scan failed", slog.Any("error", err))
		return err
	}
	pending := replenish.Pending(report.Suggestions)
	for _, s := range pending {
		logger.Warn("product needs reordering",
			slog.String("product_id", s.ProductID),
			slog.String("sku", s.SKU),
			slog.Int("stock", s.Stock),
			slog.Float64("reorder_point", s.ReorderPoint),
			slog.Int("suggested", s.Suggested),
			slog.String("order_value", money.Format(s.OrderValue, j.Currency)),
		)
	}
	logger.Info("completed replenishment scan",
		slog.Time("scheduled_for", payload.ScheduledFor),
		slog.Int("products", len(report.Suggestions)),
		slog.Int("to_order", len(pending)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *ReplenishScanJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
