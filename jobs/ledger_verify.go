package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ambrevelours/av-suite/internal/inventory"
)

// LedgerVerifier replays the stock ledger.
type LedgerVerifier interface {
	Verify(ctx context.Context) (inventory.VerifyReport, error)
}

// DriftObserver publishes the outcome of a verification.
type DriftObserver interface {
	JobObserver
	SetLedgerDrift(products int)
}

// LedgerVerifyJob checks that every product record matches its ledger.
type LedgerVerifyJob struct {
	Verifier LedgerVerifier
	Logger   *slog.Logger
	Metrics  DriftObserver
}

// Handle executes the verification. Drift is reported, never repaired.
func (j *LedgerVerifyJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Verifier == nil {
		return errors.New("ledger verify: handler not configured")
	}
	if _, err := decodeScanPayload(t); err != nil {
		return err
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.ObserveJob(TaskLedgerVerify, err)
		}
	}()
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}

	report, err := j.Verifier.Verify(ctx)
	if err != nil {
		logger.Error("ledger verification failed", slog.Any("error", err))
		return err
	}
	if j.Metrics != nil {
		j.Metrics.SetLedgerDrift(len(report.Drifts))
	}
	for _, d := range report.Drifts {
		logger.Error("stock ledger drift",
			slog.String("product_id", d.ProductID),
			slog.String("product", d.ProductName),
			slog.Int("stock", d.Stock),
			slog.Int("ledger_stock", d.LedgerStock),
			slog.String("cmp", d.CMP.String()),
			slog.String("ledger_cmp", d.LedgerCMP.String()),
		)
	}
	logger.Info("completed ledger verification",
		slog.Int("products", report.Products),
		slog.Int("movements", report.Movements),
		slog.Bool("ok", report.OK()),
	)
	return nil
}
