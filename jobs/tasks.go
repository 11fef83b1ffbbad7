package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReplenishScan reports products that need reordering.
	TaskReplenishScan = "replenish:scan"
	// TaskLedgerVerify replays the stock ledger against product records.
	TaskLedgerVerify = "ledger:verify"
)

// ScanPayload carries scheduling metadata shared by the periodic tasks.
type ScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewReplenishScanTask builds a replenishment scan task.
func NewReplenishScanTask(at time.Time) (*asynq.Task, error) {
	return newScanTask(TaskReplenishScan, at)
}

// NewLedgerVerifyTask builds a ledger verification task.
func NewLedgerVerifyTask(at time.Time) (*asynq.Task, error) {
	return newScanTask(TaskLedgerVerify, at)
}

func newScanTask(kind string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(kind, body, asynq.Queue(QueueDefault)), nil
}

func decodeScanPayload(t *asynq.Task) (ScanPayload, error) {
	var payload ScanPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, asynq.SkipRetry
	}
	return payload, nil
}
