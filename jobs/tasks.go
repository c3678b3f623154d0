package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSequenceIntegrity scans document counters against issued numbers.
	TaskSequenceIntegrity = "sequence:integrity"
	// TaskRateGapScan finds documents carrying zero-rate line items.
	TaskRateGapScan = "pricing:rate_gaps"
)

// NewSequenceIntegrityTask constructs the nightly counter scan task.
func NewSequenceIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskSequenceIntegrity, nil)
}

// NewRateGapScanTask constructs the rate-gap scan task.
func NewRateGapScanTask() *asynq.Task {
	return asynq.NewTask(TaskRateGapScan, nil)
}
