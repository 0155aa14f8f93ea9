package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// StoreOperationDuration tracks the latency of document store calls
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "admin_store_operation_duration_seconds",
			Help: "Duration of document store operations in seconds",
			Buckets: []float64{
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
			},
		},
		[]string{"operation", "status"},
	)

	// RewardCodeOperations counts reward code lifecycle calls
	RewardCodeOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_reward_code_operations_total",
			Help: "Reward code lifecycle operations by outcome",
		},
		[]string{"operation", "status"},
	)

	// MailOperations counts mail lifecycle calls
	MailOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_mail_operations_total",
			Help: "Mail lifecycle operations by outcome",
		},
		[]string{"operation", "status"},
	)

	// BatchItems counts per-user results of multi-user sends
	BatchItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_mail_batch_items_total",
			Help: "Per-user results of multi-user mail sends",
		},
		[]string{"status"}, // success or failure
	)
)

// Status maps an error to a metric label
func Status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordStoreOperation records the duration of a store call
func RecordStoreOperation(operation string, err error, duration float64) {
	StoreOperationDuration.WithLabelValues(operation, Status(err)).Observe(duration)
}

// RecordRewardCode counts a reward code operation
func RecordRewardCode(operation string, err error) {
	RewardCodeOperations.WithLabelValues(operation, Status(err)).Inc()
}

// RecordMail counts a mail operation
func RecordMail(operation string, err error) {
	MailOperations.WithLabelValues(operation, Status(err)).Inc()
}

// RecordBatchItem counts one user of a multi-user send
func RecordBatchItem(err error) {
	BatchItems.WithLabelValues(Status(err)).Inc()
}

// Push sends the default registry to a Pushgateway. The tool exits after
// each run, so nothing is left to scrape.
func Push(ctx context.Context, url, job string) error {
	err := push.New(url, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
