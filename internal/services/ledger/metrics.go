package ledger

import "github.com/shopspring/decimal"

// MetricsCollector receives ledger events for monitoring.
type MetricsCollector interface {
	RecordTransaction(txType string, amount decimal.Decimal)
	RecordConflictRetry(operation string)
	RecordError(operation string, err error)
}

// NoopMetricsCollector discards all events.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTransaction(txType string, amount decimal.Decimal) {}
func (NoopMetricsCollector) RecordConflictRetry(operation string)                    {}
func (NoopMetricsCollector) RecordError(operation string, err error)                 {}
