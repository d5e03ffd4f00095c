package dispatch

import "time"

// Metrics collects dispatch statistics.
// Methods must be fast and safe for concurrent use.
type Metrics interface {
	// RecordTaskDuration records how long a task ran on the thread.
	RecordTaskDuration(thread string, d time.Duration)

	// RecordTaskPanic records a task that panicked.
	RecordTaskPanic(thread string, value any)

	// RecordQueueDepth records the number of tasks waiting.
	RecordQueueDepth(thread string, depth int)

	// RecordTaskRejected records a task that could not be scheduled.
	RecordTaskRejected(thread string, reason string)
}

// NilMetrics discards everything. It is the default.
type NilMetrics struct{}

func (NilMetrics) RecordTaskDuration(string, time.Duration) {}
func (NilMetrics) RecordTaskPanic(string, any)              {}
func (NilMetrics) RecordQueueDepth(string, int)             {}
func (NilMetrics) RecordTaskRejected(string, string)        {}

func orNil(m Metrics) Metrics {
	if m == nil {
		return NilMetrics{}
	}
	return m
}
