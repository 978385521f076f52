package ports

// MetricsRecorder counts guard decisions for observability. Implementations
// must be safe for concurrent use.
type MetricsRecorder interface {
	// RecordDecision records one decision outcome ("allowed" or a denial
	// reason) for an operation.
	RecordDecision(operation, outcome string)
}
