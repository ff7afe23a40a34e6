package domain

import "context"

// Event severities. Warning events describe tolerable degradation; critical
// events require operator attention.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityCritical
)

// Event names emitted by the core.
const (
	// EventTurnLogFailed: a chat turn could not be persisted after a
	// successful answer. The answer was still returned.
	EventTurnLogFailed = "turn_log_failed"
	// EventCompensationFailed: an ingest compensation delete failed,
	// leaving an orphaned document record.
	EventCompensationFailed = "compensation_failed"
	// EventOrphanedRecord: a document removal found no vectors to delete.
	EventOrphanedRecord = "orphaned_record"
)

// Event is a structured observability record.
type Event struct {
	Name     string
	Severity Severity
	Err      error
	Fields   map[string]any
}

// EventSink receives degraded-mode and consistency events. It is injected
// rather than ambient so tests can assert on emitted events.
type EventSink interface {
	Emit(ctx context.Context, e Event)
}
