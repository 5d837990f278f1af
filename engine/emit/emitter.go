package emit

import "context"

// Emitter receives observability events from the scheduler.
//
// Emitters enable pluggable backends: logging, OpenTelemetry tracing,
// metrics pipelines, anything. Implementations should be non-blocking and
// safe to call concurrently — Emit is called from whichever resource
// worker goroutine produced the event, potentially many at once.
type Emitter interface {
	// Emit sends a single event to the configured backend. Emit must not
	// block the caller for long and must not panic.
	Emit(event Event)

	// EmitBatch sends multiple events in one operation. Implementations
	// should preserve event order. Returns error only on catastrophic
	// failures; individual event failures should be logged, not returned.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until all buffered events have been delivered, or ctx
	// expires. Safe to call multiple times.
	Flush(ctx context.Context) error
}
