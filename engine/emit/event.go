// Package emit provides pluggable observability for the scheduler: every
// claim, fire, restore, and lifecycle transition can be reported to a
// backend without the engine depending on what that backend is.
package emit

// Event represents an observability event emitted by the scheduler.
//
// Events report the lifecycle of instructions and the resources they
// touch. The engine emits:
//   - engine_start / engine_stop
//   - instruction_pushed / instruction_error
//   - resource_claimed / resource_restored
type Event struct {
	// Tag is the resource involved, empty for engine-level events.
	Tag string

	// Msg is a short machine-stable event name, e.g. "instruction_fired".
	Msg string

	// Mode is the resource's access mode at the time of the event ("MR",
	// "R", "N"), empty when not applicable.
	Mode string

	// Meta carries additional structured data, e.g. queue depth, error
	// text, or reader counts.
	Meta map[string]interface{}
}
