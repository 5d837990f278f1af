// Package store persists scheduler lifecycle metadata: the registered
// resource names, when the engine was last started and stopped, and
// periodic rollups of queue depth and fired-instruction counts.
//
// It deliberately never persists the instruction log itself — not the
// functions pushed, their read/mutate sets, nor their ordering — so a
// restarted process cannot replay history, only recover which resources
// existed and a coarse activity summary.
package store

import (
	"context"
	"time"
)

// Rollup is a periodic summary of scheduler activity, suitable for storing
// at low frequency (e.g. once per second) without approaching the volume of
// the instruction stream itself.
type Rollup struct {
	Tag             string
	QueueDepth      int
	Mode            string
	InstructionsFired int64
	RecordedAt      time.Time
}

// Lifecycle records a single Start or Stop transition.
type Lifecycle struct {
	Event string // "start" or "stop"
	At    time.Time
}

// SnapshotStore is the persistence contract for scheduler metadata. All
// methods must be safe for concurrent use.
type SnapshotStore interface {
	// RegisterTags records the full set of resource names known at Start
	// time, replacing any previously recorded set.
	RegisterTags(ctx context.Context, names []string) error

	// Tags returns the most recently registered set of resource names.
	Tags(ctx context.Context) ([]string, error)

	// RecordLifecycle appends a lifecycle event.
	RecordLifecycle(ctx context.Context, ev Lifecycle) error

	// RecordRollup appends a periodic activity summary.
	RecordRollup(ctx context.Context, r Rollup) error

	// RecentRollups returns the most recent rollups, newest first, capped
	// at limit.
	RecentRollups(ctx context.Context, limit int) ([]Rollup, error)

	// Close releases any underlying resources (connections, file handles).
	Close() error
}
