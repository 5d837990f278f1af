package engine

import (
	"context"
	"time"

	"github.com/dlsys-project/depengine/engine/store"
)

// RunRollupCollector periodically snapshots e's resource states and
// instruction-fired totals into snap, until ctx is done. It also records a
// "start" lifecycle event immediately and registers the engine's current
// tag set, so a restarted process can recover what resources existed
// without ever having persisted the instructions that touched them.
//
// Callers typically run this in its own goroutine alongside Start/Stop:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	go engine.RunRollupCollector(ctx, eng, snap, 5*time.Second)
//	eng.Start()
//	...
//	eng.Stop()
//	cancel()
func RunRollupCollector(ctx context.Context, e *Engine, snap store.SnapshotStore, interval time.Duration) error {
	e.mu.RLock()
	names := make([]string, 0, len(e.tags))
	for name := range e.tags {
		names = append(names, name)
	}
	e.mu.RUnlock()

	if err := snap.RegisterTags(ctx, names); err != nil {
		return err
	}
	if err := snap.RecordLifecycle(ctx, store.Lifecycle{Event: "start", At: time.Now()}); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = snap.RecordLifecycle(context.Background(), store.Lifecycle{Event: "stop", At: time.Now()})
			return nil
		case <-ticker.C:
			fired := e.FiredTotal()
			for name, s := range e.Snapshot() {
				_ = snap.RecordRollup(ctx, store.Rollup{
					Tag:               name,
					QueueDepth:        s.Pending,
					Mode:              s.Mode,
					InstructionsFired: fired,
					RecordedAt:        time.Now(),
				})
			}
		}
	}
}
