package engine

import (
	"sync/atomic"
	"time"
)

// runWorker is the per-resource goroutine loop started by Start for every
// registered tag. It repeatedly claims the head of q, and whenever a claim
// makes an instruction's pending counter hit zero, fires it — either inline
// or on a dedicated goroutine, per cfg.concurrent.
//
// The loop exits once q.next reports the queue stopped and drained, which
// happens only after Stop has been called and every instruction queued on
// this resource before the stop has been claimed.
func (e *Engine) runWorker(q *resourceQueue) {
	defer e.workers.Done()

	for {
		claimedAt := time.Now()
		ins, readOnly, ok := q.next()
		if !ok {
			return
		}

		e.metrics.observeQueueDepth(q.tag.Name, q.depth())
		mode, _ := q.tracker.snapshot()
		e.metrics.recordMode(q.tag.Name, mode)
		e.emitter.Emit(claimEvent(q.tag, mode, readOnly))
		e.metrics.observeClaimWaitMs(q.tag.Name, float64(time.Since(claimedAt).Microseconds())/1000.0)

		if !ins.decrementAndIsZero() {
			continue
		}

		if e.cfg.concurrent {
			e.inFlight.Add(1)
			go func() {
				defer e.inFlight.Done()
				e.fire(ins)
			}()
		} else {
			e.fire(ins)
		}
	}
}

// fire runs ins and restores every resource it touched, reporting metrics
// and events along the way. It is called either inline on a resource
// worker or on a dedicated goroutine, depending on configuration.
func (e *Engine) fire(ins *Instruction) {
	e.metrics.instructionStarted()
	err := ins.run(func(t Tag, readOnly bool) {
		e.restoreTag(t, readOnly)
	})
	e.metrics.instructionFinished(err)
	atomic.AddInt64(&e.firedTotal, 1)
	if err != nil {
		e.emitter.Emit(errorEvent(err))
	}
}

// restoreTag looks up the queue for t and reverses its claim, waking any
// worker blocked waiting for this resource's state to change.
func (e *Engine) restoreTag(t Tag, readOnly bool) {
	e.mu.RLock()
	q, ok := e.queues[t]
	e.mu.RUnlock()
	if !ok {
		panic(&EngineError{Message: "restore on unknown tag", Code: "UNKNOWN_TAG", Tag: t, Cause: ErrUnknownTag})
	}
	q.restore(readOnly)
	mode, _ := q.tracker.snapshot()
	e.metrics.recordMode(t.Name, mode)
	e.emitter.Emit(restoreEvent(t, mode))
}
