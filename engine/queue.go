package engine

import (
	"container/list"
	"sync"
)

// resourceQueue is the per-resource FIFO of pending instructions, paired
// with the stateTracker that governs whether the head of the queue is
// currently claimable. Every Tag registered with the engine owns exactly
// one resourceQueue.
//
// A condition variable wakes the queue's worker on three events, mirroring
// the Python ThreadedResourceStateQueue this is ported from:
//
//   - push: a new instruction was appended and the queue was previously
//     empty, or at least may now be claimable.
//   - restore: an instruction finished and the resource's state just
//     changed, possibly unblocking the new head.
//   - stop: the engine was asked to drain and exit; workers must wake up
//     to notice the queue is both empty and stopped.
type resourceQueue struct {
	tag     Tag
	tracker *stateTracker

	mu      sync.Mutex
	cond    *sync.Cond
	pending *list.List // of *Instruction, FIFO: front = oldest

	stopped bool
}

func newResourceQueue(tag Tag) *resourceQueue {
	q := &resourceQueue{
		tag:     tag,
		tracker: newStateTracker(),
		pending: list.New(),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends ins to the back of the queue and wakes the worker.
func (q *resourceQueue) push(ins *Instruction) {
	q.mu.Lock()
	q.pending.PushBack(ins)
	q.mu.Unlock()
	q.cond.Broadcast()
}

// stop marks the queue stopped and wakes its worker so it can observe
// drain completion and exit. Already-queued instructions are still run;
// stop only prevents the worker from blocking forever once the queue is
// empty.
func (q *resourceQueue) stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// notifyRestored wakes the worker after a restore changed this resource's
// state, in case the new head is now claimable.
func (q *resourceQueue) notifyRestored() {
	q.cond.Broadcast()
}

// next blocks until either an instruction at the head of the queue can be
// claimed for this resource, or the queue is stopped and drained — in
// which case it returns (nil, false).
//
// The state transition and the FIFO pop happen in one critical section under
// the queue lock, so they never interleave with another claim on the same
// resource. The pending-counter decrement is not part of that section: next
// returns an already-popped, already transitioned instruction, and the
// caller (worker) performs the atomic decrement after the lock is released
// and must see it reach zero before it may call run().
func (q *resourceQueue) next() (ins *Instruction, readOnly, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if front := q.pending.Front(); front != nil {
			head := front.Value.(*Instruction)
			ro := head.isReadOnlyOn(q.tag)
			claimed := false
			if ro {
				claimed = q.tracker.tryClaimRead()
			} else {
				claimed = q.tracker.tryClaimMutate()
			}
			if claimed {
				q.pending.Remove(front)
				return head, ro, true
			}
			// Head exists but cannot claim right now (writer blocked behind
			// readers, or reader blocked behind a writer). Wait for a restore.
		} else if q.stopped {
			return nil, false, false
		}
		q.cond.Wait()
	}
}

// tryClaimHeadNonBlocking attempts to claim the queue's head instruction
// without waiting. It returns ok=false if the queue is empty or its head
// cannot currently claim this resource. Used by DrainOnce, which never
// blocks a goroutine on a condition variable.
func (q *resourceQueue) tryClaimHeadNonBlocking() (ins *Instruction, readOnly, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	front := q.pending.Front()
	if front == nil {
		return nil, false, false
	}
	head := front.Value.(*Instruction)
	ro := head.isReadOnlyOn(q.tag)
	var claimed bool
	if ro {
		claimed = q.tracker.tryClaimRead()
	} else {
		claimed = q.tracker.tryClaimMutate()
	}
	if !claimed {
		return nil, false, false
	}
	q.pending.Remove(front)
	return head, ro, true
}

// restore reverses a previously successful claim and wakes this queue's
// worker in case the now-unblocked head can proceed.
func (q *resourceQueue) restore(readOnly bool) {
	if readOnly {
		q.tracker.restoreRead()
	} else {
		q.tracker.restoreMutate()
	}
	q.notifyRestored()
}

// depth returns the number of instructions currently queued, for
// introspection and metrics; it does not include an instruction mid-run.
func (q *resourceQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}
