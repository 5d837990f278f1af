package engine

import (
	"fmt"
	"sync/atomic"
)

// Func is the opaque unit of work a caller submits via Push. The engine
// never inspects it; it only knows when all of fn's declared resources have
// been claimed, at which point it calls fn exactly once.
type Func func()

// CompletionFunc is the optional hook invoked after an instruction's fn has
// run (or failed) and every resource it touched has been restored. A
// non-nil err means fn panicked; the panic value is wrapped in err rather
// than propagated, per the hardening described in spec.md §7.
type CompletionFunc func(err error)

// Instruction is a submitted unit of work: a callable plus the read and
// mutate sets it declared at Push time. It is immutable except for its
// pending counter, which every queue that holds it decrements exactly once
// as it claims the instruction on behalf of its resource.
//
// An Instruction is shared — appended to the queue of every tag in its
// read/mutate union — and its lifetime is that of the last queue to pop it.
type Instruction struct {
	fn         Func
	onComplete CompletionFunc

	// reads and mutates are the caller-declared sets, kept as given; run()
	// restores resources by walking touched below, not these slices.
	reads   []Tag
	mutates []Tag
	// readOnly tags are in reads but not mutates; these claim read access.
	// Everything else (mutates, and tags in both sets) claims write access.
	readOnly map[Tag]bool
	// touched is the deduplicated union of reads and mutates, in the order
	// mutates were declared followed by read-only tags — this is also the
	// restore order.
	touched []Tag

	// pc is the pending counter: the number of distinct resources that must
	// still claim this instruction before fn may run. It is decremented
	// atomically; whichever caller observes it hit zero is the sole claimant
	// responsible for firing fn.
	pc int32

	// fired guards against fn running more than once; decrementAndIsZero
	// should only ever let one caller through, but this is cheap insurance
	// verified in tests, not load-bearing in production.
	fired int32
}

// newInstruction constructs an Instruction with pc set to the number of
// distinct resources in reads ∪ mutates, per spec §3.
func newInstruction(fn Func, reads, mutates []Tag, onComplete CompletionFunc) *Instruction {
	touched, readOnly := dedupeTags(reads, mutates)
	return &Instruction{
		fn:         fn,
		onComplete: onComplete,
		reads:      reads,
		mutates:    mutates,
		readOnly:   readOnly,
		touched:    touched,
		pc:         int32(len(touched)),
	}
}

// isReadOnlyOn reports whether this instruction should claim tag t via the
// read-only discipline: present in reads, absent from mutates.
func (ins *Instruction) isReadOnlyOn(t Tag) bool {
	return ins.readOnly[t]
}

// decrementAndIsZero atomically decrements pc and reports whether it just
// reached zero. Exactly one caller observes true for a given instruction;
// that caller — and only that caller — may invoke run().
func (ins *Instruction) decrementAndIsZero() bool {
	return atomic.AddInt32(&ins.pc, -1) == 0
}

// run executes fn under panic recovery, always performs restore on every
// touched resource, and reports the outcome to onComplete if set.
//
// This is the hardening spec.md §7 recommends as "should" rather than
// requires: the scheduler's contract is that fn either returns or
// terminates the process, but a bare panic would otherwise leave every
// resource fn touched stuck in N/R forever, hanging Stop(). Recovering here
// keeps the state machine sound even when fn misbehaves, at the cost of
// converting a panic into an error instead of letting it crash the
// process. The panic is recovered whether or not onComplete is set; a
// panic inside fn never propagates out of run.
func (ins *Instruction) run(restore func(Tag, bool)) error {
	if !atomic.CompareAndSwapInt32(&ins.fired, 0, 1) {
		panic("depengine: instruction fired more than once")
	}

	err := ins.safeCall()

	for _, t := range ins.touched {
		restore(t, ins.isReadOnlyOn(t))
	}

	if ins.onComplete != nil {
		ins.onComplete(err)
	}
	return err
}

// safeCall invokes fn, converting a panic into an error so run() can still
// perform restore and report completion.
func (ins *Instruction) safeCall() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("depengine: instruction panicked: %v", r)
		}
	}()
	ins.fn()
	return nil
}
