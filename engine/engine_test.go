package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func mustPush(t *testing.T, eng *Engine, fn Func, reads, mutates []Tag) {
	t.Helper()
	if err := eng.Push(fn, reads, mutates, nil); err != nil {
		t.Fatalf("push failed: %v", err)
	}
}

func TestElementwiseAddOrdering(t *testing.T) {
	t.Parallel()

	eng := New()
	x := eng.MustNewVariable("x")
	y := eng.MustNewVariable("y")
	z := eng.MustNewVariable("z")

	var mu sync.Mutex
	var zVal int
	var printedAfterAdd bool

	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	mustPush(t, eng, func() {
		mu.Lock()
		zVal = 7
		mu.Unlock()
	}, []Tag{x, y}, []Tag{z})

	mustPush(t, eng, func() {
		mu.Lock()
		printedAfterAdd = zVal == 7
		mu.Unlock()
	}, []Tag{z}, nil)

	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !printedAfterAdd {
		t.Error("expected the reader of z to observe the writer's value, proving it ran strictly after")
	}
}

func TestOrderingByMutator(t *testing.T) {
	t.Parallel()

	eng := New()
	x := eng.MustNewVariable("x")
	y := eng.MustNewVariable("y")

	var mu sync.Mutex
	var log []string
	record := func(s string) {
		mu.Lock()
		log = append(log, s)
		mu.Unlock()
	}

	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	mustPush(t, eng, func() { record("M y") }, nil, []Tag{y})
	mustPush(t, eng, func() { record("R x M y") }, []Tag{x}, []Tag{y})
	mustPush(t, eng, func() { record("R x") }, []Tag{x}, nil)

	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	idxMY, idxRXMY := -1, -1
	for i, s := range log {
		switch s {
		case "M y":
			idxMY = i
		case "R x M y":
			idxRXMY = i
		}
	}
	if idxMY == -1 || idxRXMY == -1 {
		t.Fatalf("expected both mutator instructions to have run, got log %v", log)
	}
	if idxMY > idxRXMY {
		t.Errorf(`"M y" must precede "R x M y" on y's FIFO, got log %v`, log)
	}
}

func TestReaderConcurrency(t *testing.T) {
	eng := New()
	q := eng.MustNewVariable("q")

	const readers = 10
	const sleep = 80 * time.Millisecond

	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	start := time.Now()
	for i := 0; i < readers; i++ {
		mustPush(t, eng, func() { time.Sleep(sleep) }, []Tag{q}, nil)
	}
	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed > 5*sleep {
		t.Errorf("expected concurrent readers to overlap, took %v for %d x %v sleeps", elapsed, readers, sleep)
	}
}

func TestWriterBlocksReaders(t *testing.T) {
	eng := New()
	q := eng.MustNewVariable("q")

	var mu sync.Mutex
	var writerDone time.Time
	var readerStartedBeforeWriterDone bool

	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	mustPush(t, eng, func() {
		time.Sleep(120 * time.Millisecond)
		mu.Lock()
		writerDone = time.Now()
		mu.Unlock()
	}, nil, []Tag{q})

	for i := 0; i < 5; i++ {
		mustPush(t, eng, func() {
			mu.Lock()
			if writerDone.IsZero() {
				readerStartedBeforeWriterDone = true
			}
			mu.Unlock()
		}, []Tag{q}, nil)
	}

	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if readerStartedBeforeWriterDone {
		t.Error("a reader ran before the writer it was queued behind finished")
	}
}

func TestDrainOnceRunsExactlyOnce(t *testing.T) {
	t.Parallel()

	eng := New()
	x := eng.MustNewVariable("x")

	ran := 0
	mustPush(t, eng, func() { ran++ }, nil, []Tag{x})

	eng.DrainOnce()

	if ran != 1 {
		t.Fatalf("expected fn to run exactly once via DrainOnce, ran %d times", ran)
	}
}

func TestRestartRunsBothCyclesAndReturnsToIdle(t *testing.T) {
	t.Parallel()

	eng := New()
	x := eng.MustNewVariable("x")

	var calls int
	if err := eng.Start(); err != nil {
		t.Fatalf("start 1: %v", err)
	}
	mustPush(t, eng, func() { calls++ }, nil, []Tag{x})
	if err := eng.Stop(); err != nil {
		t.Fatalf("stop 1: %v", err)
	}

	snap := eng.Snapshot()
	if snap["x"].Mode != "MR" {
		t.Fatalf("expected x back to MR after first cycle, got %+v", snap["x"])
	}

	if err := eng.Start(); err != nil {
		t.Fatalf("start 2: %v", err)
	}
	mustPush(t, eng, func() { calls++ }, nil, []Tag{x})
	if err := eng.Stop(); err != nil {
		t.Fatalf("stop 2: %v", err)
	}

	if calls != 2 {
		t.Fatalf("expected both instructions across restarts to run, got %d calls", calls)
	}
}

func TestStartStopWithNoPushesIsNoOp(t *testing.T) {
	t.Parallel()

	eng := New()
	eng.MustNewVariable("x")

	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	snap := eng.Snapshot()
	if snap["x"].Mode != "MR" || snap["x"].Pending != 0 {
		t.Errorf("expected an idle, empty resource after a no-op cycle, got %+v", snap["x"])
	}
}

func TestPushWithOverlappingReadAndMutateActsAsMutateOnly(t *testing.T) {
	t.Parallel()

	eng := New()
	x := eng.MustNewVariable("x")

	var claimedAsWriter bool
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustPush(t, eng, func() {
		snap := eng.Snapshot()
		claimedAsWriter = snap["x"].Mode == "N"
	}, []Tag{x}, []Tag{x})
	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if !claimedAsWriter {
		t.Error("a tag present in both reads and mutates should be claimed under writer discipline")
	}
}

func TestPushUnknownTagFails(t *testing.T) {
	t.Parallel()

	eng := New()
	ghost := Tag{Name: "ghost"}

	if err := eng.Push(func() {}, nil, []Tag{ghost}, nil); err == nil {
		t.Error("expected Push with an unregistered tag to fail")
	}
}

func TestStopWithoutStartFails(t *testing.T) {
	t.Parallel()

	eng := New()
	if err := eng.Stop(); err == nil {
		t.Error("expected Stop without a prior Start to fail")
	}
}

func TestNewVariableWhileRunningFails(t *testing.T) {
	t.Parallel()

	eng := New()
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer eng.Stop()

	if _, err := eng.NewVariable("late"); err == nil {
		t.Error("expected NewVariable to fail while the engine is running")
	}
}

func TestScopedRunsStartAndStopAroundFn(t *testing.T) {
	t.Parallel()

	eng := New()
	x := eng.MustNewVariable("x")

	var ran int32
	err := eng.Scoped(func() {
		mustPush(t, eng, func() { atomic.AddInt32(&ran, 1) }, nil, []Tag{x})
	})
	if err != nil {
		t.Fatalf("Scoped: %v", err)
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("expected fn pushed inside Scoped to have run, ran=%d", ran)
	}

	// The engine must be stopped again, so a second Scoped call must work.
	err = eng.Scoped(func() {
		mustPush(t, eng, func() { atomic.AddInt32(&ran, 1) }, nil, []Tag{x})
	})
	if err != nil {
		t.Fatalf("second Scoped: %v", err)
	}
	if atomic.LoadInt32(&ran) != 2 {
		t.Fatalf("expected fn from second Scoped call to have run, ran=%d", ran)
	}
}

func TestScopedStopsEngineEvenWhenFnPanics(t *testing.T) {
	t.Parallel()

	eng := New()

	defer func() {
		if recover() == nil {
			t.Fatal("expected Scoped to re-panic")
		}
		// Stop must have already run, so Start must succeed again.
		if err := eng.Start(); err != nil {
			t.Fatalf("expected engine to be stopped after a panicking Scoped call, Start failed: %v", err)
		}
		_ = eng.Stop()
	}()

	_ = eng.Scoped(func() {
		panic("boom")
	})
}

func TestScopedPropagatesStartError(t *testing.T) {
	t.Parallel()

	eng := New()
	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer eng.Stop()

	if err := eng.Scoped(func() {
		t.Fatal("fn must not run when Start fails")
	}); err == nil {
		t.Error("expected Scoped to propagate ErrAlreadyRunning")
	}
}

// TestChainedDependencyOrdering regresses the tightly dependent chain
// (A = B+C; D = A+Z; C = D) described as a known source of incorrect
// ordering: every instruction touching a shared tag must be serialized
// through that tag's FIFO, including when the chain loops a value back
// through an earlier resource.
func TestChainedDependencyOrdering(t *testing.T) {
	eng := New()
	a := eng.MustNewVariable("a")
	b := eng.MustNewVariable("b")
	c := eng.MustNewVariable("c")
	d := eng.MustNewVariable("d")
	z := eng.MustNewVariable("z")

	var mu sync.Mutex
	var log []string
	record := func(s string) {
		mu.Lock()
		log = append(log, s)
		mu.Unlock()
	}

	if err := eng.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	// A = B + C
	mustPush(t, eng, func() { record("A=B+C") }, []Tag{b, c}, []Tag{a})
	// D = A + Z
	mustPush(t, eng, func() { record("D=A+Z") }, []Tag{a, z}, []Tag{d})
	// C = D
	mustPush(t, eng, func() { record("C=D") }, []Tag{d}, []Tag{c})

	if err := eng.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if len(log) != 3 {
		t.Fatalf("expected all three chained instructions to run, got %v", log)
	}

	pos := map[string]int{}
	for i, s := range log {
		pos[s] = i
	}
	if pos["A=B+C"] > pos["D=A+Z"] {
		t.Errorf("A=B+C must run before D=A+Z (shares tag a): %v", log)
	}
	if pos["D=A+Z"] > pos["C=D"] {
		t.Errorf("D=A+Z must run before C=D (shares tag d): %v", log)
	}
}
