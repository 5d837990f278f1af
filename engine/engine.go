package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dlsys-project/depengine/engine/emit"
)

// Engine is a dependency-aware execution scheduler over a fixed set of
// named resources. See the package doc comment for the execution model.
//
// An Engine moves through three phases:
//
//  1. Setup: NewVariable registers resources and no workers are running.
//     Push may already queue instructions; they run once Start is called
//     or DrainOnce drives them.
//  2. Running: Start spawns one worker goroutine per resource. Push
//     submits instructions; NewVariable is no longer permitted.
//  3. Stopped: Stop signals every worker to drain and exit, then blocks
//     until every pushed instruction has actually run.
//
// A stopped Engine may be Started again; resources and their current
// access state persist across restarts, per spec.md's restart semantics.
type Engine struct {
	cfg     *engineConfig
	emitter emit.Emitter
	metrics *Metrics

	mu     sync.RWMutex
	tags   map[string]Tag
	queues map[Tag]*resourceQueue

	running bool

	workers  sync.WaitGroup
	inFlight sync.WaitGroup

	firedTotal int64
}

// FiredTotal returns the total number of instructions whose function has
// run to completion (successfully or via a recovered panic) since the
// Engine was created.
func (e *Engine) FiredTotal() int64 {
	return atomic.LoadInt64(&e.firedTotal)
}

// New constructs an Engine with no registered resources. Call NewVariable
// to register resources before Start.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		_ = opt(cfg) // options in this package never fail; error kept for API symmetry with graph.Option
	}

	e := &Engine{
		cfg:     cfg,
		emitter: cfg.emitter,
		metrics: cfg.metrics,
		tags:    make(map[string]Tag),
		queues:  make(map[Tag]*resourceQueue),
	}
	return e
}

// NewVariable registers a new resource and returns its Tag. If name is
// empty, a unique name is synthesized. Returns ErrDuplicateTag if name is
// already registered, or ErrTagAddedWhileRunning if called after Start and
// before Stop.
func (e *Engine) NewVariable(name string) (Tag, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return Tag{}, &EngineError{Message: ErrTagAddedWhileRunning.Error(), Code: "TAG_ADDED_WHILE_RUNNING", Cause: ErrTagAddedWhileRunning}
	}
	if name == "" {
		name = newAnonymousName()
	}
	if _, exists := e.tags[name]; exists {
		return Tag{}, &EngineError{Message: ErrDuplicateTag.Error(), Code: "DUPLICATE_TAG", Tag: Tag{Name: name}, Cause: ErrDuplicateTag}
	}

	t := Tag{Name: name}
	e.tags[name] = t
	e.queues[t] = newResourceQueue(t)
	return t, nil
}

// MustNewVariable is NewVariable for call sites (tests, examples) that treat
// registration failure as a programmer error.
func (e *Engine) MustNewVariable(name string) Tag {
	t, err := e.NewVariable(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Push submits fn for execution once every tag in reads and mutates has
// claimed it. fn must not be nil. reads and mutates may overlap; a tag
// present in both is treated as mutated, per spec.md's resolution rule.
// onComplete, if non-nil, is invoked exactly once after fn returns (or
// panics) and every touched resource has been restored.
//
// Push returns ErrUnknownTag if any tag was never registered via
// NewVariable.
func (e *Engine) Push(fn Func, reads, mutates []Tag, onComplete CompletionFunc) error {
	if fn == nil {
		return &EngineError{Message: "instruction function must not be nil", Code: "NIL_FUNC"}
	}

	e.mu.RLock()
	for _, t := range reads {
		if _, ok := e.queues[t]; !ok {
			e.mu.RUnlock()
			return &EngineError{Message: ErrUnknownTag.Error(), Code: "UNKNOWN_TAG", Tag: t, Cause: ErrUnknownTag}
		}
	}
	for _, t := range mutates {
		if _, ok := e.queues[t]; !ok {
			e.mu.RUnlock()
			return &EngineError{Message: ErrUnknownTag.Error(), Code: "UNKNOWN_TAG", Tag: t, Cause: ErrUnknownTag}
		}
	}
	e.mu.RUnlock()

	ins := newInstruction(fn, reads, mutates, onComplete)
	e.emitter.Emit(pushedEvent(ins.touched))

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range ins.touched {
		e.queues[t].push(ins)
	}
	return nil
}

// Start spawns one worker goroutine per registered resource. Calling Start
// while already running is a no-op that returns ErrAlreadyRunning.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	queues := make([]*resourceQueue, 0, len(e.queues))
	for _, q := range e.queues {
		queues = append(queues, q)
	}
	e.mu.Unlock()

	e.emitter.Emit(lifecycleEvent("engine_start"))

	for _, q := range queues {
		e.workers.Add(1)
		go e.runWorker(q)
	}
	return nil
}

// Scoped calls Start, runs fn, and guarantees Stop runs on every exit path —
// including a panic inside fn, which Scoped re-panics after Stop returns so
// the caller still sees it. This is the scoped-acquisition idiom clients use
// to wrap a single batch of Push calls without manually pairing Start/Stop:
//
//	err := eng.Scoped(func() {
//	    eng.Push(fn1, reads1, mutates1, nil)
//	    eng.Push(fn2, reads2, mutates2, nil)
//	})
//
// Scoped returns the error from Start or Stop, whichever failed; fn itself
// has no return value since Push failures are reported at the call site.
func (e *Engine) Scoped(fn func()) error {
	if err := e.Start(); err != nil {
		return err
	}

	var panicked interface{}
	func() {
		defer func() {
			panicked = recover()
		}()
		fn()
	}()

	stopErr := e.Stop()
	if panicked != nil {
		panic(panicked)
	}
	return stopErr
}

// Stop signals every worker to drain its queue and exit, then blocks until
// every pushed instruction — including ones still executing asynchronously
// in concurrent mode — has completed. Returns ErrNotStarted if the engine
// was never started since the last Stop.
//
// The Engine may be Started again after Stop returns; resource state
// (including any resources left in R or N by a still-running instruction,
// which cannot happen once Stop has returned) carries over.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return ErrNotStarted
	}
	e.running = false
	queues := make([]*resourceQueue, 0, len(e.queues))
	for _, q := range e.queues {
		queues = append(queues, q)
	}
	e.mu.Unlock()

	for _, q := range queues {
		q.stop()
	}
	e.workers.Wait()
	e.inFlight.Wait()

	if err := e.emitter.Flush(context.Background()); err != nil {
		return err
	}
	e.emitter.Emit(lifecycleEvent("engine_stop"))
	return nil
}

// Snapshot returns the current access mode and reader count for every
// registered resource, keyed by tag name. It is safe to call at any time,
// including while the engine is running; the result is a best-effort
// point-in-time view, not a consistent cut across resources.
func (e *Engine) Snapshot() map[string]ResourceState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]ResourceState, len(e.queues))
	for name, t := range e.tags {
		q := e.queues[t]
		mode, readers := q.tracker.snapshot()
		out[name] = ResourceState{
			Mode:    mode.String(),
			Readers: readers,
			Pending: q.depth(),
		}
	}
	return out
}

// ResourceState is a point-in-time view of one resource, returned by
// Snapshot.
type ResourceState struct {
	// Mode is "MR", "R", or "N".
	Mode string
	// Readers is the number of concurrent readers holding the resource;
	// always 0 outside mode "R".
	Readers int
	// Pending is the number of instructions still queued on this resource.
	Pending int
}

// DrainOnce runs the engine synchronously to quiescence without spawning
// any worker goroutines: it repeatedly scans every resource for a claimable
// head instruction, fires it inline, restores its resources, and repeats
// until no resource can make progress. It is intended for tests, the
// inspection CLI, and any caller that wants fully deterministic, single
// goroutine execution rather than the concurrent worker model started by
// Start.
//
// DrainOnce must not be called concurrently with Start/Stop on the same
// Engine.
func (e *Engine) DrainOnce() {
	e.mu.RLock()
	queues := make([]*resourceQueue, 0, len(e.queues))
	for _, q := range e.queues {
		queues = append(queues, q)
	}
	e.mu.RUnlock()

	for {
		progressed := false
		for _, q := range queues {
			ins, _, ok := q.tryClaimHeadNonBlocking()
			if !ok {
				continue
			}
			progressed = true
			if ins.decrementAndIsZero() {
				e.fire(ins)
			}
		}
		if !progressed {
			return
		}
	}
}
