package engine

import "sync"

// accessMode is one of the three access modes a resource can be in.
type accessMode int

const (
	// modeMR is idle: any next instruction, reader or writer, may run.
	modeMR accessMode = iota
	// modeR is reading: k >= 1 concurrent readers hold the resource.
	modeR
	// modeN is no-access: a single writer holds the resource exclusively.
	modeN
)

func (m accessMode) String() string {
	switch m {
	case modeMR:
		return "MR"
	case modeR:
		return "R"
	case modeN:
		return "N"
	default:
		return "?"
	}
}

// stateTracker is the mutex-protected state machine for one resource. It is
// the only synchronized part of the engine: its critical section is the
// entire justification for per-resource locking rather than a global lock.
//
// Legal transitions, performed by tryClaimMutate/tryClaimRead:
//
//	MR -> N      on claim by a writer
//	MR -> R(1)   on first claim by a reader
//	R(k) -> R(k+1) on concurrent reader claim
//
// Legal restores, performed by restoreMutate/restoreRead:
//
//	N    -> MR   on writer completion
//	R(k) -> R(k-1), for k > 1, on reader completion
//	R(1) -> MR   on last reader completion
//
// Forbidden: N->N, N->R, R->N. A claim that would need one of these leaves
// the state untouched and returns false. A restore issued in the wrong mode
// is an engine bug, not a caller mistake, and restoreMutate/restoreRead
// panic rather than return an error.
type stateTracker struct {
	mu    sync.Mutex
	state accessMode
	// readers counts concurrent readers; zero whenever state != modeR.
	readers int
}

// newStateTracker returns a tracker initialized to MR, the only legal
// starting state for a freshly registered resource.
func newStateTracker() *stateTracker {
	return &stateTracker{state: modeMR}
}

// tryClaimMutate attempts MR -> N. It returns true and performs the
// transition iff the current state is MR; otherwise it leaves the state
// untouched and returns false. This is the mutate-side half of the claiming
// rule in spec §4.1.
func (s *stateTracker) tryClaimMutate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != modeMR {
		return false
	}
	s.state = modeN
	return true
}

// tryClaimRead attempts MR -> R(1) or R(k) -> R(k+1). It returns true and
// performs the transition iff the current state is MR or R; if the state is
// N it leaves it untouched and returns false. This is the read-only half of
// the claiming rule in spec §4.1.
func (s *stateTracker) tryClaimRead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case modeMR:
		s.state = modeR
		s.readers = 1
		return true
	case modeR:
		s.readers++
		return true
	default: // modeN
		return false
	}
}

// restoreMutate reverses a writer's claim: N -> MR. Panics if the tracker is
// not currently in N, which can only happen from an engine bug (a restore
// issued for a tag the instruction never actually claimed as a writer).
func (s *stateTracker) restoreMutate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != modeN {
		panic(&EngineError{Message: ErrInvalidRestore.Error(), Code: "INVALID_RESTORE", Cause: ErrInvalidRestore})
	}
	s.state = modeMR
}

// restoreRead reverses one reader's claim: R(k) -> R(k-1), or R(1) -> MR
// for the last reader. Panics if the tracker is not currently in R.
func (s *stateTracker) restoreRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != modeR {
		panic(&EngineError{Message: ErrInvalidRestore.Error(), Code: "INVALID_RESTORE", Cause: ErrInvalidRestore})
	}
	s.readers--
	if s.readers == 0 {
		s.state = modeMR
	}
}

// snapshot returns the current mode and reader count without mutating
// anything, for introspection (Engine.Snapshot) and metrics/events.
func (s *stateTracker) snapshot() (accessMode, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.readers
}
