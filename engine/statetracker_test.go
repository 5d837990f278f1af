package engine

import "testing"

func TestStateTrackerMutateExclusion(t *testing.T) {
	t.Parallel()

	s := newStateTracker()
	if !s.tryClaimMutate() {
		t.Fatal("first mutate claim on a fresh tracker should succeed")
	}
	if s.tryClaimMutate() {
		t.Error("second mutate claim should fail while a writer holds the resource")
	}
	if s.tryClaimRead() {
		t.Error("read claim should fail while a writer holds the resource")
	}

	s.restoreMutate()
	mode, readers := s.snapshot()
	if mode != modeMR || readers != 0 {
		t.Errorf("expected MR/0 after restore, got %v/%d", mode, readers)
	}
}

func TestStateTrackerConcurrentReaders(t *testing.T) {
	t.Parallel()

	s := newStateTracker()
	if !s.tryClaimRead() {
		t.Fatal("first read claim should succeed")
	}
	if !s.tryClaimRead() {
		t.Fatal("second concurrent read claim should succeed")
	}
	if s.tryClaimMutate() {
		t.Error("mutate claim should fail while readers hold the resource")
	}

	s.restoreRead()
	mode, readers := s.snapshot()
	if mode != modeR || readers != 1 {
		t.Fatalf("expected R/1 after one of two readers restores, got %v/%d", mode, readers)
	}

	s.restoreRead()
	mode, readers = s.snapshot()
	if mode != modeMR || readers != 0 {
		t.Fatalf("expected MR/0 after last reader restores, got %v/%d", mode, readers)
	}
}

func TestStateTrackerRestoreMutateWhileNotNPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected restoreMutate on an idle tracker to panic")
		}
	}()
	newStateTracker().restoreMutate()
}

func TestStateTrackerRestoreReadWhileNotRPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected restoreRead on an idle tracker to panic")
		}
	}()
	newStateTracker().restoreRead()
}
