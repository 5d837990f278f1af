package engine

import "testing"

func TestDedupeTagsMutateWinsOverRead(t *testing.T) {
	t.Parallel()

	x := Tag{Name: "x"}
	y := Tag{Name: "y"}

	union, readOnly := dedupeTags([]Tag{x, y}, []Tag{x})

	if len(union) != 2 {
		t.Fatalf("expected union of 2 tags, got %d: %v", len(union), union)
	}
	if readOnly[x] {
		t.Errorf("x appears in both reads and mutates, should not be read-only")
	}
	if !readOnly[y] {
		t.Errorf("y is read-only and should be marked as such")
	}
}

func TestDedupeTagsRepeatsCollapse(t *testing.T) {
	t.Parallel()

	x := Tag{Name: "x"}
	union, _ := dedupeTags([]Tag{x, x}, []Tag{x})

	if len(union) != 1 {
		t.Fatalf("expected a single deduped tag, got %d", len(union))
	}
}

func TestNewAnonymousNameUnique(t *testing.T) {
	t.Parallel()

	a := newAnonymousName()
	b := newAnonymousName()
	if a == b {
		t.Errorf("expected distinct anonymous names, got %q twice", a)
	}
}
