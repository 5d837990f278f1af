package introspect

import "testing"

func TestSuggestTagOrdersByDistance(t *testing.T) {
	t.Parallel()

	known := []string{"weights", "gradients", "bias", "weight"}
	got := SuggestTag("weigth", known, 2)

	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %v", got)
	}
	if got[0] != "weight" && got[0] != "weights" {
		t.Errorf("expected the closest match first, got %v", got)
	}
}

func TestSuggestTagEmptyKnown(t *testing.T) {
	t.Parallel()

	if got := SuggestTag("x", nil, 3); got != nil {
		t.Errorf("expected nil suggestions for an empty known set, got %v", got)
	}
}
