package store

import (
	"context"
	"testing"
	"time"
)

func TestMemStoreRegisterAndReadTags(t *testing.T) {
	t.Parallel()

	s := NewMemStore()
	ctx := context.Background()

	if err := s.RegisterTags(ctx, []string{"x", "y"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	tags, err := s.Tags(ctx)
	if err != nil {
		t.Fatalf("tags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", tags)
	}
}

func TestMemStoreRecentRollupsNewestFirst(t *testing.T) {
	t.Parallel()

	s := NewMemStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.RecordRollup(ctx, Rollup{Tag: "x", QueueDepth: i, RecordedAt: time.Now()}); err != nil {
			t.Fatalf("record rollup %d: %v", i, err)
		}
	}

	rollups, err := s.RecentRollups(ctx, 2)
	if err != nil {
		t.Fatalf("recent rollups: %v", err)
	}
	if len(rollups) != 2 {
		t.Fatalf("expected 2 rollups, got %d", len(rollups))
	}
	if rollups[0].QueueDepth != 2 || rollups[1].QueueDepth != 1 {
		t.Errorf("expected newest-first ordering, got %+v", rollups)
	}
}
