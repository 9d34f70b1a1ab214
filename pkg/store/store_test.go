package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	cfg.Path = filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCacheKeyNormalization(t *testing.T) {
	if got := CacheKey("algorithms", "  Binary Search "); got != "algorithms:binary search" {
		t.Errorf("CacheKey = %q", got)
	}
}

func TestProblemRoundTrip(t *testing.T) {
	s := openTestStore(t, DefaultConfig())
	ctx := context.Background()

	if _, ok, err := s.GetProblem(ctx, "algorithms:sorting"); err != nil || ok {
		t.Fatalf("miss = %v, %v", ok, err)
	}

	payload := []byte(`{"title":"Sort It"}`)
	if err := s.PutProblem(ctx, "algorithms:sorting", payload); err != nil {
		t.Fatalf("PutProblem: %v", err)
	}
	got, ok, err := s.GetProblem(ctx, "algorithms:sorting")
	if err != nil || !ok || string(got) != string(payload) {
		t.Fatalf("GetProblem = %q, %v, %v", got, ok, err)
	}

	// Upsert replaces.
	if err := s.PutProblem(ctx, "algorithms:sorting", []byte(`{"title":"v2"}`)); err != nil {
		t.Fatalf("PutProblem: %v", err)
	}
	got, _, _ = s.GetProblem(ctx, "algorithms:sorting")
	if string(got) != `{"title":"v2"}` {
		t.Errorf("after upsert = %q", got)
	}

	if err := s.DeleteProblem(ctx, "algorithms:sorting"); err != nil {
		t.Fatalf("DeleteProblem: %v", err)
	}
	if _, ok, _ := s.GetProblem(ctx, "algorithms:sorting"); ok {
		t.Error("problem survived delete")
	}
}

func TestOldestProblemsEvictedAtCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProblems = 3
	s := openTestStore(t, cfg)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("math:topic-%d", i)
		if err := s.PutProblem(ctx, key, []byte("{}")); err != nil {
			t.Fatalf("PutProblem %s: %v", key, err)
		}
		now = now.Add(time.Minute)
	}

	keys, err := s.ProblemKeys(ctx)
	if err != nil {
		t.Fatalf("ProblemKeys: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("keys = %v, want 3 entries", keys)
	}
	// The two oldest are gone; survivors are ordered oldest first.
	want := []string{"math:topic-2", "math:topic-3", "math:topic-4"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], k)
		}
	}
}

func TestReputRefreshesAge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProblems = 2
	s := openTestStore(t, cfg)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return now }

	s.PutProblem(ctx, "a", []byte("{}"))
	now = now.Add(time.Minute)
	s.PutProblem(ctx, "b", []byte("{}"))

	// Re-put "a" so it becomes the newest, then add a third key.
	now = now.Add(time.Minute)
	s.PutProblem(ctx, "a", []byte("{}"))
	now = now.Add(time.Minute)
	s.PutProblem(ctx, "c", []byte("{}"))

	if _, ok, _ := s.GetProblem(ctx, "b"); ok {
		t.Error("b should have been evicted as oldest")
	}
	if _, ok, _ := s.GetProblem(ctx, "a"); !ok {
		t.Error("a was evicted despite being refreshed")
	}
}

func TestHistory(t *testing.T) {
	s := openTestStore(t, DefaultConfig())
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return now }

	s.AppendHistory(ctx, HistoryEntry{Title: "Two Sum", Subject: "algorithms"})
	now = now.Add(time.Hour)
	s.AppendHistory(ctx, HistoryEntry{Title: "Boyle's Law", Subject: "science"})

	entries, err := s.ListHistory(ctx, 10)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Title != "Boyle's Law" {
		t.Errorf("newest first, got %q", entries[0].Title)
	}
	if entries[0].Completed {
		t.Error("entry born completed")
	}

	if err := s.MarkCompleted(ctx, entries[0].ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	entries, _ = s.ListHistory(ctx, 1)
	if !entries[0].Completed {
		t.Error("MarkCompleted did not stick")
	}
}
