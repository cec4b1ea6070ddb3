package leaderboard

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewCache(rdb), mr
}

func entry(id uint, name string, score float64) Entry {
	return Entry{
		TeamID:       id,
		TeamName:     name,
		CreatorID:    id,
		CurrentScore: score,
		MemberCount:  3,
	}
}

func TestUpsertAndDetails(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	if err := cache.Upsert(ctx, entry(1, "alpha", 4.5)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, ok, err := cache.Details(ctx, 1)
	if err != nil {
		t.Fatalf("Details failed: %v", err)
	}
	if !ok {
		t.Fatal("expected details to exist")
	}
	if got.TeamName != "alpha" || got.CurrentScore != 4.5 || got.MemberCount != 3 {
		t.Errorf("unexpected entry: %+v", got)
	}

	// Overwrite with a new score; the old entry must be fully replaced.
	if err := cache.Upsert(ctx, entry(1, "alpha", 9.0)); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	got, _, err = cache.Details(ctx, 1)
	if err != nil {
		t.Fatalf("Details failed: %v", err)
	}
	if got.CurrentScore != 9.0 {
		t.Errorf("score after overwrite: expected 9.0, got %v", got.CurrentScore)
	}

	size, err := cache.Size(ctx)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 1 {
		t.Errorf("size: expected 1 after re-upsert, got %d", size)
	}
}

func TestDetailsMissing(t *testing.T) {
	cache, _ := setupCache(t)

	_, ok, err := cache.Details(context.Background(), 99)
	if err != nil {
		t.Fatalf("Details failed: %v", err)
	}
	if ok {
		t.Error("expected miss for unknown team")
	}
}

func TestRangeByRankOrderAndTieBreak(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	// Teams 10 and 2 share a score; ascending numeric id must win the tie,
	// even though "10" < "2" lexicographically.
	for _, e := range []Entry{
		entry(2, "b", 5.0),
		entry(10, "j", 5.0),
		entry(7, "g", 8.0),
		entry(4, "d", 1.0),
	} {
		if err := cache.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	got, err := cache.RangeByRank(ctx, 0, 3)
	if err != nil {
		t.Fatalf("RangeByRank failed: %v", err)
	}

	wantIDs := []uint{7, 2, 10, 4}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d rows, got %d", len(wantIDs), len(got))
	}
	for i, want := range wantIDs {
		if got[i].TeamID != want {
			t.Errorf("position %d: expected team %d, got %d", i, want, got[i].TeamID)
		}
	}
}

func TestRangeByRankWindow(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	for i := uint(1); i <= 5; i++ {
		if err := cache.Upsert(ctx, entry(i, "t", float64(i))); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	got, err := cache.RangeByRank(ctx, 1, 2)
	if err != nil {
		t.Fatalf("RangeByRank failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].TeamID != 4 || got[1].TeamID != 3 {
		t.Errorf("window [1,2]: expected teams 4,3, got %d,%d", got[0].TeamID, got[1].TeamID)
	}
}

func TestRangeByMinScore(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	for i := uint(1); i <= 5; i++ {
		if err := cache.Upsert(ctx, entry(i, "t", float64(i))); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	got, err := cache.RangeByMinScore(ctx, 3.0, 0, 9)
	if err != nil {
		t.Fatalf("RangeByMinScore failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("min=3: expected 3 rows, got %d", len(got))
	}
	if got[0].TeamID != 5 || got[2].TeamID != 3 {
		t.Errorf("expected teams 5..3 descending, got %+v", got)
	}
}
