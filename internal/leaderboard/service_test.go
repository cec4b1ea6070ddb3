package leaderboard

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/poyingHAHA/distributed-sys-final/internal/team"
)

func setupServiceTest(t *testing.T) (*Service, team.TeamRepository, *miniredis.Miniredis) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&team.Team{}, &team.TeamMember{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	repo := team.NewTeamRepository(db)
	return NewService(NewCache(rdb), repo), repo, mr
}

// seedTeams creates count teams with scores 1.0, 2.0, ... and one member each
// (the creator). Team i gets score float64(i).
func seedTeams(t *testing.T, repo team.TeamRepository, count int) {
	t.Helper()

	for i := 1; i <= count; i++ {
		newTeam := &team.Team{
			Name:         fmt.Sprintf("team-%d", i),
			CreatorID:    uint(i),
			IsActive:     true,
			CurrentScore: float64(i),
		}
		if err := repo.CreateTeamWithCreator(newTeam, uint(i)); err != nil {
			t.Fatalf("CreateTeamWithCreator failed: %v", err)
		}
	}
}

func TestGetRankingsColdCacheBackfills(t *testing.T) {
	svc, repo, _ := setupServiceTest(t)
	seedTeams(t, repo, 5)

	rankings, total, err := svc.GetRankings(context.Background(), 1, 3, nil)
	if err != nil {
		t.Fatalf("GetRankings failed: %v", err)
	}
	if len(rankings) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rankings))
	}
	for i, want := range []uint{5, 4, 3} {
		row := rankings[i]
		if row.TeamID != want {
			t.Errorf("rank %d: expected team %d, got %d", i+1, want, row.TeamID)
		}
		if row.Rank != i+1 {
			t.Errorf("team %d: expected rank %d, got %d", row.TeamID, i+1, row.Rank)
		}
		if row.TeamName == "" {
			t.Errorf("team %d: backfilled row has empty name", row.TeamID)
		}
		if row.MemberCount != 1 {
			t.Errorf("team %d: expected member count 1, got %d", row.TeamID, row.MemberCount)
		}
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}

	// The miss must have warmed the cache: a second call resolves every row
	// from Redis without gaps.
	rankings, _, err = svc.GetRankings(context.Background(), 1, 3, nil)
	if err != nil {
		t.Fatalf("second GetRankings failed: %v", err)
	}
	if len(rankings) != 3 || rankings[0].TeamID != 5 {
		t.Errorf("warm read: expected teams 5,4,3, got %+v", rankings)
	}
}

func TestGetRankingsSecondPageWindow(t *testing.T) {
	svc, repo, _ := setupServiceTest(t)
	seedTeams(t, repo, 30)

	rankings, total, err := svc.GetRankings(context.Background(), 2, 10, nil)
	if err != nil {
		t.Fatalf("GetRankings failed: %v", err)
	}
	if total != 30 {
		t.Errorf("expected total 30, got %d", total)
	}
	if len(rankings) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rankings))
	}
	if rankings[0].Rank != 11 || rankings[9].Rank != 20 {
		t.Errorf("expected ranks 11..20, got %d..%d", rankings[0].Rank, rankings[9].Rank)
	}
	// Scores 30..1 descending, so page 2 starts at score 20.
	if rankings[0].TeamID != 20 || rankings[9].TeamID != 11 {
		t.Errorf("expected teams 20..11, got %d..%d", rankings[0].TeamID, rankings[9].TeamID)
	}
}

func TestGetRankingsMinScoreFilter(t *testing.T) {
	svc, repo, _ := setupServiceTest(t)
	seedTeams(t, repo, 10)

	minScore := 7.0
	rankings, total, err := svc.GetRankings(context.Background(), 1, 20, &minScore)
	if err != nil {
		t.Fatalf("GetRankings failed: %v", err)
	}
	if len(rankings) != 4 {
		t.Fatalf("min_score=7: expected 4 rows, got %d", len(rankings))
	}
	if total != 4 {
		t.Errorf("min_score=7: expected total 4, got %d", total)
	}
	for _, row := range rankings {
		if row.CurrentScore < minScore {
			t.Errorf("team %d: score %v below filter", row.TeamID, row.CurrentScore)
		}
	}
}

func TestGetRankingsResolvesMissingDetails(t *testing.T) {
	svc, repo, mr := setupServiceTest(t)
	seedTeams(t, repo, 3)

	// Index all three teams but drop one attribute hash, simulating a partial
	// cache wipe. The row must still come back fully resolved.
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		err := svc.cache.Upsert(ctx, Entry{
			TeamID:       uint(i),
			TeamName:     fmt.Sprintf("team-%d", i),
			CreatorID:    uint(i),
			CurrentScore: float64(i),
			MemberCount:  1,
		})
		if err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}
	mr.Del("team:2")

	rankings, _, err := svc.GetRankings(ctx, 1, 3, nil)
	if err != nil {
		t.Fatalf("GetRankings failed: %v", err)
	}
	if len(rankings) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rankings))
	}
	for i, want := range []uint{3, 2, 1} {
		if rankings[i].TeamID != want {
			t.Errorf("rank %d: expected team %d, got %d", i+1, want, rankings[i].TeamID)
		}
		if rankings[i].TeamName == "" {
			t.Errorf("team %d: unresolved row served with empty name", rankings[i].TeamID)
		}
	}

	// The repaired hash must be back in the cache.
	if !mr.Exists("team:2") {
		t.Error("expected team:2 hash to be backfilled")
	}
}

func TestGetRankingsCacheOutageFallsBack(t *testing.T) {
	svc, repo, mr := setupServiceTest(t)
	seedTeams(t, repo, 4)

	// Every Redis command fails from here on; rankings must still be
	// answered from the repository.
	mr.SetError("connection refused")

	rankings, total, err := svc.GetRankings(context.Background(), 1, 3, nil)
	if err != nil {
		t.Fatalf("GetRankings during cache outage failed: %v", err)
	}
	if len(rankings) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rankings))
	}
	for i, want := range []uint{4, 3, 2} {
		if rankings[i].TeamID != want {
			t.Errorf("rank %d: expected team %d, got %d", i+1, want, rankings[i].TeamID)
		}
		if rankings[i].TeamName == "" {
			t.Errorf("team %d: row served with empty name", rankings[i].TeamID)
		}
	}
	if total != 4 {
		t.Errorf("expected total 4, got %d", total)
	}
}

func TestGetRankingsEmptyLeaderboard(t *testing.T) {
	svc, _, _ := setupServiceTest(t)

	rankings, total, err := svc.GetRankings(context.Background(), 1, 20, nil)
	if err != nil {
		t.Fatalf("GetRankings failed: %v", err)
	}
	if len(rankings) != 0 {
		t.Errorf("expected no rows, got %d", len(rankings))
	}
	if total != 0 {
		t.Errorf("expected total 0, got %d", total)
	}
}
