package team

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/poyingHAHA/distributed-sys-final/internal/user"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&user.User{}, &Team{}, &TeamMember{}, &TeamCheckinHistory{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestCreateTeamWithCreator(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepository(db)

	newTeam := &Team{Name: "alpha", CreatorID: 7, IsActive: true}
	if err := repo.CreateTeamWithCreator(newTeam, 7); err != nil {
		t.Fatalf("CreateTeamWithCreator failed: %v", err)
	}
	if newTeam.ID == 0 {
		t.Fatal("expected team id to be assigned")
	}

	count, err := repo.GetMemberCount(newTeam.ID)
	if err != nil {
		t.Fatalf("GetMemberCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("member count: expected 1, got %d", count)
	}

	isMember, err := repo.IsUserTeamMember(newTeam.ID, 7)
	if err != nil {
		t.Fatalf("IsUserTeamMember failed: %v", err)
	}
	if !isMember {
		t.Error("creator should be a member of the new team")
	}
}

func TestAddTeamMemberIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepository(db)

	newTeam := &Team{Name: "alpha", CreatorID: 1, IsActive: true}
	if err := repo.CreateTeamWithCreator(newTeam, 1); err != nil {
		t.Fatalf("CreateTeamWithCreator failed: %v", err)
	}

	created, err := repo.AddTeamMember(&TeamMember{TeamID: newTeam.ID, UserID: 2, JoinedAt: time.Now()})
	if err != nil {
		t.Fatalf("first AddTeamMember failed: %v", err)
	}
	if !created {
		t.Error("first join should create a row")
	}

	created, err = repo.AddTeamMember(&TeamMember{TeamID: newTeam.ID, UserID: 2, JoinedAt: time.Now()})
	if err != nil {
		t.Fatalf("second AddTeamMember failed: %v", err)
	}
	if created {
		t.Error("second join should be a no-op")
	}

	count, err := repo.GetMemberCount(newTeam.ID)
	if err != nil {
		t.Fatalf("GetMemberCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("member count: expected 2 (creator + joiner), got %d", count)
	}
}

func TestAdvanceRoundAtMostOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepository(db)

	newTeam := &Team{Name: "alpha", CreatorID: 1, IsActive: true}
	if err := repo.CreateTeamWithCreator(newTeam, 1); err != nil {
		t.Fatalf("CreateTeamWithCreator failed: %v", err)
	}

	// Two callers observed round 0 as complete; only one advance may win.
	first, err := repo.AdvanceRound(newTeam.ID, 0)
	if err != nil {
		t.Fatalf("first AdvanceRound failed: %v", err)
	}
	second, err := repo.AdvanceRound(newTeam.ID, 0)
	if err != nil {
		t.Fatalf("second AdvanceRound failed: %v", err)
	}

	if !first {
		t.Error("first conditional advance should win")
	}
	if second {
		t.Error("second conditional advance on the same round must lose")
	}

	got, err := repo.GetTeamByID(newTeam.ID)
	if err != nil {
		t.Fatalf("GetTeamByID failed: %v", err)
	}
	if got.CurrentRoundID != 1 {
		t.Errorf("current round: expected 1, got %d", got.CurrentRoundID)
	}
}

func TestGetLastHistoryBefore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepository(db)

	newTeam := &Team{Name: "alpha", CreatorID: 1, IsActive: true}
	if err := repo.CreateTeamWithCreator(newTeam, 1); err != nil {
		t.Fatalf("CreateTeamWithCreator failed: %v", err)
	}

	h, err := repo.GetLastHistoryBefore(newTeam.ID, 5)
	if err != nil {
		t.Fatalf("GetLastHistoryBefore failed: %v", err)
	}
	if h != nil {
		t.Fatal("expected nil history for a team with no completed rounds")
	}

	for _, round := range []int{0, 1, 2} {
		if err := repo.InsertHistory(&TeamCheckinHistory{
			TeamID:      newTeam.ID,
			CompletedAt: time.Now(),
			MemberCount: 3,
			RoundID:     round,
		}); err != nil {
			t.Fatalf("InsertHistory round %d failed: %v", round, err)
		}
	}

	h, err = repo.GetLastHistoryBefore(newTeam.ID, 2)
	if err != nil {
		t.Fatalf("GetLastHistoryBefore failed: %v", err)
	}
	if h == nil || h.RoundID != 1 {
		t.Fatalf("expected history for round 1, got %+v", h)
	}
}

func TestListTeamsByScoreOrderAndTieBreak(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepository(db)

	scores := []float64{5.0, 9.0, 5.0, 1.0}
	for i, s := range scores {
		newTeam := &Team{Name: "team", CreatorID: uint(i + 1), IsActive: true, CurrentScore: s}
		if err := repo.CreateTeamWithCreator(newTeam, uint(i+1)); err != nil {
			t.Fatalf("CreateTeamWithCreator failed: %v", err)
		}
	}

	teams, err := repo.ListTeamsByScore(nil, 0, 10)
	if err != nil {
		t.Fatalf("ListTeamsByScore failed: %v", err)
	}
	if len(teams) != 4 {
		t.Fatalf("expected 4 teams, got %d", len(teams))
	}

	// 9.0, then the two 5.0 teams in id order, then 1.0.
	wantIDs := []uint{2, 1, 3, 4}
	for i, want := range wantIDs {
		if teams[i].ID != want {
			t.Errorf("position %d: expected team %d, got %d (score %.1f)", i, want, teams[i].ID, teams[i].CurrentScore)
		}
	}

	min := 5.0
	filtered, err := repo.ListTeamsByScore(&min, 0, 10)
	if err != nil {
		t.Fatalf("filtered ListTeamsByScore failed: %v", err)
	}
	if len(filtered) != 3 {
		t.Errorf("min_score=5: expected 3 teams, got %d", len(filtered))
	}

	total, err := repo.CountTeams(ListFilter{MinScore: &min})
	if err != nil {
		t.Fatalf("CountTeams failed: %v", err)
	}
	if total != 3 {
		t.Errorf("filtered count: expected 3, got %d", total)
	}
}

func TestGetUserTeamCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTeamRepository(db)

	for i := 0; i < 3; i++ {
		newTeam := &Team{Name: "team", CreatorID: 1, IsActive: true}
		if err := repo.CreateTeamWithCreator(newTeam, 1); err != nil {
			t.Fatalf("CreateTeamWithCreator failed: %v", err)
		}
	}

	count, err := repo.GetUserTeamCount(1)
	if err != nil {
		t.Fatalf("GetUserTeamCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 teams for user 1, got %d", count)
	}
}
