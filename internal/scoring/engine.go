package scoring

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/poyingHAHA/distributed-sys-final/internal/checkin"
	"github.com/poyingHAHA/distributed-sys-final/internal/leaderboard"
	"github.com/poyingHAHA/distributed-sys-final/internal/team"
	"github.com/poyingHAHA/distributed-sys-final/pkg/apperrors"
)

type job struct {
	teamID  uint
	roundID int
}

// Engine runs score computations on a fixed pool of workers. Jobs hash to a
// worker queue by team id, so two rounds of the same team can never compute
// concurrently: round N's writes are always applied before round N+1's.
//
// Submission is fire-and-forget; a failed computation is logged and left for
// reconciliation (the round's check-ins exist with no history row), never
// propagated to the check-in request that triggered it.
type Engine struct {
	db    *gorm.DB
	cache *leaderboard.Cache

	queues []chan job
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// NewEngine starts the worker pool. workers and queueSize must be positive.
func NewEngine(db *gorm.DB, cache *leaderboard.Cache, workers, queueSize int) *Engine {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	e := &Engine{
		db:     db,
		cache:  cache,
		queues: make([]chan job, workers),
	}
	for i := range e.queues {
		e.queues[i] = make(chan job, queueSize)
		e.wg.Add(1)
		go e.worker(e.queues[i])
	}
	return e
}

func (e *Engine) worker(queue chan job) {
	defer e.wg.Done()
	for j := range queue {
		if err := e.ComputeScore(j.teamID, j.roundID); err != nil {
			log.Printf("scoring: team %d round %d failed: %v", j.teamID, j.roundID, err)
		}
	}
}

// Submit enqueues a score computation for a completed round. It never blocks
// the caller: when the team's queue is full the job is dropped with a log
// line, and the missing history row flags the round for reconciliation.
func (e *Engine) Submit(teamID uint, roundID int) {
	queue := e.queues[int(teamID)%len(e.queues)]
	select {
	case queue <- job{teamID: teamID, roundID: roundID}:
	default:
		log.Printf("scoring: queue full, dropping team %d round %d", teamID, roundID)
	}
}

// Close stops accepting work and waits for in-flight computations to finish.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		for _, q := range e.queues {
			close(q)
		}
	})
	e.wg.Wait()
}

// ComputeScore loads the completed round, evaluates the formula and commits
// the score update together with the round-history row. On success the new
// score is pushed to the leaderboard cache.
func (e *Engine) ComputeScore(teamID uint, roundID int) error {
	teamRepo := team.NewTeamRepository(e.db)
	checkinRepo := checkin.NewCheckinRepository(e.db)

	t, err := teamRepo.GetTeamByID(teamID)
	if err != nil {
		return apperrors.DatabaseOperationFailed("get_team", err)
	}
	if t == nil {
		return nil
	}

	checkins, err := checkinRepo.GetCheckins(teamID, roundID)
	if err != nil {
		return apperrors.DatabaseOperationFailed("get_round_checkins", err)
	}
	if len(checkins) == 0 {
		// Defensive: completion is only signalled for rounds with
		// check-ins, but an empty round must not write anything.
		return nil
	}

	input := RoundInput{
		CheckinTimes:   make([]time.Time, 0, len(checkins)),
		CurrentUsers:   make(map[uint]struct{}),
		PreviousUsers:  make(map[uint]struct{}),
		UserTeamCounts: make(map[uint]int64),
	}
	for _, ci := range checkins {
		input.CheckinTimes = append(input.CheckinTimes, ci.CheckinTime)
		input.CurrentUsers[ci.UserID] = struct{}{}
	}

	lastHistory, err := teamRepo.GetLastHistoryBefore(teamID, roundID)
	if err != nil {
		return apperrors.DatabaseOperationFailed("get_last_history", err)
	}
	if lastHistory != nil {
		previousCheckins, err := checkinRepo.GetCheckins(teamID, lastHistory.RoundID)
		if err != nil {
			return apperrors.DatabaseOperationFailed("get_previous_checkins", err)
		}
		for _, ci := range previousCheckins {
			input.PreviousUsers[ci.UserID] = struct{}{}
		}
	}

	for userID := range input.CurrentUsers {
		count, err := teamRepo.GetUserTeamCount(userID)
		if err != nil {
			return apperrors.DatabaseOperationFailed("get_user_team_count", err)
		}
		input.UserTeamCounts[userID] = count
	}

	score := CalculateScore(input)

	// Score update and history row commit or roll back together.
	err = teamRepo.WithTransaction(func(txRepo team.TeamRepository) error {
		if err := txRepo.UpdateScore(teamID, score); err != nil {
			return err
		}
		return txRepo.InsertHistory(&team.TeamCheckinHistory{
			TeamID:      teamID,
			CompletedAt: time.Now().UTC(),
			MemberCount: len(checkins),
			RoundID:     roundID,
		})
	})
	if err != nil {
		return apperrors.DatabaseOperationFailed("update_team_score", err)
	}

	memberCount, err := teamRepo.GetMemberCount(teamID)
	if err != nil {
		log.Printf("scoring: member count read failed for team %d: %v", teamID, err)
		memberCount = int64(len(input.CurrentUsers))
	}

	// Cache push is best effort; the rankings path backfills on miss.
	if err := e.cache.Upsert(context.Background(), leaderboard.Entry{
		TeamID:       teamID,
		TeamName:     t.Name,
		CreatorID:    t.CreatorID,
		CurrentScore: score,
		MemberCount:  memberCount,
	}); err != nil {
		log.Printf("scoring: cache update failed for team %d: %v", teamID, err)
	}

	return nil
}
