package checkin

import (
	"time"

	"gorm.io/gorm"

	"github.com/poyingHAHA/distributed-sys-final/internal/team"
	"github.com/poyingHAHA/distributed-sys-final/pkg/apperrors"
)

// RoundTracker records check-ins and decides when a team's current round is
// complete. Every RecordCheckin call runs inside a single transaction, so a
// failed round advance never leaves a dangling check-in behind.
type RoundTracker struct {
	db *gorm.DB
}

func NewRoundTracker(db *gorm.DB) *RoundTracker {
	return &RoundTracker{db: db}
}

// CheckinResult reports the outcome of one check-in.
type CheckinResult struct {
	Checkin        *Checkin
	RoundComplete  bool
	CompletedRound int
}

// RecordCheckin appends a check-in for the team's current round and, when the
// distinct checked-in user count reaches the member count, advances the round.
//
// The advance is a conditional update on the round id the caller observed, so
// two check-ins racing to complete the same round serialize on the WHERE
// clause: exactly one caller gets RoundComplete=true and owns triggering the
// score computation for CompletedRound.
func (rt *RoundTracker) RecordCheckin(userID, teamID uint, postURL string) (*CheckinResult, error) {
	result := &CheckinResult{}

	err := rt.db.Transaction(func(tx *gorm.DB) error {
		teamRepo := team.NewTeamRepository(tx)
		checkinRepo := NewCheckinRepository(tx)

		t, err := teamRepo.GetTeamByID(teamID)
		if err != nil {
			return apperrors.DatabaseOperationFailed("get_team", err)
		}
		if t == nil {
			return apperrors.TeamNotFound(teamID)
		}

		isMember, err := teamRepo.IsUserTeamMember(teamID, userID)
		if err != nil {
			return apperrors.DatabaseOperationFailed("check_membership", err)
		}
		if !isMember {
			return apperrors.NotTeamMember(userID, teamID)
		}

		now := time.Now().UTC()
		newCheckin := &Checkin{
			TeamID:      teamID,
			UserID:      userID,
			PostURL:     postURL,
			CheckinTime: now,
			RoundID:     t.CurrentRoundID,
		}
		if err := checkinRepo.InsertCheckin(newCheckin); err != nil {
			return apperrors.DatabaseOperationFailed("create_checkin", err)
		}

		if err := tx.Table("users").Where("id = ?", userID).
			Update("last_checkin_time", now).Error; err != nil {
			return apperrors.DatabaseOperationFailed("update_last_checkin", err)
		}

		totalMembers, err := teamRepo.GetMemberCount(teamID)
		if err != nil {
			return apperrors.DatabaseOperationFailed("count_members", err)
		}
		checkedIn, err := checkinRepo.CountDistinctUsers(teamID, t.CurrentRoundID)
		if err != nil {
			return apperrors.DatabaseOperationFailed("count_checkins", err)
		}

		result.Checkin = newCheckin
		if totalMembers == 0 || checkedIn < totalMembers {
			return nil
		}

		advanced, err := teamRepo.AdvanceRound(teamID, t.CurrentRoundID)
		if err != nil {
			return apperrors.DatabaseOperationFailed("advance_round", err)
		}
		if advanced {
			result.RoundComplete = true
			result.CompletedRound = t.CurrentRoundID
		}
		// advanced==false means a concurrent check-in already moved the
		// round on; that caller owns the completion signal.
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
