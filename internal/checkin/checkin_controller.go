package checkin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poyingHAHA/distributed-sys-final/config"
	"github.com/poyingHAHA/distributed-sys-final/internal/middleware"
	"github.com/poyingHAHA/distributed-sys-final/internal/team"
	"github.com/poyingHAHA/distributed-sys-final/pkg/apperrors"
	"github.com/poyingHAHA/distributed-sys-final/pkg/responses"
	"github.com/poyingHAHA/distributed-sys-final/pkg/validator"
)

// ScoreTrigger submits a completed round for asynchronous scoring. Implemented
// by the scoring engine; injected here so the check-in response never waits on
// a score computation.
type ScoreTrigger interface {
	Submit(teamID uint, roundID int)
}

// CheckinController handles check-in HTTP requests.
type CheckinController struct {
	tracker   *RoundTracker
	teamRepo  team.TeamRepository
	repo      CheckinRepository
	trigger   ScoreTrigger
	appConfig *config.Config
}

func NewCheckinController(tracker *RoundTracker, teamRepo team.TeamRepository, repo CheckinRepository, trigger ScoreTrigger, appConfig *config.Config) *CheckinController {
	return &CheckinController{
		tracker:   tracker,
		teamRepo:  teamRepo,
		repo:      repo,
		trigger:   trigger,
		appConfig: appConfig,
	}
}

// --- DTOs ---

type CreateCheckinRequest struct {
	TeamID  uint   `json:"team_id" binding:"required"`
	PostURL string `json:"post_url" binding:"required,max=255"`
}

type CheckinResponse struct {
	CheckinID      uint      `json:"checkin_id"`
	TeamID         uint      `json:"team_id"`
	UserID         uint      `json:"user_id"`
	PostURL        string    `json:"post_url"`
	CheckinTime    time.Time `json:"checkin_time"`
	IsTeamComplete bool      `json:"is_team_complete"`
}

// CreateCheckin godoc
// @Summary Submit a check-in
// @Description Record a check-in for the authenticated user against a team's current round.
// @Tags Checkins
// @Accept json
// @Produce json
// @Param checkin body CreateCheckinRequest true "Check-in details"
// @Success 200 {object} responses.DataResponse
// @Failure 400 {object} apperrors.APIError
// @Failure 403 {object} apperrors.APIError
// @Failure 404 {object} apperrors.APIError
// @Failure 500 {object} apperrors.APIError
// @Router /checkin [post]
// @Security BearerAuth
func (cc *CheckinController) CreateCheckin(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidToken(""), cc.appConfig.App.Debug)
		return
	}

	var req CreateCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationFailed(validator.ParseError(err)), cc.appConfig.App.Debug)
		return
	}

	result, err := cc.tracker.RecordCheckin(userID, req.TeamID, req.PostURL)
	if err != nil {
		apperrors.Respond(c, err, cc.appConfig.App.Debug)
		return
	}

	// Scoring runs in the background; the response reports completion
	// without waiting for the score.
	if result.RoundComplete {
		cc.trigger.Submit(req.TeamID, result.CompletedRound)
	}

	responses.SendData(c, http.StatusOK, "Checkin successful", CheckinResponse{
		CheckinID:      result.Checkin.ID,
		TeamID:         result.Checkin.TeamID,
		UserID:         result.Checkin.UserID,
		PostURL:        result.Checkin.PostURL,
		CheckinTime:    result.Checkin.CheckinTime,
		IsTeamComplete: result.RoundComplete,
	})
}

// GetTeamCheckinStatus godoc
// @Summary Get team checkin status
// @Description Get the current day's check-in completion for a team.
// @Tags Checkins
// @Produce json
// @Param team_id path int true "Team ID"
// @Success 200 {object} responses.DataResponse
// @Failure 404 {object} apperrors.APIError
// @Router /checkin/status/{team_id} [get]
// @Security BearerAuth
func (cc *CheckinController) GetTeamCheckinStatus(c *gin.Context) {
	teamID64, err := strconv.ParseUint(c.Param("team_id"), 10, 32)
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationFailed(map[string]interface{}{"team_id": "must be a positive integer"}), cc.appConfig.App.Debug)
		return
	}
	teamID := uint(teamID64)

	t, err := cc.teamRepo.GetTeamByID(teamID)
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("get_team", err), cc.appConfig.App.Debug)
		return
	}
	if t == nil {
		apperrors.Respond(c, apperrors.TeamNotFound(teamID), cc.appConfig.App.Debug)
		return
	}

	todayStart := time.Now().UTC().Truncate(24 * time.Hour)

	totalMembers, err := cc.teamRepo.GetMemberCount(teamID)
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("count_members", err), cc.appConfig.App.Debug)
		return
	}
	checkedIn, err := cc.repo.CountDistinctUsersSince(teamID, todayStart)
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("count_checkins", err), cc.appConfig.App.Debug)
		return
	}

	completion := 0.0
	if totalMembers > 0 {
		completion = float64(checkedIn) / float64(totalMembers) * 100
	}

	responses.SendData(c, http.StatusOK, "Team checkin status retrieved", gin.H{
		"team_id":               teamID,
		"total_members":         totalMembers,
		"checked_in_members":    checkedIn,
		"completion_percentage": completion,
		"is_complete":           totalMembers == checkedIn,
	})
}
