package leaderboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/poyingHAHA/distributed-sys-final/config"
	"github.com/poyingHAHA/distributed-sys-final/pkg/apperrors"
	"github.com/poyingHAHA/distributed-sys-final/pkg/responses"
)

// LeaderboardController serves ranking queries.
type LeaderboardController struct {
	service   *Service
	appConfig *config.Config
}

func NewLeaderboardController(service *Service, appConfig *config.Config) *LeaderboardController {
	return &LeaderboardController{
		service:   service,
		appConfig: appConfig,
	}
}

// GetRankings godoc
// @Summary Get team rankings
// @Description Get paginated team rankings sorted by score descending.
// @Tags Teams
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param min_score query number false "Only include teams with score >= min_score"
// @Success 200 {object} responses.PaginatedResponse
// @Failure 400 {object} apperrors.APIError
// @Failure 500 {object} apperrors.APIError
// @Router /teams/rankings [get]
func (lc *LeaderboardController) GetRankings(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		apperrors.Respond(c, apperrors.ValidationFailed(map[string]interface{}{"page": "must be an integer >= 1"}), lc.appConfig.App.Debug)
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 || size > 100 {
		apperrors.Respond(c, apperrors.ValidationFailed(map[string]interface{}{"size": "must be an integer in [1, 100]"}), lc.appConfig.App.Debug)
		return
	}

	var minScore *float64
	if raw := c.Query("min_score"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			apperrors.Respond(c, apperrors.ValidationFailed(map[string]interface{}{"min_score": "must be a number >= 0"}), lc.appConfig.App.Debug)
			return
		}
		minScore = &parsed
	}

	rankings, total, err := lc.service.GetRankings(c.Request.Context(), page, size, minScore)
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("get_rankings", err), lc.appConfig.App.Debug)
		return
	}

	responses.SendPaginated(c, http.StatusOK, "Team rankings retrieved successfully", rankings, total, page, size)
}
