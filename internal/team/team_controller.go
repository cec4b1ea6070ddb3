package team

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poyingHAHA/distributed-sys-final/config"
	"github.com/poyingHAHA/distributed-sys-final/internal/middleware"
	"github.com/poyingHAHA/distributed-sys-final/pkg/apperrors"
	"github.com/poyingHAHA/distributed-sys-final/pkg/responses"
	"github.com/poyingHAHA/distributed-sys-final/pkg/validator"
)

// TeamController handles team-related HTTP requests.
type TeamController struct {
	repo      TeamRepository
	appConfig *config.Config
}

// NewTeamController creates a new team controller.
func NewTeamController(repo TeamRepository, appConfig *config.Config) *TeamController {
	return &TeamController{
		repo:      repo,
		appConfig: appConfig,
	}
}

// --- DTOs for requests ---

type CreateTeamRequest struct {
	TeamName string `json:"team_name" binding:"required,min=1,max=100"`
}

// TeamResponse is the basic team view shared by create/list endpoints.
type TeamResponse struct {
	TeamID       uint    `json:"team_id"`
	TeamName     string  `json:"team_name"`
	CreatorID    uint    `json:"creator_id"`
	CurrentScore float64 `json:"current_score"`
	MemberCount  int64   `json:"member_count"`
}

// TeamDetailResponse adds the member list to the basic view.
type TeamDetailResponse struct {
	TeamResponse
	Members []MemberDetail `json:"members"`
}

// --- Team Handlers ---

// CreateTeam godoc
// @Summary Create a new team
// @Description Creates a new team and automatically joins the authenticated user as creator.
// @Tags Teams
// @Accept json
// @Produce json
// @Param team body CreateTeamRequest true "Team details"
// @Success 201 {object} responses.DataResponse
// @Failure 400 {object} apperrors.APIError
// @Failure 500 {object} apperrors.APIError
// @Router /teams [post]
// @Security BearerAuth
func (tc *TeamController) CreateTeam(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidToken(""), tc.appConfig.App.Debug)
		return
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationFailed(validator.ParseError(err)), tc.appConfig.App.Debug)
		return
	}

	newTeam := &Team{
		Name:      req.TeamName,
		CreatorID: userID,
		IsActive:  true,
	}
	if err := tc.repo.CreateTeamWithCreator(newTeam, userID); err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("create_team", err), tc.appConfig.App.Debug)
		return
	}

	responses.SendData(c, http.StatusCreated, "Team created successfully", TeamResponse{
		TeamID:       newTeam.ID,
		TeamName:     newTeam.Name,
		CreatorID:    newTeam.CreatorID,
		CurrentScore: 0.0,
		MemberCount:  1,
	})
}

// JoinTeam godoc
// @Summary Join team
// @Description Join an existing team. Joining a team twice is a no-op success.
// @Tags Teams
// @Produce json
// @Param team_id path int true "Team ID"
// @Success 200 {object} responses.DataResponse
// @Failure 404 {object} apperrors.APIError
// @Failure 500 {object} apperrors.APIError
// @Router /teams/{team_id}/join [post]
// @Security BearerAuth
func (tc *TeamController) JoinTeam(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidToken(""), tc.appConfig.App.Debug)
		return
	}

	teamID, err := parseTeamID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationFailed(map[string]interface{}{"team_id": "must be a positive integer"}), tc.appConfig.App.Debug)
		return
	}

	existing, err := tc.repo.GetTeamByID(teamID)
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("get_team", err), tc.appConfig.App.Debug)
		return
	}
	if existing == nil {
		apperrors.Respond(c, apperrors.TeamNotFound(teamID), tc.appConfig.App.Debug)
		return
	}

	created, err := tc.repo.AddTeamMember(&TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	})
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("join_team", err), tc.appConfig.App.Debug)
		return
	}

	message := "Successfully joined team"
	if !created {
		// Idempotent join: the duplicate is reported as a success with an
		// informational message rather than a conflict.
		message = "You are already a member of this team"
	}
	responses.SendData(c, http.StatusOK, message, gin.H{
		"team_id": teamID,
		"user_id": userID,
	})
}

// GetAllTeamNames godoc
// @Summary Get all team names
// @Description Get a list of all team names and IDs.
// @Tags Teams
// @Produce json
// @Success 200 {object} responses.DataResponse
// @Router /teams/all [get]
func (tc *TeamController) GetAllTeamNames(c *gin.Context) {
	teams, err := tc.repo.GetAllTeamNames()
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("list_team_names", err), tc.appConfig.App.Debug)
		return
	}

	list := make([]gin.H, 0, len(teams))
	for _, t := range teams {
		list = append(list, gin.H{"team_id": t.ID, "team_name": t.Name})
	}
	responses.SendData(c, http.StatusOK, "All team names retrieved successfully", list)
}

// GetTeamByID godoc
// @Summary Get team details
// @Description Get detailed information about a specific team, including members.
// @Tags Teams
// @Produce json
// @Param team_id path int true "Team ID"
// @Success 200 {object} responses.DataResponse
// @Failure 404 {object} apperrors.APIError
// @Router /teams/{team_id} [get]
func (tc *TeamController) GetTeamByID(c *gin.Context) {
	teamID, err := parseTeamID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.ValidationFailed(map[string]interface{}{"team_id": "must be a positive integer"}), tc.appConfig.App.Debug)
		return
	}

	t, err := tc.repo.GetTeamByID(teamID)
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("get_team", err), tc.appConfig.App.Debug)
		return
	}
	if t == nil {
		apperrors.Respond(c, apperrors.TeamNotFound(teamID), tc.appConfig.App.Debug)
		return
	}

	members, err := tc.repo.GetMemberDetails(teamID)
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("get_team_members", err), tc.appConfig.App.Debug)
		return
	}

	responses.SendData(c, http.StatusOK, "Team details retrieved successfully", TeamDetailResponse{
		TeamResponse: TeamResponse{
			TeamID:       t.ID,
			TeamName:     t.Name,
			CreatorID:    t.CreatorID,
			CurrentScore: t.CurrentScore,
			MemberCount:  int64(len(members)),
		},
		Members: members,
	})
}

// GetTeams godoc
// @Summary Get all teams
// @Description Get a paginated list of teams with optional search and sorting.
// @Tags Teams
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param search query string false "Filter by team name"
// @Param sort_by query string false "Sort field" Enums(name, score, members)
// @Param sort_desc query bool false "Sort descending" default(true)
// @Success 200 {object} responses.PaginatedResponse
// @Router /teams [get]
func (tc *TeamController) GetTeams(c *gin.Context) {
	page, size := parsePagination(c)
	search := c.Query("search")
	sortBy := c.Query("sort_by")
	sortDesc := c.DefaultQuery("sort_desc", "true") == "true"

	filter := ListFilter{NameSearch: search}

	total, err := tc.repo.CountTeams(filter)
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("count_teams", err), tc.appConfig.App.Debug)
		return
	}

	teams, err := tc.repo.ListTeams(filter, sortBy, sortDesc, (page-1)*size, size)
	if err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("list_teams", err), tc.appConfig.App.Debug)
		return
	}

	teamResponses := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		teamResponses = append(teamResponses, TeamResponse{
			TeamID:       t.ID,
			TeamName:     t.Name,
			CreatorID:    t.CreatorID,
			CurrentScore: t.CurrentScore,
			MemberCount:  t.MemberCount,
		})
	}

	responses.SendPaginated(c, http.StatusOK, "Teams retrieved successfully", teamResponses, total, page, size)
}

// --- helpers ---

func parseTeamID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("team_id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func parsePagination(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}
