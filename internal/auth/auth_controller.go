package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/poyingHAHA/distributed-sys-final/config"
	"github.com/poyingHAHA/distributed-sys-final/internal/middleware"
	"github.com/poyingHAHA/distributed-sys-final/internal/user"
	"github.com/poyingHAHA/distributed-sys-final/pkg/apperrors"
	"github.com/poyingHAHA/distributed-sys-final/pkg/responses"
	"github.com/poyingHAHA/distributed-sys-final/pkg/token"
	"github.com/poyingHAHA/distributed-sys-final/pkg/validator"
	"github.com/poyingHAHA/distributed-sys-final/utils"
)

type AuthController struct {
	repo   AuthRepository
	config *config.Config
}

func NewAuthController(repo AuthRepository, cfg *config.Config) *AuthController {
	return &AuthController{
		repo:   repo,
		config: cfg,
	}
}

// --- DTOs ---

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"required,max=100"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	UserID          uint       `json:"user_id"`
	Username        string     `json:"username"`
	Name            string     `json:"name"`
	LastCheckinTime *time.Time `json:"last_checkin_time"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        UserResponse `json:"user"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		UserID:          u.ID,
		Username:        u.Username,
		Name:            u.Name,
		LastCheckinTime: u.LastCheckinTime,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Create a new user with username, display name and password.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "User registration details"
// @Success 201 {object} responses.DataResponse
// @Failure 400 {object} apperrors.APIError
// @Failure 409 {object} apperrors.APIError
// @Router /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationFailed(validator.ParseError(err)), ac.config.App.Debug)
		return
	}

	if _, err := ac.repo.GetUserByUsername(req.Username); !errors.Is(err, gorm.ErrRecordNotFound) {
		if err == nil {
			apperrors.Respond(c, apperrors.UserExists(), ac.config.App.Debug)
		} else {
			apperrors.Respond(c, apperrors.DatabaseOperationFailed("get_user", err), ac.config.App.Debug)
		}
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		apperrors.Respond(c, apperrors.Unknown(err, ac.config.App.Debug), ac.config.App.Debug)
		return
	}

	newUser := &user.User{
		Username: req.Username,
		Password: hashed,
		Name:     req.Name,
	}
	if err := ac.repo.CreateUser(newUser); err != nil {
		apperrors.Respond(c, apperrors.DatabaseOperationFailed("create_user", err), ac.config.App.Debug)
		return
	}

	responses.SendData(c, http.StatusCreated, "User registered successfully", toUserResponse(newUser))
}

// Login godoc
// @Summary Log in
// @Description Authenticate with username and password, returns a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} responses.DataResponse
// @Failure 401 {object} apperrors.APIError
// @Router /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ValidationFailed(validator.ParseError(err)), ac.config.App.Debug)
		return
	}

	u, err := ac.repo.GetUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.InvalidCredentials("Incorrect username or password"), ac.config.App.Debug)
		} else {
			apperrors.Respond(c, apperrors.DatabaseOperationFailed("get_user", err), ac.config.App.Debug)
		}
		return
	}

	if !utils.CheckPassword(u.Password, req.Password) {
		apperrors.Respond(c, apperrors.InvalidCredentials("Incorrect username or password"), ac.config.App.Debug)
		return
	}

	expiryMinutes := ac.config.JWT.AccessTokenExpiryMinutes
	accessToken, err := token.GenerateJWT(u.ID, ac.config.JWT.AccessTokenSecret, expiryMinutes)
	if err != nil {
		apperrors.Respond(c, apperrors.Unknown(err, ac.config.App.Debug), ac.config.App.Debug)
		return
	}

	responses.SendData(c, http.StatusOK, "Login successful", TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   expiryMinutes * 60,
		User:        toUserResponse(u),
	})
}

// GetProfile godoc
// @Summary Get current user
// @Description Returns the authenticated user's profile.
// @Tags Auth
// @Produce json
// @Success 200 {object} responses.DataResponse
// @Failure 401 {object} apperrors.APIError
// @Router /auth/me [get]
// @Security BearerAuth
func (ac *AuthController) GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		apperrors.Respond(c, apperrors.InvalidToken(""), ac.config.App.Debug)
		return
	}

	u, err := ac.repo.GetUserByID(userID)
	if err != nil {
		// A user deleted after the middleware check holds a token for an
		// account that no longer exists.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.InvalidToken("User not found or inactive"), ac.config.App.Debug)
		} else {
			apperrors.Respond(c, apperrors.DatabaseOperationFailed("get_user", err), ac.config.App.Debug)
		}
		return
	}

	responses.SendData(c, http.StatusOK, "Profile retrieved successfully", toUserResponse(u))
}
