package team

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/poyingHAHA/distributed-sys-final/config"
	mw "github.com/poyingHAHA/distributed-sys-final/internal/middleware"
)

// TeamRoutes sets up all team-related routes.
func TeamRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config) {
	teamRepo := NewTeamRepository(db)
	teamController := NewTeamController(teamRepo, appConfig)

	// Public team routes
	router.GET("/teams", teamController.GetTeams)
	router.GET("/teams/all", teamController.GetAllTeamNames)
	router.GET("/teams/:team_id", teamController.GetTeamByID)

	// Authenticated routes
	authRoutes := router.Group("/")
	authRoutes.Use(mw.AuthMiddleware(appConfig.JWT.AccessTokenSecret, db))
	{
		authRoutes.POST("/teams", teamController.CreateTeam)
		authRoutes.POST("/teams/:team_id/join", teamController.JoinTeam)
	}
}
