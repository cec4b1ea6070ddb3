package leaderboard

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/poyingHAHA/distributed-sys-final/config"
	"github.com/poyingHAHA/distributed-sys-final/internal/team"
)

// LeaderboardRoutes sets up the ranking routes on top of an already
// constructed cache (shared with the score engine).
func LeaderboardRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, cache *Cache) {
	teamRepo := team.NewTeamRepository(db)
	service := NewService(cache, teamRepo)
	controller := NewLeaderboardController(service, appConfig)

	router.GET("/teams/rankings", controller.GetRankings)
}
