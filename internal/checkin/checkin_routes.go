package checkin

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/poyingHAHA/distributed-sys-final/config"
	mw "github.com/poyingHAHA/distributed-sys-final/internal/middleware"
	"github.com/poyingHAHA/distributed-sys-final/internal/team"
)

// CheckinRoutes sets up check-in routes. The score trigger is the background
// engine constructed in the router so check-ins share it with the leaderboard
// cache.
func CheckinRoutes(router *gin.RouterGroup, db *gorm.DB, appConfig *config.Config, trigger ScoreTrigger) {
	tracker := NewRoundTracker(db)
	teamRepo := team.NewTeamRepository(db)
	checkinRepo := NewCheckinRepository(db)
	controller := NewCheckinController(tracker, teamRepo, checkinRepo, trigger, appConfig)

	authRoutes := router.Group("/")
	authRoutes.Use(mw.AuthMiddleware(appConfig.JWT.AccessTokenSecret, db))
	{
		authRoutes.POST("/checkin", controller.CreateCheckin)
		authRoutes.GET("/checkin/status/:team_id", controller.GetTeamCheckinStatus)
	}
}
