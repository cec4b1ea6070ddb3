package routes

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/poyingHAHA/distributed-sys-final/config"
	"github.com/poyingHAHA/distributed-sys-final/internal/auth"
	"github.com/poyingHAHA/distributed-sys-final/internal/checkin"
	"github.com/poyingHAHA/distributed-sys-final/internal/leaderboard"
	"github.com/poyingHAHA/distributed-sys-final/internal/middleware"
	"github.com/poyingHAHA/distributed-sys-final/internal/scoring"
	"github.com/poyingHAHA/distributed-sys-final/internal/team"
	"github.com/poyingHAHA/distributed-sys-final/pkg/apperrors"
)

// SetupRoutes wires the HTTP surface and the background score engine. The
// returned engine must be Closed on shutdown so in-flight score computations
// finish.
func SetupRoutes(db *gorm.DB, rdb *redis.Client, appConfig *config.Config) (*gin.Engine, *scoring.Engine) {
	if !appConfig.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		apperrors.Respond(c, apperrors.Unknown(fmt.Errorf("panic: %v", recovered), appConfig.App.Debug), appConfig.App.Debug)
	}))
	r.Use(cors.Default()) // allows all origins, GET/POST/PUT

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Welcome to Marketing Campaign API"})
	})

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Shared cache view, used by both the score engine and the rankings
	// endpoint.
	cache := leaderboard.NewCache(rdb)
	engine := scoring.NewEngine(db, cache, appConfig.Scoring.Workers, appConfig.Scoring.QueueSize)

	// API routes
	api := r.Group("/api")
	auth.RegisterAuthRoutes(api, db, appConfig)
	leaderboard.LeaderboardRoutes(api, db, appConfig, cache)
	team.TeamRoutes(api, db, appConfig)
	checkin.CheckinRoutes(api, db, appConfig, engine)

	return r, engine
}
