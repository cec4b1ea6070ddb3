package main

import (
	"log"

	_ "github.com/poyingHAHA/distributed-sys-final/docs"

	"github.com/poyingHAHA/distributed-sys-final/config"
	"github.com/poyingHAHA/distributed-sys-final/internal/checkin"
	"github.com/poyingHAHA/distributed-sys-final/internal/team"
	"github.com/poyingHAHA/distributed-sys-final/internal/user"
	"github.com/poyingHAHA/distributed-sys-final/routes"
)

// @title Marketing Campaign API
// @version 1.0
// @description Team check-in tracking with round scoring and a Redis-backed leaderboard.
// @host localhost:8000
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := config.Initialize(); err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	cfg := config.GetConfig()

	err := config.DB.AutoMigrate(
		&user.User{},
		&team.Team{}, &team.TeamMember{}, &team.TeamCheckinHistory{},
		&checkin.Checkin{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
	log.Println("AutoMigrate successful")

	rdb, err := config.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	r, scoreEngine := routes.SetupRoutes(config.DB, rdb, cfg)
	defer scoreEngine.Close()

	log.Printf("Starting server on port %s in %s mode\n", cfg.App.Port, cfg.App.Env)
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
