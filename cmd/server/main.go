package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/user-identity-service/internal/config"
	"github.com/iliyamo/user-identity-service/internal/database"
	"github.com/iliyamo/user-identity-service/internal/handler"
	"github.com/iliyamo/user-identity-service/internal/queue"
	"github.com/iliyamo/user-identity-service/internal/repository"
	"github.com/iliyamo/user-identity-service/internal/router"
	"github.com/iliyamo/user-identity-service/internal/service"
)

func main() {
	// Load a local .env if present; real deployments set the environment
	// directly and this is a no-op there.
	_ = godotenv.Load()

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// May be nil; the cache middleware degrades to a pass-through then.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, profile cache disabled")
	}

	// Background welcome-notification consumer.
	go queue.StartRegisteredConsumer()

	users := repository.NewUserRepo(db)
	creds := service.NewCredentials(cfg.BcryptCost, cfg.HashWorkers)
	h := handler.NewUserHandler(cfg, cacheCfg, users, creds, rdb)

	e := echo.New()
	router.RegisterRoutes(e, h, cacheCfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
