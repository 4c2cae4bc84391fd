package main // Entry point package

import (
	"context" // Context for startup database calls
	"log"     // Logging library
	"time"    // Durations for session TTL

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/sourav8908/FLEX-QC-APP/internal/config"   // Internal config loader
	"github.com/sourav8908/FLEX-QC-APP/internal/database" // MySQL pool and schema bootstrap
	"github.com/sourav8908/FLEX-QC-APP/internal/handler"
	"github.com/sourav8908/FLEX-QC-APP/internal/queue" // Report event consumer
	"github.com/sourav8908/FLEX-QC-APP/internal/repository"
	"github.com/sourav8908/FLEX-QC-APP/internal/router" // Internal router setup
	queue_publisher "github.com/sourav8908/FLEX-QC-APP/internal/service"
	"github.com/sourav8908/FLEX-QC-APP/internal/suggest"
	"github.com/sourav8908/FLEX-QC-APP/internal/utils"
	"github.com/sourav8908/FLEX-QC-APP/internal/workflow"
)

func main() {
	// A missing .env file is fine; production supplies real env vars.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	adminHash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := database.SeedAdmin(ctx, db, adminHash); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	// Redis backs sessions, the dashboard cache and the login rate
	// limiter. All three degrade gracefully when the client is nil.
	rdb := config.NewRedisClient()

	userRepo := repository.NewUserRepo(db)
	reportRepo := repository.NewReportRepo(db)
	statusRepo := repository.NewDeviceStatusRepo(db)
	sessions := repository.NewSessionStore(rdb, time.Duration(cfg.SessionTTLMin)*time.Minute)

	engine := workflow.NewEngine(userRepo, reportRepo, statusRepo, queue_publisher.Publisher{})
	suggestClient := suggest.NewClient(cfg.SuggestURL)

	// No camera decoder is wired on the server build; the scan endpoint
	// reports the camera as unavailable and clients fall back to manual
	// device-id entry.
	sessionHandler := handler.NewSessionHandler(engine, sessions, suggestClient, nil, cfg)
	adminHandler := handler.NewAdminHandler(userRepo, cfg)
	dashboardHandler := handler.NewDashboardHandler(reportRepo, statusRepo)

	e := echo.New() // Create Echo instance
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e) // Health check
	router.RegisterSession(e, sessionHandler, rdb)
	router.RegisterAdmin(e, adminHandler, dashboardHandler, cfg.JWTSecret, rdb)

	// The consumer tails report.submitted into the audit log. It keeps
	// reconnecting on its own; a broker outage never blocks submits.
	go func() {
		if err := queue.StartReportConsumer(); err != nil {
			log.Printf("report consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
