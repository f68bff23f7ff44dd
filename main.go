package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"geo-duel-service/handlers"
	"geo-duel-service/middleware"
	"geo-duel-service/models"
	"geo-duel-service/services"
	"geo-duel-service/store"
	"geo-duel-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// 🔐 GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	originsList := strings.Split(allowedOrigins, ",")
	for i, origin := range originsList {
		originsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(originsList, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Player{},
		&models.QueueEntry{},
		&models.WorldMap{},
		&models.Location{},
		&models.Match{},
		&models.Round{},
		&models.EloHistory{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	cfg := services.DefaultConfig()

	sched, err := services.NewGocronScheduler()
	if err != nil {
		log.Fatal("failed to start task scheduler:", err)
	}
	defer sched.Shutdown()

	st := store.NewGormStore(db)
	hub := services.NewStreamHub()

	eloService := services.NewEloService(st, cfg)
	matchService := services.NewMatchService(st, sched, hub, eloService, cfg)
	creationService := services.NewMatchCreationService(st, sched, matchService, cfg)
	matchmakingService := services.NewMatchmakingService(st, creationService, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tickSeconds := 2
	if raw := os.Getenv("MATCHMAKING_TICK_SECONDS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			tickSeconds = parsed
		}
	}
	go workers.PollMatchmaking(ctx, matchmakingService, time.Duration(tickSeconds)*time.Second)

	handlers.SetupQueueRoutes(app, matchmakingService)
	handlers.SetupMatchRoutes(app, matchService, st, hub)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Printf("✅ Matchmaking ticking every %ds", tickSeconds)
	log.Println("✅ GatewayAuthMiddleware enforced globally")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
