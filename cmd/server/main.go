package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/ticketly/seating-service/internal/config"
	"github.com/ticketly/seating-service/internal/database"
	"github.com/ticketly/seating-service/internal/handler"
	"github.com/ticketly/seating-service/internal/hold"
	"github.com/ticketly/seating-service/internal/middleware"
	"github.com/ticketly/seating-service/internal/queue"
	"github.com/ticketly/seating-service/internal/repository"
	"github.com/ticketly/seating-service/internal/router"
	"github.com/ticketly/seating-service/internal/service"
)

func main() {
	// Load .env when present; real environments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		// The hold registry is not optional: without it the expiry timers
		// cannot tell a live hold from a confirmed one.
		log.Fatal("redis: connection failed")
	}

	store := repository.NewSeatRepo(db)
	holds := hold.NewRedisRegistry(rdb)
	publisher := queue.NewPublisher(cfg.AMQPURL)

	coord := service.NewReservationCoordinator(store, holds, publisher, cfg.HoldTTL)
	sched := service.NewExpiryScheduler(store, holds, coord, cfg.SweepInterval)
	coord.SetExpiryArmer(sched)
	sched.Start()
	defer sched.Stop()

	proj := service.NewAvailabilityProjector(store)

	if cfg.ConsumerEnabled {
		go func() {
			if err := queue.StartSeatingConsumer(); err != nil {
				log.Printf("seating-consumer: %v", err)
			}
		}()
	}

	e := echo.New()
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterRoutes(e, handler.NewSeatingHandler(coord, proj), limit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, hold_ttl=%s, sweep=%s)", addr, cfg.Env, cfg.HoldTTL, cfg.SweepInterval)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
