package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/corefit/studio-booking/internal/booking"
	"github.com/corefit/studio-booking/internal/clock"
	"github.com/corefit/studio-booking/internal/config"
	"github.com/corefit/studio-booking/internal/database"
	"github.com/corefit/studio-booking/internal/handler"
	"github.com/corefit/studio-booking/internal/middleware"
	"github.com/corefit/studio-booking/internal/queue"
	"github.com/corefit/studio-booking/internal/repository"
	"github.com/corefit/studio-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the availability response cache.
	// A nil client disables both; the booking engine does not need it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: rate limiting and response cache disabled")
	}

	memberRepo := repository.NewMemberRepo(db)
	packageRepo := repository.NewPackageRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	grantRepo := repository.NewGrantRepo(db)
	scheduleRepo := repository.NewScheduleRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	var resolver *booking.PriorityResolver
	if cfg.PriorityOrder != "" {
		table, err := booking.ParsePriority(cfg.PriorityOrder)
		if err != nil {
			log.Fatalf("PRIORITY_ORDER: %v", err)
		}
		resolver = booking.NewPriorityResolver(table)
	}

	clk := clock.NewSystem()
	svc := booking.NewService(repository.NewTxRunner(db), memberRepo, grantRepo, scheduleRepo, bookingRepo, resolver, clk)

	memberHandler := handler.NewMemberHandler(svc, bookingRepo, scheduleRepo)
	availabilityHandler := handler.NewAvailabilityHandler(svc)
	staffHandler := handler.NewStaffHandler(svc, memberRepo, packageRepo, orderRepo, grantRepo, scheduleRepo, bookingRepo, clk)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterMember(e, memberHandler, availabilityHandler, cfg.JWTSecret, cache)
	router.RegisterStaff(e, staffHandler, cfg.JWTSecret)

	// Background consumer appends booking events to logs/booking.log.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
