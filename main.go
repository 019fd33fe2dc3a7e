// File: walkly/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"walkly/config"
	"walkly/cron"
	"walkly/database"
	schedulerRepo "walkly/database/repository/scheduler"
	"walkly/handlers"
	"walkly/middleware"
	"walkly/routes"
	"walkly/services/booking"
	"walkly/services/location"
	"walkly/services/route"
	"walkly/services/travel"
	"walkly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitTravelCache()
	utils.InitLocationStore()
	utils.InitLockStore()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	repo := schedulerRepo.NewMongoSchedulerRepo()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure indexes: %v", err)
		}
		cancel()
	}

	// services.
	provider := travel.NewGoogleProvider(config.AppConfig.GoogleAPIKey, config.ProviderTimeout())
	oracle := travel.NewOracle(
		provider,
		travel.NewRedisEstimateCache(utils.GetTravelCacheClient()),
		travel.Options{
			ProviderTimeout:    config.ProviderTimeout(),
			DynamicPairTTL:     config.DynamicPairTTL(),
			FixedPairTTL:       config.FixedPairTTL(),
			FallbackTTL:        config.FallbackTTL(),
			FallbackMinPerMile: config.AppConfig.TravelFallbackMinPerMi,
		},
		logger,
	)

	liveStore := location.NewRedisLiveStore(
		utils.GetLocationClient(),
		time.Duration(config.AppConfig.LiveLocationStaleMin)*time.Minute,
	)

	slotService := &booking.DefaultSlotGenerator{
		Repo:   repo,
		Oracle: oracle,
		Live:   liveStore,
		Opts: booking.GeneratorOptions{
			Step:        time.Duration(config.AppConfig.SlotStepMin) * time.Minute,
			Buffer:      time.Duration(config.AppConfig.SlotBufferMin) * time.Minute,
			TightMargin: time.Duration(config.AppConfig.SlotTightMarginMin) * time.Minute,
			LiveHorizon: time.Duration(config.AppConfig.SlotLiveHorizonMin) * time.Minute,
		},
		Logger: logger,
	}

	detector := &booking.DefaultConflictDetector{
		Repo:   repo,
		Buffer: time.Duration(config.AppConfig.SlotBufferMin) * time.Minute,
	}

	coordinator := &booking.DefaultCoordinator{
		Repo:     repo,
		Detector: detector,
		Locks:    booking.NewRedisKeyLock(utils.GetLockClient()),
		Opts: booking.CoordinatorOptions{
			IdempotencyTTL: time.Duration(config.AppConfig.IdempotencyTTLHours) * time.Hour,
			LockTTL:        30 * time.Second,
			PollInterval:   200 * time.Millisecond,
			PollTimeout:    10 * time.Second,
		},
		Logger: logger,
	}

	optimizer := &route.DefaultOptimizer{
		Repo:   repo,
		Oracle: oracle,
		Logger: logger,
	}

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		GetAvailabilityHandler:        handlers.GetAvailability(slotService),
		CreateRecurringBookingHandler: handlers.CreateRecurringBooking(coordinator),
		OptimizeRouteHandler:          handlers.OptimizeRoute(optimizer, repo),
		ReportLocationHandler:         handlers.ReportLocation(liveStore),
		HealthHandler:                 handlers.Health(),
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Background travel-cache warm-up: worker plus nightly scheduler.
	queueOpt := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
	cron.InitWarmupWorker(repo, oracle, logger)
	asynqClient := asynq.NewClient(queueOpt)
	defer asynqClient.Close()
	cron.ScheduleNightlyWarmups(asynqClient, repo, logger)

	utils.StartHealthMonitor([]*redis.Client{
		utils.GetTravelCacheClient(),
		utils.GetLocationClient(),
		utils.GetLockClient(),
	}, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
