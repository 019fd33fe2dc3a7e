package cron

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"walkly/config"
	schedulerRepo "walkly/database/repository/scheduler"
	"walkly/models"
	"walkly/services/tasks"
	"walkly/services/travel"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitWarmupWorker runs the async warm-up worker in the background. Each task
// walks one walker's next-day stops in time order and asks the oracle for
// every leg, so morning availability lookups hit a warm cache.
func InitWarmupWorker(repo schedulerRepo.SchedulerRepository, oracle travel.Estimator, logger *zap.Logger) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeTravelWarmup, handleWarmupTask(repo, oracle, logger))

	go func() {
		logger.Info("starting travel warm-up worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("warm-up worker failed to start",
					zap.Int("attempt", attempts), zap.Error(err))
				if attempts == maxAttempts {
					logger.Fatal("warm-up worker exhausted start attempts")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleWarmupTask(repo schedulerRepo.SchedulerRepository, oracle travel.Estimator, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.WarmupPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid warm-up payload", zap.Error(err))
			return err
		}

		day, err := time.ParseInLocation("2006-01-02", p.Date, time.Local)
		if err != nil {
			logger.Error("invalid warm-up date", zap.String("date", p.Date), zap.Error(err))
			return nil
		}

		bookings, err := repo.GetBookingsInRange(ctx, p.WalkerID, day, day.AddDate(0, 0, 1))
		if err != nil {
			return err
		}
		if len(bookings) == 0 {
			return nil
		}

		origin := models.Location{}
		if walker, err := repo.GetWalker(ctx, p.WalkerID); err == nil && walker != nil {
			origin = walker.HomeBase
		}

		warmed := 0
		for _, b := range bookings {
			if !origin.IsZero() {
				if _, err := oracle.Estimate(ctx, origin, b.Location, b.Start); err != nil {
					return err
				}
				warmed++
			}
			origin = b.Location
		}

		logger.Info("travel cache warmed",
			zap.String("walkerID", p.WalkerID),
			zap.String("date", p.Date),
			zap.Int("legs", warmed))
		return nil
	}
}

// ScheduleNightlyWarmups enqueues one warm-up task per walker holding
// bookings tomorrow, once per day at the configured hour.
func ScheduleNightlyWarmups(client *asynq.Client, repo schedulerRepo.SchedulerRepository, logger *zap.Logger) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for now := range ticker.C {
			if now.Hour() != config.AppConfig.WarmupHour {
				continue
			}

			tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			ids, err := repo.WalkerIDsWithBookings(ctx, tomorrow, tomorrow.AddDate(0, 0, 1))
			cancel()
			if err != nil {
				logger.Error("failed to list walkers for warm-up", zap.Error(err))
				continue
			}

			for _, id := range ids {
				task, opts, err := tasks.NewTravelWarmupTask(tasks.WarmupPayload{
					WalkerID: id,
					Date:     tomorrow.Format("2006-01-02"),
				}, now)
				if err != nil {
					logger.Error("failed to build warm-up task", zap.Error(err))
					continue
				}
				if _, err := client.Enqueue(task, opts...); err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
					logger.Error("failed to enqueue warm-up task",
						zap.String("walkerID", id), zap.Error(err))
				}
			}
			logger.Info("nightly warm-up enqueued",
				zap.String("date", tomorrow.Format("2006-01-02")),
				zap.Int("walkers", len(ids)))
		}
	}()
}
