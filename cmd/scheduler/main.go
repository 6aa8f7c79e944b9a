package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/microlend/loan-engine/internal/config"
	"github.com/microlend/loan-engine/internal/notify"
	"github.com/microlend/loan-engine/internal/repository"
	"github.com/microlend/loan-engine/internal/service"
)

func main() {
	log.Println("Starting repayment scheduler...")

	// Optional; config falls back to real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	uow := repository.NewUnitOfWork(db)
	repos := repository.NewRepos(db)
	notifier := notify.NewRedisNotifier(redisClient, notify.DefaultChannel)

	scheduler := service.NewSchedulerService(uow, repos, notifier, redisClient, cfg)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	c := cron.New(cron.WithLocation(location))

	spec := "@every " + cfg.Scheduler.Interval
	_, err = c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GetSchedulerInterval())
		defer cancel()

		report, err := scheduler.TickWithLock(ctx)
		if err != nil {
			log.Printf("Tick failed: %v", err)
			return
		}

		log.Printf("Tick done: evaluated=%d reminders=%d deductions=%d insufficient=%d completed=%d",
			report.LoansEvaluated, report.RemindersSent, report.DeductionsApplied,
			report.InsufficientFunds, report.LoansCompleted)
	})
	if err != nil {
		log.Fatalf("Failed to schedule tick: %v", err)
	}

	c.Start()
	log.Printf("Scheduler started, tick every %s (%s)", cfg.Scheduler.Interval, cfg.Scheduler.Timezone)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Println("Scheduler stopped")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
