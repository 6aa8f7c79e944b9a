package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/microlend/loan-engine/internal/config"
	"github.com/microlend/loan-engine/internal/handler"
	"github.com/microlend/loan-engine/internal/notify"
	"github.com/microlend/loan-engine/internal/pricing"
	"github.com/microlend/loan-engine/internal/repository"
	"github.com/microlend/loan-engine/internal/service"
	"github.com/microlend/loan-engine/pkg/response"
)

func main() {
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

	calc, err := pricing.NewCalculator(cfg)
	if err != nil {
		log.Fatalf("Failed to build pricing calculator: %v", err)
	}

	uow := repository.NewUnitOfWork(db)
	repos := repository.NewRepos(db)
	notifier := notify.NewRedisNotifier(redisClient, notify.DefaultChannel)

	lendingService := service.NewLendingService(uow, repos, calc, cfg)
	defaulterService := service.NewDefaulterService(uow, repos, notifier, redisClient, cfg)
	offsetService := service.NewOffsetService(uow, repos, notifier)

	lendingHandler := handler.NewLendingHandler(lendingService)
	collectionsHandler := handler.NewCollectionsHandler(defaulterService, offsetService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	router := setupRoutes(lendingHandler, collectionsHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
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

func setupRoutes(
	lendingHandler *handler.LendingHandler,
	collectionsHandler *handler.CollectionsHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/applications", lendingHandler.SubmitApplication).Methods("POST")
	api.HandleFunc("/applications/{id}", lendingHandler.GetApplication).Methods("GET")
	api.HandleFunc("/applications/{id}/payment-proof", lendingHandler.RecordUpfrontPayment).Methods("POST")
	api.HandleFunc("/applications/{id}/approve", lendingHandler.ApproveApplication).Methods("POST")
	api.HandleFunc("/applications/{id}/reject", lendingHandler.RejectApplication).Methods("POST")

	api.HandleFunc("/loans/{id}", lendingHandler.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{id}/offsets", collectionsHandler.RequestOffset).Methods("POST")
	api.HandleFunc("/loans/{id}/refund-request", collectionsHandler.RequestDepositRefund).Methods("POST")

	api.HandleFunc("/offsets", collectionsHandler.ListPendingOffsets).Methods("GET")
	api.HandleFunc("/offsets/{id}/decision", collectionsHandler.DecideOffset).Methods("POST")

	api.HandleFunc("/defaulters", collectionsHandler.ListDefaulters).Methods("GET")
	api.HandleFunc("/defaulters/{loanId}/contact", collectionsHandler.RecordContact).Methods("POST")
	api.HandleFunc("/defaulters/{loanId}/contacts", collectionsHandler.ListContacts).Methods("GET")
	api.HandleFunc("/defaulters/{loanId}/mark-paid", collectionsHandler.MarkAsPaid).Methods("POST")
	api.HandleFunc("/defaulters/{loanId}/suspend", collectionsHandler.Suspend).Methods("POST")
	api.HandleFunc("/defaulters/{loanId}/mark-defaulted", collectionsHandler.MarkDefaulted).Methods("POST")

	api.HandleFunc("/wallets/{borrowerId}/topup", lendingHandler.TopUpWallet).Methods("POST")

	return router
}
