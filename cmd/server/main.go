package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prsentinel/internal/cache"
	"prsentinel/internal/config"
	"prsentinel/internal/repository"
	"prsentinel/internal/service"
	"prsentinel/internal/transport/rest"
	"prsentinel/internal/transport/ws"
	"prsentinel/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()
	log.Printf("Generation config:")
	log.Printf("  Base URL: %s", cfg.Gen.BaseURL)
	log.Printf("  Model:    %s", cfg.Gen.Model)
	log.Printf("Social media endpoint: %s", cfg.SocialMediaURL)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "prsentinel"
	}
	db := mongoClient.Database(dbName)

	// Redis connection
	redisAddr := cfg.RedisAddr
	// Remove redis:// prefix if present
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	signalRepo := repository.NewSignalRepo(db)
	workflowRepo := repository.NewWorkflowRepo(db)
	txnRepo := repository.NewTransactionRepo(db)
	reviewRepo := repository.NewReviewRepo(db)

	// Initialize caches
	statusCache := cache.NewWorkflowCache(rdb)

	// Initialize services
	authSvc := service.NewAuthService()
	generator := service.NewOllamaGenerator(cfg.Gen)
	publisher := service.NewSocialClient(cfg.SocialMediaURL)
	verifier := service.NewVerificationService(txnRepo, reviewRepo, generator)
	drafter := service.NewDraftService(generator)
	workflowSvc := service.NewWorkflowService(workflowRepo, signalRepo, verifier, drafter, publisher, statusCache)

	// Pipeline worker pool
	pool := worker.NewPool(4, 64)
	pool.Start()

	intakeSvc := service.NewIntakeService(signalRepo, workflowRepo, workflowSvc, pool)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	workflowSvc.SetBroadcaster(wsHub)
	intakeSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:     authSvc,
		IntakeService:   intakeSvc,
		WorkflowService: workflowSvc,
		TransactionRepo: txnRepo,
		ReviewRepo:      reviewRepo,
		SignalRepo:      signalRepo,
		WorkflowRepo:    workflowRepo,
		WSHub:           wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/sentiment")
		log.Println("  POST /v1/auth/login")
		log.Println("  GET  /v1/workflows")
		log.Println("  GET  /v1/workflows/{id}")
		log.Println("  GET  /v1/workflows/{id}/status")
		log.Println("  POST /v1/workflows/{id}/approve")
		log.Println("  POST /v1/workflows/{id}/escalate")
		log.Println("  POST /v1/workflows/{id}/discard")
		log.Println("  GET  /v1/sentiments /v1/transactions /v1/reviews")
		log.Println("  WS   /v1/ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// Cancel in-flight pipeline jobs and wait for the workers to exit.
	pool.Stop()

	log.Println("Server exited")
}
