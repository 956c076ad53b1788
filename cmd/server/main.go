package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"drivepool/internal/app"
	"drivepool/internal/config"
	"drivepool/internal/handler"
	"drivepool/internal/outbox"
	internalRedis "drivepool/internal/redis"
	"drivepool/internal/repository/postgres"
	"drivepool/internal/scoring"
	"drivepool/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Initialize RabbitMQ for trip enrichment; optional in development.
	var rabbitConn *amqp.Connection
	if cfg.Rabbit.Enabled {
		rabbitConn, err = app.NewRabbitConnection(cfg.Rabbit)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer rabbitConn.Close()
		log.Println("Connected to RabbitMQ")
	}

	// Wire dependencies.
	server, scheduler, err := wireServer(ctx, db, redisClient, rabbitConn, nrApp, cfg)
	if err != nil {
		log.Fatalf("failed to wire server: %v", err)
	}

	// Run the enrichment consumer alongside the API.
	if rabbitConn != nil {
		workerCtx, workerCancel := context.WithCancel(context.Background())
		defer workerCancel()
		worker := outbox.NewWorker(rabbitConn, outbox.LogClassifier{}, outbox.LogCommentator{})
		go func() {
			if err := worker.Run(workerCtx); err != nil {
				log.Printf("enrichment worker stopped: %v", err)
			}
		}()
	}

	scheduler.Start()
	defer scheduler.Stop()

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// background job scheduler.
func wireServer(ctx context.Context, db *sql.DB, redisClient *redis.Client, rabbitConn *amqp.Connection, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *app.Scheduler, error) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	leaderboardStore := internalRedis.NewLeaderboardStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	pointRepo := postgres.NewPointRepository(db)
	poolRepo := postgres.NewPoolRepository(db)
	shareRepo := postgres.NewShareRepository(db)

	// Initialize the enrichment publisher.
	var publisher outbox.Publisher = outbox.NopPublisher{}
	if rabbitConn != nil {
		amqpPublisher, err := outbox.NewAMQPPublisher(rabbitConn)
		if err != nil {
			return nil, nil, err
		}
		publisher = amqpPublisher
	}

	thresholds := scoring.DefaultThresholds()
	thresholds.HardBrakeMS2 = cfg.Scoring.HardBrakeMS2
	thresholds.HardAccelMS2 = cfg.Scoring.HardAccelMS2
	thresholds.SpeedingMS = cfg.Scoring.SpeedingMS
	thresholds.SharpTurnDegPerS = cfg.Scoring.SharpTurnDegPerS

	// Initialize services.
	lifecycleService := service.NewLifecycleService(
		db, tripRepo, pointRepo, userRepo, poolRepo, shareRepo,
		publisher, cacheStore, thresholds,
	)
	poolService := service.NewPoolService(
		db, poolRepo, shareRepo, userRepo,
		cfg.Pool.MaxContributionCents, cfg.Pool.ProjectedRefundRate,
	)
	settlementService := service.NewSettlementService(db, poolRepo, shareRepo)
	leaderboardService := service.NewLeaderboardService(userRepo, leaderboardStore, cfg.Pool.LeaderboardMinTrips)
	userService := service.NewUserService(userRepo, cacheStore)

	// The pool row must exist before any contribution or trip completion.
	if _, err := poolService.EnsurePool(ctx); err != nil {
		return nil, nil, err
	}

	// Initialize handlers.
	tripHandler := handler.NewTripHandler(lifecycleService)
	poolHandler := handler.NewPoolHandler(poolService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
	userHandler := handler.NewUserHandler(userService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		TripHandler:        tripHandler,
		PoolHandler:        poolHandler,
		LeaderboardHandler: leaderboardHandler,
		UserHandler:        userHandler,
		RedisClient:        redisClient,
		NewRelicApp:        nrApp,
	})

	// Create the job scheduler.
	scheduler, err := app.NewScheduler(cfg.Jobs, lockStore, settlementService, leaderboardService)
	if err != nil {
		return nil, nil, err
	}

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return server, scheduler, nil
}
