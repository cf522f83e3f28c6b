package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pulse-service/config"
	"pulse-service/internal/api"
	"pulse-service/internal/backend"
	"pulse-service/internal/broker"
	"pulse-service/internal/identity"
	"pulse-service/internal/redisclient"
	"pulse-service/internal/service"
	"pulse-service/internal/store"
	"pulse-service/internal/util"
	"pulse-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting pulse service")

	tp, err := util.InitTracer("pulse-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	var volatileStore backend.Store
	var prober backend.Prober
	if cfg.Pulse.UseRedisBackend {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Pulse.ReservationTTL)
		if err != nil {
			// Volatile backend is optional; the selector falls back to SQL.
			log.Printf("Redis unavailable, continuing with SQL backend only: %v", err)
		} else {
			defer redisClient.Close()
			volatileStore = redisClient
			prober = redisClient
			log.Println("Redis connected")
		}
	}

	selector := backend.NewSelector(db, volatileStore, prober, cfg.Pulse.UseRedisBackend)
	hasher := identity.NewHasher(cfg.Pulse.IdentitySecret)

	liveStateService := service.NewLiveStateService(selector, db, hasher, cfg.Pulse)
	reservationService := service.NewReservationService(selector, hasher, cfg.Pulse)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	sweeper := worker.NewSweeper(db, cfg.Pulse)
	go sweeper.Run(workerCtx)

	cartConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCart, cfg.Kafka.ConsumerGroup)
	cartWorker := worker.NewCartWorker(cartConsumer, reservationService)
	go func() {
		if err := cartWorker.Start(workerCtx); err != nil {
			log.Printf("Cart worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(liveStateService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	cartWorker.Stop()

	log.Println("Server exited")
}
