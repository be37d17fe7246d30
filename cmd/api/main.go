package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"freelancehub/internal/cache"
	"freelancehub/internal/config"
	"freelancehub/internal/handler"
	"freelancehub/internal/httpserver"
	"freelancehub/internal/mqhandler"
	"freelancehub/internal/repository"
	"freelancehub/internal/service/stats"
	"freelancehub/internal/tracker"
	"freelancehub/pkg/db"
	"freelancehub/pkg/logger"
	"freelancehub/pkg/mq"
	"freelancehub/pkg/outbox"
	"freelancehub/pkg/redis"
	"freelancehub/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting freelancehub API...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("redis_addr", cfg.Redis.Addr),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis
	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// MQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Outbox dispatcher
	outboxRepo := outbox.NewRepository(dbConn)
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)

	dispatcherCtx, dispatcherCancel := context.WithCancel(context.Background())
	defer dispatcherCancel()
	go dispatcher.Start(dispatcherCtx)

	// Repositories
	intervalRepo := repository.NewIntervalRepository(dbConn, outboxRepo, log)
	projectRepo := repository.NewProjectRepository(dbConn, log)
	paymentRepo := repository.NewPaymentRepository(dbConn, log)

	// Cache
	statsTTL := time.Duration(cfg.Cache.StatsTTLSeconds) * time.Second
	statsCache := cache.NewStatsCache(rdb, statsTTL, log)

	// Services
	trackerSvc := tracker.NewService(intervalRepo, tracker.RealClock{}, log)
	statsSvc := stats.NewService(projectRepo, intervalRepo, paymentRepo, statsCache, log)

	// MQ consumer for payment.recorded
	deduper := util.NewDeduper(rdb, 24*time.Hour, log)
	paymentHandler := mqhandler.NewPaymentRecordedHandler(paymentRepo, statsCache, deduper, log)

	consumer, err := mq.NewConsumer(cfg.MQ.URL, "payment.recorded.q", "payment.recorded", log)
	if err != nil {
		log.Fatal("Failed to init payment consumer", zap.Error(err))
	}
	consumer.SetHandler(paymentHandler.Handle)

	go func() {
		log.Info("Starting payment.recorded consumer...")
		if err := consumer.StartConsuming(); err != nil {
			log.Error("Payment consumer stopped", zap.Error(err))
		}
	}()

	// Handlers and router
	sessionHandler := handler.NewSessionHandler(trackerSvc, projectRepo, publisher, statsCache, log)
	statsHandler := handler.NewStatsHandler(statsSvc, log)

	router := httpserver.NewRouter(sessionHandler, statsHandler, dbConn, publisher)
	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("freelancehub API is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down freelancehub API gracefully...")

	consumer.Stop()
	dispatcherCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	publisher.Close()
	dbConn.Close()

	log.Info("freelancehub API shutdown complete")
}
