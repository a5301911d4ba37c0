package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmadzakiakmal/order-engine/broker"
	"github.com/ahmadzakiakmal/order-engine/cache"
	"github.com/ahmadzakiakmal/order-engine/config"
	"github.com/ahmadzakiakmal/order-engine/logger"
	"github.com/ahmadzakiakmal/order-engine/repository"
	"github.com/ahmadzakiakmal/order-engine/server"
	"github.com/ahmadzakiakmal/order-engine/srvreg"
)

func main() {
	cfg := config.MustLoad()

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer logg.Sync()

	logg.Info("order engine starting", "http_port", cfg.HTTPServer.Port)

	// Database
	db, err := repository.Connect(cfg.Postgres.GetDSN(), logg)
	if err != nil {
		logg.Fatal("failed to connect to database", "err", err)
	}
	repo := repository.NewRepository(db, logg)
	if err := repo.Migrate(); err != nil {
		logg.Fatal("migration failed", "err", err)
	}

	// The cache must mirror the full store before the service takes
	// traffic; starting with an empty cache would silently serve an
	// inconsistent order list.
	orders, repoErr := repo.GetAllOrders()
	if repoErr != nil {
		logg.Fatal("failed to seed order cache", "code", repoErr.Code, "err", repoErr)
	}
	orderCache := cache.NewOrderCache(orders)
	logg.Info("order cache seeded", "orders", orderCache.Len())

	// Service registry and web server
	serviceRegistry := srvreg.NewServiceRegistry(repo, orderCache, logg)
	serviceRegistry.RegisterDefaultServices()

	webServer := server.NewWebServer(cfg.HTTPServer.Port, serviceRegistry, logg)
	if err := webServer.Start(); err != nil {
		logg.Fatal("failed to start web server", "err", err)
	}

	// Optional Kafka ingestion
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	var consumer *broker.Consumer
	if cfg.Kafka.Broker != "" {
		consumer = broker.NewConsumer(cfg.Kafka, repo, orderCache, logg)
		go consumer.Run(consumerCtx)
	}

	logg.Info("order engine ready", "addr", "http://localhost:"+cfg.HTTPServer.Port)

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutdown signal received")

	stopConsumer()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logg.Error("error closing consumer", "err", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := webServer.Shutdown(ctx); err != nil {
		logg.Error("error during server shutdown", "err", err)
	}

	logg.Info("order engine stopped")
}
