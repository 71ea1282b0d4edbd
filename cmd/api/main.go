package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samiro/storefront/internal/catalogcache"
	"github.com/samiro/storefront/internal/checkout"
	"github.com/samiro/storefront/internal/config"
	"github.com/samiro/storefront/internal/database"
	"github.com/samiro/storefront/internal/messaging"
	"github.com/samiro/storefront/internal/payment"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	rdb, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Error("connect to redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
		logger.Info("catalog cache enabled")
	}

	var producer *messaging.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = producer.Close() }()
		logger.Info("order event publishing enabled", "topic", cfg.Kafka.Topic)
	}

	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey)
	svc := checkout.NewService(db, checkout.NewCatalogOracle(db), gateway, cfg.Stripe.Currency, logger)

	srv := &server{
		db:       db,
		cache:    catalogcache.New(rdb, logger),
		checkout: svc,
		producer: producer,
		logger:   logger,
	}

	mux := http.NewServeMux()
	srv.routes(mux)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting api server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
