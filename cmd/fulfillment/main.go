package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hperdana/go-commerce/internal/config"
	"github.com/hperdana/go-commerce/internal/fulfillment"
	kafkax "github.com/hperdana/go-commerce/internal/kafka"
	"github.com/hperdana/go-commerce/internal/orders"
	"github.com/hperdana/go-commerce/internal/postgres"
	"github.com/hperdana/go-commerce/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Status-changed events still go out when this service confirms orders.
	prodStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024, log)
	prodStatus.Start(ctx)

	// Confirming an order never touches the cart or addresses, so those
	// collaborators stay nil here.
	orderSvc := orders.NewService(&orders.Repo{DB: db}, nil, nil,
		nil, prodStatus, log, cfg.ServiceName+"-fulfillment", cfg.TaxRate, cfg.ShippingCost)

	svc := &fulfillment.Service{
		Orders: orderSvc,
		Dedup:  &redisx.Deduper{Client: rdb, Service: cfg.ServiceName + "-fulfillment"},
		Log:    log,
	}

	group := getenv("FULFILLMENT_GROUP", "fulfillment-svc")
	workers := mustAtoi(os.Getenv("FULFILLMENT_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderCreated, workers, log)

	go func() {
		log.Info("fulfillment consumer started",
			zap.String("group", group), zap.String("topic", orders.TopicOrderCreated), zap.Int("workers", workers))
		if err := cons.Start(ctx, svc.HandleOrderCreated); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	prodStatus.Close()
	prodStatus.WaitClosed()
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
