package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hperdana/go-commerce/internal/address"
	"github.com/hperdana/go-commerce/internal/adminstats"
	"github.com/hperdana/go-commerce/internal/cart"
	"github.com/hperdana/go-commerce/internal/catalog"
	"github.com/hperdana/go-commerce/internal/config"
	"github.com/hperdana/go-commerce/internal/httpx"
	kafkax "github.com/hperdana/go-commerce/internal/kafka"
	"github.com/hperdana/go-commerce/internal/orders"
	"github.com/hperdana/go-commerce/internal/postgres"
	"github.com/hperdana/go-commerce/internal/redisx"
	"github.com/hperdana/go-commerce/internal/reviews"
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

	// Kafka producers, one per topic
	prodCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, log)
	prodCreated.Start(ctx)
	prodStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024, log)
	prodStatus.Start(ctx)

	// Wiring
	catalogRepo := &catalog.Repo{DB: db}
	cartSvc := cart.NewService(&cart.RedisStore{Client: rdb}, catalogRepo)
	addrSvc := address.NewService(&address.Repo{DB: db})
	orderSvc := orders.NewService(&orders.Repo{DB: db}, cartSvc, addrSvc,
		prodCreated, prodStatus, log, cfg.ServiceName, cfg.TaxRate, cfg.ShippingCost)
	reviewSvc := reviews.NewService(&reviews.Repo{DB: db}, catalogRepo)

	srvHandlers := &httpx.Server{
		Cart:      cartSvc,
		Orders:    orderSvc,
		Catalog:   catalogRepo,
		Addresses: addrSvc,
		Reviews:   reviewSvc,
		Stats:     &adminstats.Service{DB: db},
		Log:       log,
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: srvHandlers.Router()}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prodCreated.Close() // close inbox -> flush & close writer
	prodStatus.Close()
	cancel() // stop producer loops
	prodCreated.WaitClosed()
	prodStatus.WaitClosed()
}
