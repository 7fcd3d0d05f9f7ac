package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sepehrnz/go-storefront/internal/config"
	"github.com/sepehrnz/go-storefront/internal/httpx"
	kafkax "github.com/sepehrnz/go-storefront/internal/kafka"
	"github.com/sepehrnz/go-storefront/internal/logger"
	"github.com/sepehrnz/go-storefront/internal/orders"
	"github.com/sepehrnz/go-storefront/internal/postgres"
	"github.com/sepehrnz/go-storefront/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zl, err := logger.New(cfg.Env, cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := &redisx.Cache{RDB: rdb}

	// Kafka producers, one per topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)

	store := postgres.NewStore(db, cfg.LockTimeout)
	pub := &orders.KafkaPublisher{
		ProducerCreated: pCreated,
		ProducerStatus:  pStatus,
		Service:         cfg.ServiceName,
	}
	svc := orders.NewService(store, cache, pub, zl)

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Svc: svc, Store: store, Cache: cache, Log: zl}).Register(router)
	(&httpx.AdminHandler{Svc: svc, Store: store, Log: zl}).Register(router)
	(&httpx.ProductsHandler{Store: store}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		zl.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zl.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel() // stop producer loops, flush remaining messages
	pCreated.WaitClosed()
	pStatus.WaitClosed()
}
