package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/sepehrnz/go-storefront/internal/config"
	kafkax "github.com/sepehrnz/go-storefront/internal/kafka"
	"github.com/sepehrnz/go-storefront/internal/logger"
	"github.com/sepehrnz/go-storefront/internal/orders"
	"github.com/sepehrnz/go-storefront/internal/redisx"
	"github.com/sepehrnz/go-storefront/internal/statuscache"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zl, err := logger.New(cfg.Env, cfg.LogLevel, cfg.ServiceName+"-statuscache")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &statuscache.Service{
		Redis:       rdb,
		Cache:       &redisx.Cache{RDB: rdb},
		ServiceName: cfg.ServiceName + "-statuscache",
		Log:         zl,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.StatusCacheGroup,
		orders.TopicOrderStatusChanged, cfg.StatusCacheWorkers)

	go func() {
		zl.Info("status cache consumer started",
			zap.String("group", cfg.StatusCacheGroup),
			zap.String("topic", orders.TopicOrderStatusChanged),
			zap.Int("workers", cfg.StatusCacheWorkers))
		if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil {
			zl.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zl.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
