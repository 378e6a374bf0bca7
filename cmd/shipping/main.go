package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/config"
	kafkax "github.com/ariefcatur/go-warehouse-orders.git/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/logx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/redisx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/shipping"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := logx.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &shipping.Service{Redis: rdb, Log: logger}

	group := getenv("SHIPPING_GROUP", "shipping-svc")
	workers := getenvInt("SHIPPING_WORKERS", 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, warehouse.TopicOrderShipped, workers, logger)

	go func() {
		logger.Info("shipping consumer started",
			zap.String("group", group),
			zap.String("topic", warehouse.TopicOrderShipped),
			zap.Int("workers", workers))
		if err := cons.Start(ctx, svc.HandleOrderShipped); err != nil {
			logger.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
