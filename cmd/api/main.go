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

	"github.com/ariefcatur/go-warehouse-orders.git/internal/config"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-warehouse-orders.git/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/logx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/postgres"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/redisx"
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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	prodCreated := kafkax.NewProducer(cfg.KafkaBrokers, warehouse.TopicOrderCreated, 1024, logger)
	prodCreated.Start(ctx)
	prodShipped := kafkax.NewProducer(cfg.KafkaBrokers, warehouse.TopicOrderShipped, 1024, logger)
	prodShipped.Start(ctx)

	// Calendar
	start := warehouse.Today()
	if cfg.StartDate != "" {
		start, err = warehouse.ParseDate(cfg.StartDate)
		if err != nil {
			logger.Fatal("WAREHOUSE_START_DATE", zap.Error(err))
		}
	}
	cal := warehouse.NewCalendar(start)

	eng := &warehouse.Engine{
		Store:    &postgres.Store{DB: db},
		Calendar: cal,
		Events: &warehouse.Emitter{
			Created: prodCreated,
			Shipped: prodShipped,
			Service: cfg.ServiceName,
		},
		Log: logger,
	}

	// Expiry sweep: active orders whose date has already passed.
	if n, err := eng.ExpireStaleOrders(ctx); err != nil {
		logger.Warn("expiry sweep failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("expired stale orders", zap.Int("count", n))
	}

	router := httpx.NewRouter()
	h := &httpx.Handler{Engine: eng, Redis: rdb, Log: logger}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Info("HTTP listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("current_date", cal.Current().String()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prodCreated.Close() // close inbox -> flush & close writer
	prodShipped.Close()
	cancel() // stop producer loops
	prodCreated.WaitClosed()
	prodShipped.WaitClosed()
}
