package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-warehouse-orders.git/internal/config"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/logx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := logx.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	n, err := postgres.SeedProducts(ctx, db)
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	if n == 0 {
		logger.Info("products already present, nothing to do")
		return
	}
	logger.Info("seeded initial products", zap.Int("count", n))
}
