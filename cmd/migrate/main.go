package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/config"
	"github.com/matheusmosca/storefront/internal/logger"
	"github.com/matheusmosca/storefront/internal/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		zlog.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	for i := 0; ; i++ {
		if err := db.PingContext(ctx); err == nil {
			break
		} else if i == 29 {
			zlog.Fatal("Failed to reach database", zap.Error(err))
		}
		zlog.Info("⏳ Waiting for database...", zap.Int("attempt", i+1))
		time.Sleep(time.Second)
	}

	migrations, err := migrate.Embedded()
	if err != nil {
		zlog.Fatal("Failed to read migrations", zap.Error(err))
	}

	applied, err := migrate.Up(ctx, db, migrations)
	if err != nil {
		zlog.Fatal("❌ Migration failed", zap.Error(err))
	}
	zlog.Info("✅ Schema up to date", zap.Strings("applied", applied))
}
