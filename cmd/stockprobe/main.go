// Command stockprobe hammers one product with concurrent add-to-cart calls
// from several users and reports how many reservations the service granted.
// With a stock of N it should never grant more than N units.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/apperr"
	"github.com/matheusmosca/storefront/internal/client"
	"github.com/matheusmosca/storefront/internal/logger"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "storefront base URL")
	productID := flag.Int64("product", 1, "product id to reserve")
	firstUser := flag.Int64("first-user", 1, "first user id; workers use consecutive ids")
	workers := flag.Int("workers", 10, "concurrent users")
	qty := flag.Int("qty", 1, "quantity per add")
	cleanup := flag.Bool("cleanup", true, "remove granted lines afterwards to restore stock")
	flag.Parse()

	zlog, err := logger.New("development")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()
	c := client.New(*baseURL, 10*time.Second)
	if err := c.Health(ctx); err != nil {
		zlog.Fatal("Storefront is not healthy", zap.Error(err))
	}

	var granted, rejected, failed atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := c.AddToCart(ctx, userID, *productID, *qty)
			switch {
			case err == nil:
				granted.Add(1)
			case errors.Is(err, apperr.ErrInsufficientStock):
				rejected.Add(1)
			default:
				failed.Add(1)
				zlog.Warn("Add to cart failed", zap.Int64("user_id", userID), zap.Error(err))
			}
		}(*firstUser + int64(i))
	}
	wg.Wait()

	zlog.Info("📊 Probe finished",
		zap.Int64("product_id", *productID),
		zap.Int64("granted", granted.Load()),
		zap.Int64("units_granted", granted.Load()*int64(*qty)),
		zap.Int64("insufficient_stock", rejected.Load()),
		zap.Int64("errors", failed.Load()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !*cleanup {
		return
	}
	for i := 0; i < *workers; i++ {
		userID := *firstUser + int64(i)
		if _, err := c.RemoveFromCart(ctx, userID, *productID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			zlog.Warn("Cleanup failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
}
