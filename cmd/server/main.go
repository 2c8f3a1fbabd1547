package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	webAdapter "cylinder-backoffice/internal/adapters/web"
	"cylinder-backoffice/internal/app"
	"cylinder-backoffice/internal/cache"
	"cylinder-backoffice/internal/core"
	"cylinder-backoffice/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	invoices := core.NewInvoiceService(pool)
	inventory := core.NewInventoryService(pool)
	checker := core.NewStockChecker(pool, inventory)
	linkage := core.NewLinkageResolver(pool)
	daily := core.NewDailySalesService(pool)
	effects := core.NewSideEffectRunner(pool, inventory, daily)
	sales := core.NewSaleService(pool, invoices, checker, linkage, effects)
	catalog := core.NewCatalogService(pool)
	notifications := core.NewNotificationService(pool)
	assignments := core.NewAssignmentService(pool, inventory, notifications)
	reporting := core.NewReportingService(pool, daily, inventory)

	stockCache := buildStockCache(ctx)

	svc := app.NewAppService(pool, sales, catalog, inventory, assignments, notifications, reporting, effects, stockCache)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	handler := webAdapter.NewHandler(svc)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler.Router()); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// buildStockCache connects to Redis when REDIS_ADDR is configured. The
// cache is an optimization; an unreachable Redis downgrades to reading
// stock levels straight from Postgres.
func buildStockCache(ctx context.Context) cache.StockCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid REDIS_DB %q, using 0", v)
		} else {
			redisDB = n
		}
	}
	c := cache.NewRedisStockCache(addr, os.Getenv("REDIS_PASSWORD"), redisDB)
	if err := c.Ping(ctx); err != nil {
		log.Printf("redis unavailable, stock cache disabled: %v", err)
		return nil
	}
	log.Printf("stock cache: redis at %s", addr)
	return c
}
