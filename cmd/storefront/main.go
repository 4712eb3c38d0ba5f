package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lahorneada/storefront/internal/cart"
	"github.com/lahorneada/storefront/internal/catalog"
	"github.com/lahorneada/storefront/internal/checkout"
	"github.com/lahorneada/storefront/internal/checkout/journal"
	journalsqlite "github.com/lahorneada/storefront/internal/checkout/journal/sqlite"
	"github.com/lahorneada/storefront/internal/config"
	"github.com/lahorneada/storefront/internal/gateway"
	"github.com/lahorneada/storefront/internal/history"
	"github.com/lahorneada/storefront/internal/httpx"
	"github.com/lahorneada/storefront/internal/payment"
	"github.com/lahorneada/storefront/internal/pkg/telemetry"
	"github.com/lahorneada/storefront/internal/session"
	"github.com/lahorneada/storefront/internal/storage"
)

func main() {
	telemetry.InitLogger()
	cfg := config.Load()
	ctx := context.Background()

	// Durable on-device state: one SQLite file for snapshots and the
	// checkout journal.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("failed to create data dir", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	sqliteStore, err := storage.OpenSQLite(filepath.Join(cfg.DataDir, "storefront.db"))
	if err != nil {
		slog.Error("failed to open local database", "error", err)
		os.Exit(1)
	}
	defer sqliteStore.Close()

	var snapshots storage.Snapshots = sqliteStore
	if cfg.SnapshotBackend == config.BackendRedis {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		snapshots = storage.NewRedisStore(rdb)
		slog.Info("snapshots on redis", "addr", cfg.RedisAddr)
	}

	var journalRepo journal.Repository
	journalRepo, err = journalsqlite.New(sqliteStore.DB())
	if err != nil {
		// Auditing is not worth refusing to serve customers over.
		slog.Warn("checkout journal unavailable", "error", err)
		journalRepo = nil
	}

	gw := gateway.NewHTTPGateway(cfg.APIBaseURL, nil)
	cartStore := cart.NewStore(ctx, snapshots)
	sessionStore := session.NewStore(ctx, snapshots)
	views := history.NewViews(gw, sessionStore)
	reconciler := payment.NewReconciler(gw, sessionStore, journalRepo)
	catalogSvc := catalog.NewService(gw)

	flow := checkout.NewFlow(ctx, checkout.Deps{
		Gateway:             gw,
		Cart:                cartStore,
		Session:             sessionStore,
		History:             views,
		Journal:             journalRepo,
		OTPMinLength:        cfg.OTPMinLength,
		CollectDeliveryTime: cfg.CollectDeliveryTime,
	})

	handler := httpx.NewHandler(flow, cartStore, sessionStore, views, reconciler, catalogSvc, gw)
	router := httpx.NewRouter(handler)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		slog.Info("storefront engine running", "addr", cfg.ListenAddr, "api", cfg.APIBaseURL)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
	}
}
