package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/bookstore/internal/cache"
	"github.com/Skotchmaster/bookstore/internal/config"
	"github.com/Skotchmaster/bookstore/internal/httpserver"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/search"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/pkg/db"
	"github.com/Skotchmaster/bookstore/pkg/events"
	"github.com/Skotchmaster/bookstore/pkg/logging"
	"github.com/Skotchmaster/bookstore/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/bookstore/pkg/middleware/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bookstore_exit", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}()

	r := repo.New(gdb)
	if err := r.Migrate(initCtx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		prod := events.NewProducer(cfg.KafkaBrokers)
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Error("kafka_close_failed", "error", err)
			}
		}()
		publisher = prod
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	reviews := &service.ReviewService{Repo: r}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisRatingCache(initCtx, cfg.RedisURL, cache.DefaultTTL)
		if err != nil {
			logger.Warn("rating_cache_disabled", "error", err)
		} else {
			defer rc.Close()
			reviews.Cache = rc
		}
	}

	catalog := &service.CatalogService{Repo: r, Reviews: reviews, Events: publisher}
	if cfg.ESURL != "" {
		client, err := search.NewClient(initCtx, cfg.Config)
		if err != nil {
			logger.Warn("search_index_disabled", "error", err)
		} else {
			idx := search.New(client, cfg.ESIndex)
			if err := idx.EnsureIndex(initCtx); err != nil {
				logger.Warn("search_index_disabled", "error", err)
			} else {
				catalog.Index = idx
			}
		}
	}

	auth := &service.AuthService{Repo: r, JWTSecret: cfg.JWTAccessSecret, RefreshSecret: cfg.JWTRefreshSecret}
	if cfg.AdminUsername != "" {
		if err := auth.EnsureAdmin(initCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(loggingmw.RequestLogger(logger))

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.SkipPaths = []string{"/health/live", "/health/ready", "/api/v1/auth/login", "/api/v1/auth/register", "/api/v1/auth/refresh"}
	e.Use(csrf.Middleware(csrfCfg))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:   &httpserver.AuthHTTP{Svc: auth},
		BookHandler:   &httpserver.BookHTTP{Svc: catalog, Inventory: &service.InventoryService{Repo: r}},
		RefHandler:    &httpserver.RefHTTP{Svc: catalog},
		CartHandler:   &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Events: publisher}},
		OrderHandler:  &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Events: publisher}},
		ReviewHandler: &httpserver.ReviewHTTP{Svc: reviews},
		JWTSecret:     cfg.JWTAccessSecret,
		Refresher:     auth,
		Ready:         r.Ping,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_server_starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
	}

	logger.Info("shutting_down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}

	logger.Info("shutdown_complete")
	return nil
}
