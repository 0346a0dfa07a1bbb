package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alumni-hub/messaging-service/config"
	"github.com/alumni-hub/messaging-service/internal/pg"
	"github.com/alumni-hub/messaging-service/internal/postgres"
	"github.com/alumni-hub/messaging-service/internal/service"
	httpx "github.com/alumni-hub/messaging-service/internal/transport/http"
	"github.com/alumni-hub/messaging-service/internal/transport/natsx"
	"github.com/alumni-hub/messaging-service/internal/transport/ws"
	"github.com/alumni-hub/messaging-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting messaging-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := pg.NewPool(ctx, pg.Config{
		DSN:     cfg.Postgres.DSN,
		AppName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos ---
	userRepo := postgres.NewUserRepository(pool)
	groupRepo := postgres.NewGroupRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)

	// --- optional NATS mirror ---
	var mirror ws.Mirror
	if cfg.NATS.URL != "" {
		pub, err := natsx.Connect(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer pub.Close()
		mirror = pub
		slog.Info("nats mirror enabled", "url", cfg.NATS.URL)
	}

	// --- services & WS hub ---
	hub := ws.NewHub()
	messageSvc := service.NewMessageService(userRepo, messageRepo, groupRepo, ws.NewGroupBroadcaster(hub, mirror))
	presence := service.NewPresenceTracker()
	wsServer := ws.NewServer(hub, messageSvc, groupRepo, presence, mirror)

	// --- HTTP ---
	handler := httpx.NewHandler(messageSvc, presence)
	router := httpx.NewRouter(handler, wsServer, cfg.HTTP.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
