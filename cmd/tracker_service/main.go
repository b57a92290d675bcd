package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tracker_service/internal/auth"
	"tracker_service/internal/config"
	"tracker_service/internal/handler"
	"tracker_service/internal/metrics"
	"tracker_service/internal/service"
	"tracker_service/internal/storage"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "")

	flag.Parse()
	if configPath == "" {
		log.Fatal("failed get config path from flags")
	}

	cfg := config.MustLoadConfig(configPath)

	lgr := setupLogger(cfg.Env)
	lgr.Info("started tracker service", slog.String("env", cfg.Env))

	if err := metrics.Register(nil); err != nil {
		lgr.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	st, err := storage.NewPostgresStorage(cfg.DB.DbURL)
	if err != nil {
		lgr.Error("failed to init storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret)
	srvc := service.NewService(st, tokens, cfg.Auth.DeviceTokenTTL)
	hndl := handler.NewHandler(srvc, tokens, cfg.Auth.OwnerTokenTTL, cfg.Env, lgr)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      hndl.InitRoutes(),
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		lgr.Info("listening", slog.String("address", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lgr.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lgr.Info("shutting down")

	if err := srv.Shutdown(context.Background()); err != nil {
		lgr.Error("failed to shut down server", slog.Any("error", err))
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
