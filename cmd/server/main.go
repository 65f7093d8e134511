package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thronebutt-scraper/internal/config"
	"thronebutt-scraper/internal/race"
	"thronebutt-scraper/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("THRONEBUTT_CONFIG"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	l := logger.Setup(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})

	svc, err := race.New(cfg)
	if err != nil {
		l.Error("failed to build race service", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      logRequest(l, newMux(svc)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Error("server error", "error", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Info("bye")
}

func logRequest(l *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
