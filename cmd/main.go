/*
Package main is the entry point for the layoutsync collaboration server.

It loads configuration, initializes logging and the database pool, starts
the collaboration hub, and serves the HTTP/WebSocket surface until an
interrupt triggers a graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"layoutsync/internal/app/assets"
	"layoutsync/internal/app/chatlog"
	"layoutsync/internal/app/collab"
	"layoutsync/internal/app/db"
	"layoutsync/internal/app/layout"
	"layoutsync/internal/app/version"
	"layoutsync/internal/configs"
	"layoutsync/internal/handler"
	"layoutsync/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("autosave_interval", cfg.AutosaveInterval).
		Dur("cursor_ttl", cfg.CursorTTL).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database")
	}
	defer pool.Close()

	draftStore := layout.NewPostgresStore(pool)
	commitStore := version.NewPostgresStore(pool)
	chatStore := chatlog.NewPostgresStore(pool)

	assetService, err := assets.NewService(assets.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize asset storage")
	}

	hub := collab.NewHub(cfg, draftStore, chatStore)
	versionService := version.NewService(commitStore, draftStore, hub)

	router := handler.Router(&handler.AppDeps{
		Hub:      hub,
		Config:   cfg,
		Versions: versionService,
		Assets:   assetService,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Layoutsync server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
