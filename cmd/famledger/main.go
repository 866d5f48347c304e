package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"famledger/internal/amqp"
	"famledger/internal/config"
	"famledger/internal/core"
	apphttp "famledger/internal/http"
	applog "famledger/internal/log"
	"famledger/internal/services"
	"famledger/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "famledger"})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewStore(cfg.SQLiteDBPath, storage.MemberScope(cfg.MemberScope))
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	catalog := core.DefaultCatalog()
	if cfg.CategoriesFile != "" {
		catalog, err = core.LoadCatalog(cfg.CategoriesFile)
		if err != nil {
			logger.Error("Failed to load category catalog", "error", err, "path", cfg.CategoriesFile)
			os.Exit(1)
		}
		logger.Info("Loaded category catalog", "path", cfg.CategoriesFile, "categories", len(catalog))
	}

	// The AMQP client is optional; without it record mutations still land in
	// SQLite and the worker picks them up on its periodic sweep.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, export notifications disabled", "error", err)
			amqpClient = nil
		}
	}

	recordService := services.NewRecordService(store, amqpClient)
	defer recordService.Close()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledgers: store,
		Members: store,
		Records: store,
		Mutator: recordService,
		Budgets: store,
		Catalog: catalog,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting famledger server",
		"port", cfg.Port,
		"db", cfg.SQLiteDBPath,
		"member_scope", cfg.MemberScope)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
