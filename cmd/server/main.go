// file: cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ecolearn/internal/cache"
	"ecolearn/internal/config"
	"ecolearn/internal/database"
	"ecolearn/internal/repositories"
	"ecolearn/internal/router"
	"ecolearn/internal/services"

	"go.uber.org/zap"
)

func main() {
	logger, err := initLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.NewManager(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := cache.NewCache(&cache.Config{
		Provider:   cfg.Cache.Provider,
		RedisURL:   cfg.Cache.RedisURL,
		DefaultTTL: cfg.Cache.DefaultTTL,
		MaxEntries: cfg.Cache.MaxEntries,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer store.Close()

	photos, err := services.NewCloudinaryPhotoStorage(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.APIKey,
		cfg.Cloudinary.APISecret,
		services.DefaultPhotoStorageConfig(cfg.Cloudinary.UploadFolder),
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize photo storage: %w", err)
	}

	chatProvider, err := services.NewHTTPChatProvider(&services.HTTPChatProviderConfig{
		URL:    cfg.Chat.ProviderURL,
		APIKey: cfg.Chat.APIKey,
		Model:  cfg.Chat.Model,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize chat provider: %w", err)
	}

	repos := repositories.NewCollection(db, logger)

	serviceCollection, err := services.NewCollection(&services.Dependencies{
		Repos:        repos,
		Cache:        store,
		Photos:       photos,
		ChatProvider: chatProvider,
		Config:       cfg,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	handler := router.New(&router.Dependencies{
		Config:   cfg,
		Services: serviceCollection,
		DB:       db,
		Cache:    store,
		Logger:   logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("address", server.Addr),
			zap.String("environment", cfg.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server shutdown completed")
	return nil
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("GO_ENV")
	var config zap.Config

	switch env {
	case "production":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "staging":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
