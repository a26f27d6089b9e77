package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TeamHub/backend/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Server host")
	backend := flag.String("storage", cfg.Storage.Backend, "Storage backend: memory, file or sqlite")
	path := flag.String("storage-path", cfg.Storage.Path, "Storage directory or database file")
	defaults := flag.String("defaults", cfg.Layout.DefaultsFile, "YAML or TOML file with the default layout")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging")
	level := flag.String("log-level", cfg.Logging.Level, "Log level")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Storage.Backend = *backend
	cfg.Storage.Path = *path
	cfg.Layout.DefaultsFile = *defaults
	cfg.Logging.Development = *dev
	cfg.Logging.Level = *level
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		if err != nil {
			srv.Close()
			logger.Fatal("Server error", zap.Error(err))
		}
	}
}
