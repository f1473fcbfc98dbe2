package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/acme-orders-mcp/internal/config"
	"github.com/dshills/acme-orders-mcp/internal/logging"
	"github.com/dshills/acme-orders-mcp/internal/mcp"
	"github.com/dshills/acme-orders-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("ACME Orders MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "acme-orders: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(".env", args)
	if err != nil {
		return err
	}

	// Logs go to stderr (stdout reserved for the stdio MCP protocol)
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("version", version).
		Str("build_mode", storage.BuildMode).
		Str("driver", storage.DriverName).
		Str("transport", cfg.Transport).
		Msg("ACME Orders MCP Server starting")

	if err := cfg.EnsureDBDir(); err != nil {
		return err
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("close storage")
		}
	}()

	// Set up graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SeedCatalog {
		seeded, err := storage.SeedCatalog(ctx, store)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if seeded > 0 {
			log.Info().Int("products", seeded).Msg("seeded demo catalog")
		}
	}

	server, err := mcp.NewServer(cfg, store, log)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := server.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
