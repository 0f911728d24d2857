// Package main provides the nodeflow HTTP server: a JSON API over a flow
// session plus debug and metrics endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/nodeflow/nodeflow/internal/adapters/repository/live"
	"github.com/nodeflow/nodeflow/internal/adapters/repository/memory"
	"github.com/nodeflow/nodeflow/internal/adapters/repository/postgres"
	"github.com/nodeflow/nodeflow/internal/adapters/repository/sqlite"
	"github.com/nodeflow/nodeflow/internal/app/services"
	"github.com/nodeflow/nodeflow/internal/app/usecases"
	"github.com/nodeflow/nodeflow/internal/core/document"
	"github.com/nodeflow/nodeflow/internal/core/eventloop"
	"github.com/nodeflow/nodeflow/internal/core/node"
	"github.com/nodeflow/nodeflow/pkg/prebuilt"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	initDB := flag.Bool("init-db", false, "create the postgres database if missing, then exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	if *initDB {
		if err := createDatabase(); err != nil {
			logger.Error("database initialization failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func serve(logger *slog.Logger) error {
	store, closeStore, err := openStore(logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	loop := eventloop.Default()
	kinds := node.NewRegistry()
	if err := prebuilt.Register(kinds, loop, os.Stdout); err != nil {
		return fmt.Errorf("register kinds: %w", err)
	}

	session := usecases.NewSession(usecases.Config{
		Kinds:   kinds,
		Flows:   live.NewRegistry(),
		Archive: services.NewArchive(store, logger),
		Loop:    loop,
		Logger:  logger,
	})
	defer func() {
		if err := session.Close(context.Background()); err != nil {
			logger.Warn("session close", "error", err)
		}
	}()

	srv := newServer(session, logger)

	addr := envOrDefault("NODEFLOW_ADDR", ":8080")
	logger.Info("starting nodeflow server",
		"addr", addr, "version", Version, "commit", Commit, "built", BuildTime)
	return http.ListenAndServe(addr, srv.routes())
}

// openStore picks the document store from NODEFLOW_STORE: memory (default),
// sqlite, or postgres.
func openStore(logger *slog.Logger) (document.Store, func(), error) {
	switch backend := envOrDefault("NODEFLOW_STORE", "memory"); backend {
	case "memory":
		store := memory.New(memory.Config{})
		return store, func() {}, nil
	case "sqlite":
		path := envOrDefault("NODEFLOW_SQLITE_PATH", "nodeflow.db")
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite store", "path", path)
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		dsn := os.Getenv("NODEFLOW_POSTGRES_DSN")
		if dsn == "" {
			return nil, nil, fmt.Errorf("NODEFLOW_POSTGRES_DSN is required for the postgres store")
		}
		store, err := postgres.Connect(context.Background(), dsn)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres store")
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func logLevel() slog.Level {
	switch os.Getenv("NODEFLOW_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
