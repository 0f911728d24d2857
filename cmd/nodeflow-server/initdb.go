package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq" // postgres driver for admin-level setup
)

// createDatabase connects to the postgres server with an admin DSN and
// creates the nodeflow database when it does not exist. Table creation is
// left to the postgres store, which runs its schema on connect.
func createDatabase() error {
	adminDSN := os.Getenv("NODEFLOW_POSTGRES_ADMIN_DSN")
	if adminDSN == "" {
		return fmt.Errorf("NODEFLOW_POSTGRES_ADMIN_DSN is required for -init-db")
	}
	dbName := envOrDefault("NODEFLOW_POSTGRES_DB", "nodeflow")
	if !isSafeDBName(dbName) {
		return fmt.Errorf("invalid database name %q", dbName)
	}

	db, err := sql.Open("postgres", adminDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	var exists bool
	query := "SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1)"
	if err := db.QueryRow(query, dbName).Scan(&exists); err != nil {
		return fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		slog.Info("database already exists", "database", dbName)
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	slog.Info("database created", "database", dbName)
	return nil
}

// isSafeDBName accepts identifiers that need no quoting. CREATE DATABASE
// cannot take a bind parameter, so the name is interpolated.
func isSafeDBName(name string) bool {
	if name == "" || len(name) > 63 {
		return false
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c == '_':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
