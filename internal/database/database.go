package database

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Config for the sqlite store
type Config struct {
	Path string
	// BusyTimeout is how long a statement waits on a locked database
	// before failing; zero selects a 5s default.
	BusyTimeout time.Duration
}

// DB wraps sqlx.DB
type DB struct {
	*sqlx.DB
}

// New opens the sqlite store, creating the parent directory if needed. The
// connection runs in WAL mode with foreign keys enforced; account ownership
// and cascade deletes depend on the latter.
func New(cfg Config) (*DB, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{db}, nil
}

func dsn(cfg Config) string {
	busy := cfg.BusyTimeout
	if busy == 0 {
		busy = 5 * time.Second
	}

	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", fmt.Sprintf("%d", busy.Milliseconds()))
	return cfg.Path + "?" + params.Encode()
}

// Migrate runs database migrations
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
