package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage/postgres"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage/sqlite"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig selects and locates the backing store.
type StoreConfig struct {
	Driver string `env:"TRACKASONE_ROOMS_DB_DRIVER" envDefault:"sqlite"`
	Path   string `env:"TRACKASONE_ROOMS_DB_PATH"`
	URL    string `env:"TRACKASONE_ROOMS_DB_URL"`
}

// OpenStore opens the configured store.
func OpenStore(ctx context.Context, cfg StoreConfig) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			path = filepath.Join("data", "rooms.db")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open rooms sqlite store: %w", err)
		}
		return store, nil
	case DriverPostgres:
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, fmt.Errorf("postgres driver requires TRACKASONE_ROOMS_DB_URL")
		}
		store, err := postgres.Open(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open rooms postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
