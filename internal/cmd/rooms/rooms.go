// Package rooms parses rooms service flags and launches the service.
package rooms

import (
	"context"
	"flag"
	"strings"
	"time"

	entrypoint "github.com/hyamero/trackAsOne/internal/platform/cmd"
	"github.com/hyamero/trackAsOne/internal/platform/logging"
	server "github.com/hyamero/trackAsOne/internal/services/rooms/app"
	"github.com/hyamero/trackAsOne/internal/services/rooms/membership"
)

// Config holds rooms command configuration.
type Config struct {
	Port           int           `env:"TRACKASONE_ROOMS_PORT" envDefault:"8095"`
	HTTPAddr       string        `env:"TRACKASONE_ROOMS_HTTP_ADDR" envDefault:":8094"`
	RedisURL       string        `env:"TRACKASONE_REDIS_URL"`
	SweepInterval  time.Duration `env:"TRACKASONE_ROOMS_SWEEP_INTERVAL" envDefault:"1m"`
	AllowedOrigins []string      `env:"TRACKASONE_ROOMS_ALLOWED_ORIGINS" envSeparator:","`
	Store          server.StoreConfig
	Membership     membership.Config
	Logging        logging.Config
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	origins := strings.Join(cfg.AllowedOrigins, ",")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The rooms gRPC health server port")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The rooms HTTP API listen address")
	fs.StringVar(&cfg.Store.Driver, "db-driver", cfg.Store.Driver, "Store driver (sqlite|postgres)")
	fs.StringVar(&cfg.Store.Path, "db-path", cfg.Store.Path, "The rooms SQLite database path")
	fs.StringVar(&cfg.Store.URL, "db-url", cfg.Store.URL, "The rooms Postgres connection URL")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the room cache and cascade queue")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "Interval between tombstone sweeps (0 disables)")
	fs.StringVar(&origins, "allowed-origins", origins, "Comma-separated CORS origins")
	fs.IntVar(&cfg.Membership.MaxAttempts, "max-attempts", cfg.Membership.MaxAttempts, "Compare-and-update attempts per write")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.AllowedOrigins = splitList(origins)
	return cfg, nil
}

// Run starts the rooms HTTP API and gRPC health service.
func Run(ctx context.Context, cfg Config) error {
	logger := logging.New(cfg.Logging, entrypoint.ServiceRooms)
	process := entrypoint.Process{Service: entrypoint.ServiceRooms, Logger: logger}
	return entrypoint.Start(ctx, process, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			GRPCPort:       cfg.Port,
			HTTPAddr:       cfg.HTTPAddr,
			Store:          cfg.Store,
			RedisURL:       cfg.RedisURL,
			SweepInterval:  cfg.SweepInterval,
			AllowedOrigins: cfg.AllowedOrigins,
			Membership:     cfg.Membership,
			Logger:         logger,
		})
	})
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
