// Package cmd holds the startup steps shared by the rooms and maintenance binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/hyamero/trackAsOne/internal/platform/config"
	"github.com/hyamero/trackAsOne/internal/platform/otel"
	"github.com/rs/zerolog"
)

// Process names used for tracing resources and log fields.
const (
	ServiceRooms       = "rooms"
	ServiceMaintenance = "maintenance"
)

// DotEnvFile is read, when present, before the environment is parsed.
const DotEnvFile = ".env"

const defaultDrainTimeout = 5 * time.Second

// Process describes one trackAsOne binary started through Start.
type Process struct {
	// Service names the process in traces and logs.
	Service string
	// Logger records start and stop. The zero value discards.
	Logger zerolog.Logger
	// DrainTimeout bounds the span flush after the run returns.
	DrainTimeout time.Duration
}

// ParseConfig fills cfg from DotEnvFile and the process environment.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if err := config.LoadDotEnv(DotEnvFile); err != nil {
		return err
	}
	return config.ParseEnv(cfg)
}

// ParseArgs applies command-line overrides on top of the parsed environment.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// Start runs fn with tracing set up for p.Service. Cancelling ctx is the
// normal way to stop a process, so a run that ends with context.Canceled
// returns nil.
func Start(ctx context.Context, p Process, fn func(context.Context) error) error {
	p.Service = strings.TrimSpace(p.Service)
	if p.Service == "" {
		return errors.New("service name is required")
	}
	if fn == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := otel.Setup(ctx, p.Service)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	started := time.Now()
	p.Logger.Info().Str("service", p.Service).Msg("starting")
	defer drain(p, shutdown)

	err = fn(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = nil
	}
	event := p.Logger.Info()
	if err != nil {
		event = p.Logger.Error().Err(err)
	}
	event.Str("service", p.Service).Dur("uptime", time.Since(started)).Msg("stopped")
	return err
}

func drain(p Process, shutdown func(context.Context) error) {
	timeout := p.DrainTimeout
	if timeout <= 0 {
		timeout = defaultDrainTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		p.Logger.Warn().Err(err).Str("service", p.Service).Msg("flush traces")
	}
}
