package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	platformgrpc "github.com/hyamero/trackAsOne/internal/platform/grpc"
	"github.com/hyamero/trackAsOne/internal/platform/timeouts"
	"github.com/hyamero/trackAsOne/internal/services/rooms/api/httpapi"
	"github.com/hyamero/trackAsOne/internal/services/rooms/membership"
	"github.com/hyamero/trackAsOne/internal/services/rooms/queue"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage/rediscache"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// HealthService is the gRPC health service name reported by the server.
const HealthService = "rooms.v1.RoomMembershipService"

// Config describes one rooms server process.
type Config struct {
	GRPCPort       int
	HTTPAddr       string
	Store          StoreConfig
	RedisURL       string
	SweepInterval  time.Duration
	AllowedOrigins []string
	Membership     membership.Config
	Logger         zerolog.Logger
}

// Server hosts the rooms service.
type Server struct {
	grpcListener  net.Listener
	grpcServer    *gogrpc.Server
	health        *health.Server
	httpListener  net.Listener
	httpServer    *http.Server
	store         storage.Store
	cache         *rediscache.Cache
	queue         *queue.Client
	worker        *queue.Worker
	sweeper       *membership.Sweeper
	sweepInterval time.Duration
	logger        zerolog.Logger
	closeOnce     sync.Once
}

// New opens the store and listeners described by cfg.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	s := &Server{sweepInterval: cfg.SweepInterval, logger: logger}

	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	s.store = store

	opts := []membership.Option{
		membership.WithConfig(cfg.Membership),
		membership.WithLogger(logger.With().Str("component", "membership").Logger()),
	}
	if redisURL := strings.TrimSpace(cfg.RedisURL); redisURL != "" {
		cache, err := rediscache.Open(ctx, redisURL, rediscache.DefaultTTL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.cache = cache
		opts = append(opts, membership.WithCache(cache))

		client, err := queue.NewClient(redisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.queue = client
	}
	coordinator := membership.New(store, opts...)

	if s.queue != nil {
		worker, err := queue.NewWorker(cfg.RedisURL, cfg.Membership.CascadeConcurrency, coordinator, logger.With().Str("component", "queue").Logger())
		if err != nil {
			s.Close()
			return nil, err
		}
		s.worker = worker
		s.sweeper = membership.NewSweeper(coordinator, s.queue)
	} else {
		s.sweeper = membership.NewSweeper(coordinator, nil)
	}

	s.grpcListener, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("listen on port %d: %w", cfg.GRPCPort, err)
	}
	s.grpcServer = gogrpc.NewServer(platformgrpc.ServerOptions()...)
	s.health = platformgrpc.RegisterHealth(s.grpcServer, HealthService)

	s.httpListener, err = net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = s.grpcListener.Close()
		s.Close()
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}
	s.httpServer = &http.Server{
		Handler:           httpapi.NewRouter(coordinator, logger, httpapi.Options{AllowedOrigins: cfg.AllowedOrigins}),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return s, nil
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// HTTPAddr returns the HTTP listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Run creates and serves a rooms server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the listeners, the sweep and the queue worker until ctx ends or
// one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info().Str("addr", s.Addr()).Msg("rooms gRPC server listening")
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		s.logger.Info().Str("addr", s.HTTPAddr()).Msg("rooms HTTP server listening")
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	if s.sweepInterval > 0 {
		g.Go(func() error {
			return s.sweeper.Run(gctx, s.sweepInterval)
		})
	}
	if s.worker != nil {
		g.Go(func() error {
			return s.worker.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.shutdown()
		return nil
	})
	return g.Wait()
}

func (s *Server) shutdown() {
	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("shutdown HTTP server")
	}

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
}

// Close releases the store and Redis clients.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.queue != nil {
			if err := s.queue.Close(); err != nil {
				s.logger.Warn().Err(err).Msg("close queue client")
			}
		}
		if s.cache != nil {
			if err := s.cache.Close(); err != nil {
				s.logger.Warn().Err(err).Msg("close room cache")
			}
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				s.logger.Warn().Err(err).Msg("close rooms store")
			}
		}
	})
}
