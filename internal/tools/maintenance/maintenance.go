package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	entrypoint "github.com/hyamero/trackAsOne/internal/platform/cmd"
	"github.com/hyamero/trackAsOne/internal/platform/discovery"
	platformgrpc "github.com/hyamero/trackAsOne/internal/platform/grpc"
	"github.com/hyamero/trackAsOne/internal/platform/logging"
	server "github.com/hyamero/trackAsOne/internal/services/rooms/app"
	"github.com/hyamero/trackAsOne/internal/services/rooms/membership"
	"github.com/hyamero/trackAsOne/internal/services/rooms/queue"
	"github.com/hyamero/trackAsOne/internal/services/rooms/storage"
)

const defaultListLimit = membership.DefaultSweepBatch

// Config holds maintenance command configuration.
type Config struct {
	Store        server.StoreConfig
	Membership   membership.Config
	Logging      logging.Config
	RedisURL     string        `env:"TRACKASONE_REDIS_URL"`
	RoomsAddr    string        `env:"TRACKASONE_ROOMS_ADDR"`
	RoomsHTTPURL string        `env:"TRACKASONE_ROOMS_HTTP_URL"`
	Timeout      time.Duration `env:"TRACKASONE_MAINTENANCE_TIMEOUT" envDefault:"10m"`
	ProbeTimeout time.Duration `env:"TRACKASONE_MAINTENANCE_PROBE_TIMEOUT" envDefault:"5s"`
	Sweep        bool
	Inline       bool
	ListDeleting bool
	Limit        int
	Probe        bool
	JSONOutput   bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Limit = defaultListLimit
	cfg.RoomsAddr = discovery.OrDefaultGRPCAddr(cfg.RoomsAddr, discovery.ServiceRooms)
	cfg.RoomsHTTPURL = discovery.OrDefaultHTTPBaseURL(cfg.RoomsHTTPURL, discovery.ServiceRooms)

	fs.StringVar(&cfg.Store.Driver, "db-driver", cfg.Store.Driver, "store driver (sqlite|postgres)")
	fs.StringVar(&cfg.Store.Path, "db-path", cfg.Store.Path, "path to the rooms sqlite database (default: TRACKASONE_ROOMS_DB_PATH or data/rooms.db)")
	fs.StringVar(&cfg.Store.URL, "db-url", cfg.Store.URL, "rooms postgres connection URL")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis URL; when set -sweep enqueues cascades instead of running them")
	fs.StringVar(&cfg.RoomsAddr, "rooms-addr", cfg.RoomsAddr, "rooms gRPC address probed by -probe")
	fs.StringVar(&cfg.RoomsHTTPURL, "rooms-http-url", cfg.RoomsHTTPURL, "rooms HTTP base URL probed by -probe")
	fs.BoolVar(&cfg.Sweep, "sweep", false, "resume cascades for every tombstoned room")
	fs.BoolVar(&cfg.Inline, "inline", false, "with -sweep, resume cascades in this process even when -redis-url is set")
	fs.BoolVar(&cfg.ListDeleting, "list-deleting", false, "report tombstoned rooms without touching them")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "max tombstoned rooms to list")
	fs.BoolVar(&cfg.Probe, "probe", false, "check rooms gRPC health and HTTP liveness")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output JSON reports")
	fs.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "timeout for each probe")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the maintenance command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if err := validate(cfg); err != nil {
		return err
	}

	if cfg.Probe {
		return runProbe(ctx, cfg, out, http.DefaultClient)
	}

	open := func(ctx context.Context) (storage.Store, error) {
		return server.OpenStore(ctx, cfg.Store)
	}
	deps, err := openDeps(ctx, cfg, open)
	if err != nil {
		return err
	}
	defer deps.close(func(format string, args ...any) { fmt.Fprintf(errOut, format, args...) })
	return runWithDeps(ctx, cfg, deps, out)
}

func validate(cfg Config) error {
	modes := 0
	for _, set := range []bool{cfg.Sweep, cfg.ListDeleting, cfg.Probe} {
		if set {
			modes++
		}
	}
	switch {
	case modes == 0:
		return errors.New("one of -sweep, -list-deleting or -probe is required")
	case modes > 1:
		return errors.New("-sweep, -list-deleting and -probe cannot be combined")
	case cfg.Inline && !cfg.Sweep:
		return errors.New("-inline requires -sweep")
	case cfg.ListDeleting && cfg.Limit <= 0:
		return errors.New("-limit must be > 0")
	}
	return nil
}

func openDeps(ctx context.Context, cfg Config, open openStoreFunc) (sweepDeps, error) {
	store, err := open(ctx)
	if err != nil {
		return sweepDeps{}, err
	}
	deps := sweepDeps{store: store}
	if cfg.Sweep && !cfg.Inline && strings.TrimSpace(cfg.RedisURL) != "" {
		client, err := queue.NewClient(cfg.RedisURL)
		if err != nil {
			_ = store.Close()
			return sweepDeps{}, err
		}
		deps.enqueuer = client
	}
	return deps, nil
}

func runWithDeps(ctx context.Context, cfg Config, deps sweepDeps, out io.Writer) error {
	if cfg.ListDeleting {
		ids, err := deps.store.ListDeletingRooms(ctx, cfg.Limit)
		if err != nil {
			return fmt.Errorf("list deleting rooms: %w", err)
		}
		return writeListReport(out, cfg.JSONOutput, listReport{Mode: "list-deleting", Limit: cfg.Limit, RoomIDs: ids})
	}

	logger := logging.NewWithWriter(cfg.Logging, entrypoint.ServiceMaintenance, os.Stderr)
	coordinator := membership.New(deps.store,
		membership.WithConfig(cfg.Membership),
		membership.WithLogger(logger),
	)
	var enqueuer membership.CascadeEnqueuer
	mode := "inline"
	if deps.enqueuer != nil {
		enqueuer = deps.enqueuer
		mode = "queued"
	}
	handled, err := membership.NewSweeper(coordinator, enqueuer).SweepOnce(ctx)
	report := sweepReport{Mode: mode, Handled: handled}
	if err != nil {
		report.Error = err.Error()
	}
	if writeErr := writeSweepReport(out, cfg.JSONOutput, report); writeErr != nil {
		return writeErr
	}
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	return nil
}

type listReport struct {
	Mode    string   `json:"mode"`
	Limit   int      `json:"limit"`
	RoomIDs []string `json:"room_ids"`
}

type sweepReport struct {
	Mode    string `json:"mode"`
	Handled int    `json:"handled"`
	Error   string `json:"error,omitempty"`
}

type probeReport struct {
	GRPCAddr    string `json:"grpc_addr"`
	GRPCServing bool   `json:"grpc_serving"`
	GRPCError   string `json:"grpc_error,omitempty"`
	HTTPURL     string `json:"http_url"`
	HTTPStatus  int    `json:"http_status,omitempty"`
	HTTPError   string `json:"http_error,omitempty"`
}

func (r probeReport) healthy() bool {
	return r.GRPCServing && r.HTTPStatus == http.StatusOK
}

func writeListReport(out io.Writer, jsonOutput bool, report listReport) error {
	if report.RoomIDs == nil {
		report.RoomIDs = []string{}
	}
	if jsonOutput {
		return writeJSON(out, report)
	}
	fmt.Fprintf(out, "Tombstoned rooms: %d (limit=%d)\n", len(report.RoomIDs), report.Limit)
	for _, id := range report.RoomIDs {
		fmt.Fprintf(out, "  %s\n", id)
	}
	return nil
}

func writeSweepReport(out io.Writer, jsonOutput bool, report sweepReport) error {
	if jsonOutput {
		return writeJSON(out, report)
	}
	switch report.Mode {
	case "queued":
		fmt.Fprintf(out, "Enqueued cascades for %d tombstoned rooms\n", report.Handled)
	default:
		fmt.Fprintf(out, "Resumed cascades for %d tombstoned rooms\n", report.Handled)
	}
	return nil
}

func writeJSON(out io.Writer, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func runProbe(ctx context.Context, cfg Config, out io.Writer, client *http.Client) error {
	report := probeReport{
		GRPCAddr: cfg.RoomsAddr,
		HTTPURL:  strings.TrimRight(cfg.RoomsHTTPURL, "/") + "/healthz",
	}

	logger := logging.NewWithWriter(cfg.Logging, entrypoint.ServiceMaintenance, os.Stderr)
	conn, err := platformgrpc.DialHealthy(ctx, cfg.RoomsAddr, server.HealthService, cfg.ProbeTimeout, logger)
	if err != nil {
		report.GRPCError = err.Error()
	} else {
		report.GRPCServing = true
		_ = conn.Close()
	}

	status, err := probeHTTP(ctx, client, report.HTTPURL, cfg.ProbeTimeout)
	report.HTTPStatus = status
	if err != nil {
		report.HTTPError = err.Error()
	}

	if cfg.JSONOutput {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "gRPC %s serving: %t\n", report.GRPCAddr, report.GRPCServing)
		if report.GRPCError != "" {
			fmt.Fprintf(out, "  error: %s\n", report.GRPCError)
		}
		fmt.Fprintf(out, "HTTP %s status: %d\n", report.HTTPURL, report.HTTPStatus)
		if report.HTTPError != "" {
			fmt.Fprintf(out, "  error: %s\n", report.HTTPError)
		}
	}
	if !report.healthy() {
		return errors.New("rooms service is not healthy")
	}
	return nil
}

func probeHTTP(ctx context.Context, client *http.Client, url string, timeout time.Duration) (int, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
