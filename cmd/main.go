package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/guildsnap/internal/adapters/http/api"
	"github.com/okian/guildsnap/internal/adapters/raiderio"
	"github.com/okian/guildsnap/internal/adapters/source"
	"github.com/okian/guildsnap/internal/app"
	"github.com/okian/guildsnap/internal/config"
	"github.com/okian/guildsnap/internal/domain/ratelimit"
	"github.com/okian/guildsnap/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	os.Exit(run(os.Stdout))
}

// run executes one pipeline pass and returns the process exit code.
func run(out io.Writer) int {
	// A missing .env is fine; the environment may be set by the caller.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 2
	}

	if err := logger.InitWithWriter(out, logger.Format(cfg.LogFormat)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	tracker := api.NewTracker()
	if srv := startStatusServer(ctx, cfg.MetricsAddr, tracker, log); srv != nil {
		defer shutdownStatusServer(srv, log)
	}

	pipeline, err := newPipeline(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build pipeline", logger.Error(err))
		return 2
	}

	tracker.Set(api.RunStatus{State: api.StateRunning})
	report, err := pipeline.Run(ctx)
	if err != nil {
		tracker.Set(api.RunStatus{State: api.StateFailed, RunID: report.RunID, Error: err.Error()})
		if errors.Is(err, context.Canceled) {
			log.Warn(ctx, "run interrupted, snapshot not written", logger.String("run_id", report.RunID))
		} else {
			log.Error(ctx, "run failed", logger.String("run_id", report.RunID), logger.Error(err))
		}
		return 1
	}

	tracker.Set(api.RunStatus{
		State:    api.StateComplete,
		RunID:    report.RunID,
		Players:  report.Players,
		Degraded: report.Degraded(),
	})
	return 0
}

// newPipeline builds the governor, the API client and the input loader from cfg.
func newPipeline(cfg *config.Config, log logger.Logger) (*app.Pipeline, error) {
	governor, err := ratelimit.NewGovernor(cfg.RateLimitRequests, cfg.RateLimitWindow(),
		ratelimit.WithLogger(log.Named("governor")),
	)
	if err != nil {
		return nil, fmt.Errorf("rate governor: %w", err)
	}

	client := raiderio.New(
		raiderio.WithBaseURL(cfg.APIBaseURL),
		raiderio.WithRegion(cfg.Region),
		raiderio.WithUserAgent(cfg.UserAgent),
		raiderio.WithTimeout(cfg.RequestTimeout()),
		raiderio.WithGovernor(governor),
		raiderio.WithLogger(log.Named("raiderio")),
	)
	loader := source.NewLoader(
		source.WithRegion(cfg.Region),
		source.WithStrict(cfg.StrictInputs),
		source.WithLogger(log.Named("source")),
	)

	opts := append(app.FromConfig(cfg), app.WithLogger(log.Named("pipeline")))
	return app.New(client, loader, opts...), nil
}

// startStatusServer serves /healthz and /metrics on addr. An empty addr
// disables the server and returns nil.
func startStatusServer(ctx context.Context, addr string, status api.StatusProvider, log logger.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	api.NewServer(status).Register(ctx, mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting status server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "status server failed", logger.Error(err))
		}
	}()
	return srv
}

func shutdownStatusServer(srv *http.Server, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(ctx, "status server shutdown failed", logger.Error(err))
	}
}
